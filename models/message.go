// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// Message is a locally persisted message.
// The raw body lives in the body store; the database keeps its location and
// checksum.
type Message struct {
	// FolderID is the server-assigned folder the message belongs to.
	FolderID string

	// ServerID is the server-assigned message identifier, unique per folder.
	ServerID string

	// BlobID addresses the body on the server.
	BlobID string

	// Size is the number of body bytes written locally.
	Size int64

	// ReceivedAt is the server-side arrival time, if known.
	ReceivedAt *time.Time

	// BodyPath is the body's path inside the body store.
	BodyPath string

	// BodyChecksum is the hex-encoded BLAKE2b-256 digest of the body.
	BodyChecksum string

	// CreatedAt is the time the message was first persisted locally.
	CreatedAt *time.Time
}

// TableName returns the name of the database table
// associated with the Message model.
func (m *Message) TableName() string {
	return "messages"
}

// Folder is the local bookkeeping row of a synchronized folder.
type Folder struct {
	FolderID     string
	LastSyncedAt *time.Time
}

// TableName returns the name of the database table
// associated with the Folder model.
func (f *Folder) TableName() string {
	return "folders"
}

// StoredBody describes a body written to the body store.
type StoredBody struct {
	Path     string
	Size     int64
	Checksum string
}
