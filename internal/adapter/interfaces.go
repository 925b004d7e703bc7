// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides transport-layer abstractions for talking to a
// remote mail server.
//
// The primary abstraction is [MailTransport], which decouples the sync
// service from the wire protocol. Two implementations ship with the package:
// a JMAP client over HTTP ([NewJMAPTransport]) and an IMAP client over TCP
// ([NewIMAPTransport]) whose responses are read with the protocol package's
// tokenizing parser.
//
// Error values defined in errors.go are mapped from HTTP status codes, JMAP
// method errors and IMAP tagged responses so that callers can use
// [errors.Is] for transport-agnostic error handling (e.g. [ErrUnauthorized]
// for a rejected login or a 401).
package adapter

import (
	"context"
	"io"

	"github.com/MKhiriev/go-mail-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/mail_transport_mock.go -package=mock

// MailTransport is the remote side of a sync. Implementations must be safe
// for concurrent use; they may serialize requests internally.
type MailTransport interface {
	// FetchSession authenticates if needed and returns the server
	// capabilities for this sync. Authentication failures are reported as
	// [ErrUnauthorized] (wrapped).
	FetchSession(ctx context.Context) (models.Session, error)

	// QueryIDs returns the IDs of all messages in folderID in server order.
	QueryIDs(ctx context.Context, folderID string) ([]string, error)

	// GetMetadata returns the metadata of the given messages of folderID.
	// IDs the server does not know are omitted from the result. Callers keep
	// len(ids) within the session's MaxBatch.
	GetMetadata(ctx context.Context, folderID string, ids []string) ([]models.MessageMetadata, error)

	// DownloadBody streams the raw RFC 5322 body of a message. The caller
	// must close the returned reader.
	DownloadBody(ctx context.Context, meta models.MessageMetadata) (io.ReadCloser, error)

	// Close releases connections held by the transport.
	Close() error
}
