package models

import "time"

// Session holds the capabilities resolved from the remote server at the start
// of a sync.
type Session struct {
	// AccountID is the account whose mail is synchronized. Transports without
	// an account concept leave it empty.
	AccountID string

	// MaxBatch is the largest number of objects the server accepts in one
	// metadata request. Zero means the server did not advertise a limit.
	MaxBatch int

	// APIURL and DownloadURL are JMAP endpoints; empty for other transports.
	APIURL      string
	DownloadURL string
}

// MessageMetadata is the per-message record returned by a metadata request.
type MessageMetadata struct {
	// FolderID is the folder the record was requested for.
	FolderID string `json:"-"`

	// ServerID is the message identifier, unique within its folder.
	ServerID string `json:"id"`

	// BlobID addresses the raw message body. IMAP transports set it to the UID.
	BlobID string `json:"blobId"`

	// Size is the body size in bytes as reported by the server.
	Size int64 `json:"size"`

	// ReceivedAt is the server-side arrival time, if known.
	ReceivedAt *time.Time `json:"receivedAt,omitempty"`
}

// SyncPlan describes the work of one sync run for one folder.
type SyncPlan struct {
	// ToFetch lists the remote IDs missing locally, in remote discovery
	// order, without duplicates.
	ToFetch []string

	// Stale lists local IDs absent from the remote set, sorted. It is only
	// acted upon when stale pruning is enabled.
	Stale []string

	// BatchSize is the maximum number of IDs per metadata request.
	BatchSize int
}

// Empty reports whether there is nothing to fetch.
func (p SyncPlan) Empty() bool {
	return len(p.ToFetch) == 0
}

// Batches splits ToFetch into consecutive chunks of at most BatchSize IDs.
// The chunks share ToFetch's backing array.
func (p SyncPlan) Batches() [][]string {
	if len(p.ToFetch) == 0 {
		return nil
	}
	size := p.BatchSize
	if size <= 0 {
		size = len(p.ToFetch)
	}

	batches := make([][]string, 0, (len(p.ToFetch)+size-1)/size)
	for start := 0; start < len(p.ToFetch); start += size {
		end := min(start+size, len(p.ToFetch))
		batches = append(batches, p.ToFetch[start:end:end])
	}
	return batches
}
