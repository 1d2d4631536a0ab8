package signer

import "context"

// Channel is the single persistent message channel to the voting-session relay.
// Each call to Send writes exactly one encoded protocol message.
type Channel interface {
	// Send writes one frame.
	Send(ctx context.Context, frame []byte) error

	// Recv blocks until the next frame arrives.
	// Any error is the channel-level close event; the channel is unusable afterwards.
	Recv(ctx context.Context) ([]byte, error)

	// Close tears the channel down. Pending Recv calls return an error.
	Close() error
}

// BlobStore is the key-value persistence collaborator.
// Set must be all-or-nothing: a failed or interrupted write never leaves a
// truncated value visible to a later Get.
type BlobStore interface {
	// Get returns the value stored under key, or an error wrapping
	// storage.ErrNotFound when nothing is stored.
	Get(key string) ([]byte, error)

	// Set replaces the value stored under key.
	Set(key string, value []byte) error
}

// Parameters holds the configuration of a signer session.
type Parameters struct {
	RelayURL   string // WebSocket relay the channel is dialed against
	DataDir    string // Directory backing the persisted key list
	HistoryCap int    // Number of inbound messages kept for inspection
}
