package internal

import "context"

// MfaResolver produces a six-digit code when the server requests a second
// factor during login. Implementations may block on operator input or on a
// caller-supplied asynchronous computation.
type MfaResolver interface {
	Resolve(ctx context.Context) (string, error)
}

// SessionStore persists session records to durable storage
type SessionStore interface {
	Save(record *SessionRecord) error
	Load() (*SessionRecord, error)
	Delete() error
	Path() string
}

// DocumentRetriever downloads account documents into a directory tree
type DocumentRetriever interface {
	DownloadAll(ctx context.Context, session *Session, docs []DocumentDescriptor, config *DownloadConfig) error
}

// RateLimiter controls bandwidth usage during document streaming
type RateLimiter interface {
	Wait(ctx context.Context, n int) error
	SetRate(bytesPerSecond int64)
}
