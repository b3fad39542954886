package internal

import (
	"time"
)

// Credentials holds a username/password pair used for the OAuth password
// grant. The password is sensitive and must be wiped once a token exists.
type Credentials struct {
	Username string
	Password string
}

// Wipe clears the password from memory
func (c *Credentials) Wipe() {
	c.Password = ""
}

// Session is the authenticated identity bundle produced by a successful
// login or reload. Token and ExpiresAt are always set together; Account is
// populated before the session is handed to a caller.
type Session struct {
	Username  string
	Token     string
	Account   string
	ExpiresAt time.Time
}

// IsValid reports whether the session carries a token that has not expired
func (s *Session) IsValid() bool {
	return s != nil && s.Token != "" && time.Now().Before(s.ExpiresAt)
}

// SessionRecord is the durable JSON serialization of a Session. Password is
// only written when the client is explicitly configured to persist it.
type SessionRecord struct {
	Username string    `json:"username"`
	Password string    `json:"password,omitempty"`
	Token    string    `json:"token"`
	Account  string    `json:"account"`
	Expires  time.Time `json:"expires"`
}

// DocumentDescriptor identifies a downloadable account document as returned
// by the documents listing endpoint
type DocumentDescriptor struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	DownloadURL string `json:"download_url"`
}

// DownloadConfig contains configuration for document retrieval operations
type DownloadConfig struct {
	TargetFolder string
	RateLimit    int64 // bytes per second, 0 = unlimited
	MaxAttempts  int   // per-document throttle attempts, 0 = unbounded
	Quiet        bool
}
