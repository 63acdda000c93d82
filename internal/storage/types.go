package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
//
// Driver values:
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", storage is disabled. The audit log is
// observability only: nothing in the poll loop reads it back, so disabling
// it changes no behavior.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // 0 means default
}

// Entry records one outbound notification or error report.
// Keep it compact and schema-stable.
type Entry struct {
	At     time.Time
	Kind   string // "status", "error" or "digest"
	Text   string
	ChatID int64
	Cursor int64
	Ok     bool
	Error  string
	TookMS int64
}
