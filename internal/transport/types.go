// Package transport defines the outbound chat contract implemented by the
// Telegram adapter. The notifier and the logging telegram sink both talk to
// this interface so they can be swapped for a fake in tests.
package transport

import "context"

// ChatTarget addresses one chat (and optionally a forum thread).
type ChatTarget struct {
	ChatID   int64
	ThreadID int
}

// MessageRef identifies a delivered message.
type MessageRef struct {
	ChatID    int64
	ThreadID  int
	MessageID int
}

// SendOptions tweaks a single outbound message.
type SendOptions struct {
	ParseMode      string
	DisablePreview bool
}

// Adapter is the minimal outbound messaging surface the bot needs.
// This bot only ever sends; it never consumes incoming updates.
type Adapter interface {
	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) (MessageRef, error)
	Stop(ctx context.Context) error
}
