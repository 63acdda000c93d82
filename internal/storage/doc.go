// Package storage keeps an optional audit log of everything the bot sent.
//
// It is deliberately not part of the poll loop's state: the cursor and the
// dedup strings live in memory only and reset on restart.
package storage
