// Package notify delivers rendered texts to the one configured chat.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"hwbot/internal/storage"
	"hwbot/internal/transport"
	"hwbot/pkg/logx"
)

// ErrDelivery wraps every adapter failure. Delivery problems are retryable
// from the poll loop's point of view and must never crash the process.
var ErrDelivery = errors.New("message delivery failed")

type Config struct {
	Target     transport.ChatTarget
	RatePerSec int
}

// Notifier is a synchronous, rate-limited sender. The poll loop is strictly
// sequential, so there is no queue or worker pool here; the limiter only
// protects against config mistakes (very short poll intervals).
type Notifier struct {
	adapter transport.Adapter
	target  transport.ChatTarget
	limiter *rate.Limiter
	store   storage.Store
	log     logx.Logger
}

func New(cfg Config, adapter transport.Adapter, store storage.Store, log logx.Logger) *Notifier {
	if log.IsZero() {
		log = logx.Nop()
	}
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 1
	}
	return &Notifier{
		adapter: adapter,
		target:  cfg.Target,
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
		store:   store,
		log:     log,
	}
}

// Send delivers text to the fixed chat. Kind tags the audit entry
// ("status", "error", "digest"); cursor is recorded for audit only.
func (n *Notifier) Send(ctx context.Context, kind, text string, cursor int64) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}

	start := time.Now()
	_, err := n.adapter.SendText(ctx, n.target, text, &transport.SendOptions{DisablePreview: true})
	took := time.Since(start)

	n.audit(ctx, storage.Entry{
		Kind:   kind,
		Text:   text,
		ChatID: n.target.ChatID,
		Cursor: cursor,
		Ok:     err == nil,
		Error:  errString(err),
		TookMS: took.Milliseconds(),
	})

	if err != nil {
		n.log.Error("delivery failed", logx.Err(err), logx.String("kind", kind))
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	n.log.Debug("notification delivered", logx.String("kind", kind), logx.Duration("took", took))
	return nil
}

func (n *Notifier) audit(ctx context.Context, e storage.Entry) {
	if n.store == nil {
		return
	}
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 500*time.Millisecond)
	defer cancel()
	if err := n.store.Append(actx, e); err != nil {
		n.log.Warn("audit append failed", logx.Err(err))
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
