// Package poller owns the fetch → validate → render → notify cycle.
//
// All loop state (cursor, last-sent status, last-sent error) is in-memory
// and process-lifetime only; a restart starts over from "now".
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"hwbot/internal/homework"
	"hwbot/internal/notify"
	"hwbot/pkg/logx"
)

// NoNewSubmissions is the canned text used when the API returns an empty
// homeworks list. It participates in dedup like any rendered status.
const NoNewSubmissions = "No new homework submissions."

// Fetcher is implemented by homework.Client.
type Fetcher interface {
	Fetch(ctx context.Context, from int64) (any, error)
}

// Sender is implemented by notify.Notifier.
type Sender interface {
	Send(ctx context.Context, kind, text string, cursor int64) error
}

type Config struct {
	// Interval between cycles. The sleep always runs, whichever branch the
	// cycle took, so the polling cadence is never skipped.
	Interval time.Duration

	// StartFrom overrides the initial cursor (unix seconds). Zero means
	// "now". Used for debugging against historical submissions.
	StartFrom int64

	// Heartbeat, when set, is called once per completed cycle (systemd
	// watchdog ping).
	Heartbeat func()
}

// Stats is a point-in-time snapshot for the daily digest.
type Stats struct {
	Cycles     uint64
	Sent       uint64
	Errors     uint64
	LastStatus string
	LastChange time.Time
}

type Poller struct {
	client Fetcher
	sender Sender
	log    logx.Logger

	heartbeat func()

	mu       sync.Mutex
	interval time.Duration

	// loop-local state; only touched from Run's goroutine
	cursor     int64
	lastStatus string
	lastErr    string

	smu   sync.Mutex
	stats Stats
}

func New(cfg Config, client Fetcher, sender Sender, log logx.Logger) *Poller {
	if log.IsZero() {
		log = logx.Nop()
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	cursor := cfg.StartFrom
	if cursor == 0 {
		cursor = time.Now().Unix()
	}
	return &Poller{
		client:    client,
		sender:    sender,
		log:       log,
		heartbeat: cfg.Heartbeat,
		interval:  interval,
		cursor:    cursor,
	}
}

// SetInterval applies a new polling interval (config hot-reload). It takes
// effect from the next sleep.
func (p *Poller) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	p.mu.Lock()
	p.interval = d
	p.mu.Unlock()
}

func (p *Poller) currentInterval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interval
}

// Stats returns a snapshot of loop counters.
func (p *Poller) Stats() Stats {
	p.smu.Lock()
	defer p.smu.Unlock()
	return p.stats
}

// Run executes cycles until ctx is cancelled. It never returns for any
// in-cycle failure; every error is reported and the cadence continues.
func (p *Poller) Run(ctx context.Context) error {
	p.log.Info("polling started",
		logx.Duration("interval", p.currentInterval()),
		logx.Int64("from_date", p.cursor),
	)

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		p.cycle(ctx)
		if p.heartbeat != nil {
			p.heartbeat()
		}

		timer.Reset(p.currentInterval())
		select {
		case <-ctx.Done():
			p.log.Info("polling stopped")
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// cycle runs one fetch → validate → render → notify pass.
func (p *Poller) cycle(ctx context.Context) {
	p.smu.Lock()
	p.stats.Cycles++
	p.smu.Unlock()

	payload, err := p.client.Fetch(ctx, p.cursor)
	if err != nil {
		p.reportError(ctx, err)
		return
	}

	subs, err := homework.Validate(payload)
	if err != nil {
		p.reportError(ctx, err)
		return
	}

	// Only the newest submission is considered per cycle; the API returns
	// most-recent-first.
	candidate := NoNewSubmissions
	if len(subs) > 0 {
		candidate, err = homework.Render(subs[0])
		if err != nil {
			p.reportError(ctx, err)
			return
		}
	}

	if candidate == p.lastStatus {
		p.log.Debug("status unchanged")
		return
	}

	if err := p.sender.Send(ctx, "status", candidate, p.cursor); err != nil {
		// Delivery failure: leave lastStatus and cursor untouched so the
		// same notification is retried next cycle. Not routed through
		// reportError to avoid an error-reporting send right after a
		// failed send.
		p.log.Error("status notification not delivered; will retry", logx.Err(err))
		return
	}

	p.lastStatus = candidate
	p.cursor = homework.CurrentDate(payload, p.cursor)
	p.smu.Lock()
	p.stats.Sent++
	p.stats.LastStatus = candidate
	p.stats.LastChange = time.Now()
	p.smu.Unlock()
	p.log.Info("status change delivered", logx.Int64("cursor", p.cursor))
}

// reportError converts a cycle failure into a (deduplicated) chat message.
// Delivery failures while reporting are swallowed after logging; the
// last-sent error only advances when the report actually went out.
func (p *Poller) reportError(ctx context.Context, err error) {
	p.smu.Lock()
	p.stats.Errors++
	p.smu.Unlock()

	msg := fmt.Sprintf("Bot failure: %v", err)
	p.log.Error("cycle failed", logx.Err(err), logx.String("class", classify(err)))

	if msg == p.lastErr {
		return
	}
	if sendErr := p.sender.Send(ctx, "error", msg, p.cursor); sendErr != nil {
		p.log.Warn("error report not delivered", logx.Err(sendErr))
		return
	}
	p.lastErr = msg
}

// classify tags an error for log filtering without string inspection.
func classify(err error) string {
	var se *homework.StatusError
	switch {
	case errors.As(err, &se):
		return "api_status"
	case errors.Is(err, homework.ErrServiceUnavailable):
		return "service_unavailable"
	case errors.Is(err, homework.ErrMalformedResponse):
		return "malformed_response"
	case errors.Is(err, homework.ErrBadShape):
		return "bad_shape"
	case errors.Is(err, homework.ErrParse):
		return "parse"
	case errors.Is(err, notify.ErrDelivery):
		return "delivery"
	default:
		return "unknown"
	}
}
