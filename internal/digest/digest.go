// Package digest sends an optional scheduled summary of the bot's activity
// through the regular notifier. Disabled unless a cron spec is configured.
package digest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"hwbot/internal/poller"
	"hwbot/pkg/logx"
)

type Config struct {
	// Schedule is a standard 5-field cron expression (or a descriptor like
	// "@daily"). Empty disables the digest.
	Schedule string
	Timezone string // IANA TZ; empty means local time
}

type Sender interface {
	Send(ctx context.Context, kind, text string, cursor int64) error
}

type Service struct {
	cfg    Config
	sender Sender
	stats  func() poller.Stats
	log    logx.Logger

	mu sync.Mutex
	c  *cron.Cron
}

func New(cfg Config, sender Sender, stats func() poller.Stats, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{cfg: cfg, sender: sender, stats: stats, log: log}
}

// Start registers the cron entry and begins ticking. No-op when no schedule
// is configured.
func (s *Service) Start(ctx context.Context) error {
	if s.cfg.Schedule == "" {
		return nil
	}

	loc := time.Local
	if s.cfg.Timezone != "" {
		l, err := time.LoadLocation(s.cfg.Timezone)
		if err != nil {
			return fmt.Errorf("digest: bad timezone %q: %w", s.cfg.Timezone, err)
		}
		loc = l
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(cron.WithParser(parser), cron.WithLocation(loc))
	_, err := c.AddFunc(s.cfg.Schedule, func() { s.send(ctx) })
	if err != nil {
		return fmt.Errorf("digest: bad schedule %q: %w", s.cfg.Schedule, err)
	}

	s.mu.Lock()
	s.c = c
	s.mu.Unlock()
	c.Start()
	s.log.Info("digest scheduled", logx.String("spec", s.cfg.Schedule))
	return nil
}

func (s *Service) Stop() {
	s.mu.Lock()
	c := s.c
	s.c = nil
	s.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}

func (s *Service) send(ctx context.Context) {
	text := Summary(s.stats())
	if err := s.sender.Send(ctx, "digest", text, 0); err != nil {
		s.log.Warn("digest not delivered", logx.Err(err))
	}
}

// Summary renders the digest text from a stats snapshot.
func Summary(st poller.Stats) string {
	last := st.LastStatus
	if last == "" {
		last = "none yet"
	}
	text := fmt.Sprintf(
		"Daily digest: %d polls, %d notifications, %d errors.\nLast status: %s",
		st.Cycles, st.Sent, st.Errors, last,
	)
	if !st.LastChange.IsZero() {
		text += fmt.Sprintf(" (at %s)", st.LastChange.Format("15:04 MST"))
	}
	return text
}
