package digest

import (
	"context"
	"strings"
	"testing"
	"time"

	"hwbot/internal/poller"
	"hwbot/pkg/logx"
)

type recordingSender struct {
	texts []string
}

func (r *recordingSender) Send(ctx context.Context, kind, text string, cursor int64) error {
	r.texts = append(r.texts, text)
	return nil
}

func TestSummary(t *testing.T) {
	t.Parallel()
	st := poller.Stats{
		Cycles:     144,
		Sent:       3,
		Errors:     1,
		LastStatus: "Review status changed",
		LastChange: time.Date(2026, 8, 25, 9, 30, 0, 0, time.UTC),
	}
	got := Summary(st)
	for _, want := range []string{"144 polls", "3 notifications", "1 errors", "Review status changed"} {
		if !strings.Contains(got, want) {
			t.Fatalf("Summary() = %q, missing %q", got, want)
		}
	}

	if got := Summary(poller.Stats{}); !strings.Contains(got, "none yet") {
		t.Fatalf("empty Summary() = %q", got)
	}
}

func TestStartDisabledWithoutSchedule(t *testing.T) {
	t.Parallel()
	s := New(Config{}, &recordingSender{}, func() poller.Stats { return poller.Stats{} }, logx.Nop())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.Stop() // must be safe when never scheduled
}

func TestStartRejectsBadSchedule(t *testing.T) {
	t.Parallel()
	s := New(Config{Schedule: "not a cron spec"}, &recordingSender{}, func() poller.Stats { return poller.Stats{} }, logx.Nop())
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}
