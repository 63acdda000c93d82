package poller

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"hwbot/internal/homework"
	"hwbot/pkg/logx"
)

type fakeFetcher struct {
	payloads []any
	errs     []error
	calls    int
	lastFrom int64
}

func (f *fakeFetcher) Fetch(ctx context.Context, from int64) (any, error) {
	i := f.calls
	f.calls++
	f.lastFrom = from
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.payloads) {
		return f.payloads[i], nil
	}
	if len(f.payloads) > 0 {
		return f.payloads[len(f.payloads)-1], nil
	}
	return nil, errors.New("no payload scripted")
}

type sentMsg struct {
	kind string
	text string
}

type fakeSender struct {
	sent    []sentMsg
	failFor int // fail the first N sends
}

func (f *fakeSender) Send(ctx context.Context, kind, text string, cursor int64) error {
	if f.failFor > 0 {
		f.failFor--
		return errors.New("delivery failed")
	}
	f.sent = append(f.sent, sentMsg{kind: kind, text: text})
	return nil
}

func approvedPayload(name string, currentDate float64) map[string]any {
	return map[string]any{
		"homeworks":    []any{map[string]any{"homework_name": name, "status": "approved"}},
		"current_date": currentDate,
	}
}

func newTestPoller(f Fetcher, s Sender) *Poller {
	return New(Config{Interval: time.Minute, StartFrom: 1000}, f, s, logx.Nop())
}

func TestIdenticalPayloadSendsOnce(t *testing.T) {
	t.Parallel()
	ff := &fakeFetcher{payloads: []any{approvedPayload("X", 2000), approvedPayload("X", 3000)}}
	fs := &fakeSender{}
	p := newTestPoller(ff, fs)

	ctx := context.Background()
	p.cycle(ctx)
	p.cycle(ctx)

	if len(fs.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(fs.sent))
	}
	if fs.sent[0].kind != "status" || !strings.Contains(fs.sent[0].text, "X") {
		t.Fatalf("unexpected message: %+v", fs.sent[0])
	}
}

func TestCursorAdvancesOnlyOnDeliveredChange(t *testing.T) {
	t.Parallel()
	ff := &fakeFetcher{payloads: []any{approvedPayload("X", 2000)}}
	fs := &fakeSender{failFor: 1}
	p := newTestPoller(ff, fs)
	ctx := context.Background()

	// Delivery fails: cursor and dedup state stay put.
	p.cycle(ctx)
	if p.cursor != 1000 {
		t.Fatalf("cursor = %d after failed delivery, want 1000", p.cursor)
	}
	if p.lastStatus != "" {
		t.Fatalf("lastStatus = %q after failed delivery, want empty", p.lastStatus)
	}

	// Retry succeeds: cursor advances to the server clock.
	p.cycle(ctx)
	if p.cursor != 2000 {
		t.Fatalf("cursor = %d, want 2000", p.cursor)
	}
	if len(fs.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(fs.sent))
	}
	if ff.lastFrom != 1000 {
		t.Fatalf("second fetch used from=%d, want 1000", ff.lastFrom)
	}
}

func TestCursorKeptWhenCurrentDateAbsent(t *testing.T) {
	t.Parallel()
	payload := map[string]any{
		"homeworks": []any{map[string]any{"homework_name": "X", "status": "reviewing"}},
	}
	ff := &fakeFetcher{payloads: []any{payload}}
	fs := &fakeSender{}
	p := newTestPoller(ff, fs)

	p.cycle(context.Background())
	if p.cursor != 1000 {
		t.Fatalf("cursor = %d, want unchanged 1000", p.cursor)
	}
	if len(fs.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(fs.sent))
	}
}

func TestEmptyHomeworksRendersCannedText(t *testing.T) {
	t.Parallel()
	empty := map[string]any{"homeworks": []any{}, "current_date": float64(1500)}
	ff := &fakeFetcher{payloads: []any{empty, empty}}
	fs := &fakeSender{}
	p := newTestPoller(ff, fs)
	ctx := context.Background()

	p.cycle(ctx)
	p.cycle(ctx)

	if len(fs.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(fs.sent))
	}
	if fs.sent[0].text != NoNewSubmissions {
		t.Fatalf("text = %q, want %q", fs.sent[0].text, NoNewSubmissions)
	}
}

func TestUnknownStatusReportsErrorNotStatus(t *testing.T) {
	t.Parallel()
	bogus := map[string]any{
		"homeworks": []any{map[string]any{"homework_name": "X", "status": "bogus"}},
	}
	ff := &fakeFetcher{payloads: []any{bogus, bogus}}
	fs := &fakeSender{}
	p := newTestPoller(ff, fs)
	ctx := context.Background()

	p.cycle(ctx)
	p.cycle(ctx)

	if len(fs.sent) != 1 {
		t.Fatalf("sent %d messages, want 1 (deduplicated error)", len(fs.sent))
	}
	if fs.sent[0].kind != "error" {
		t.Fatalf("kind = %q, want error", fs.sent[0].kind)
	}
	if p.lastStatus != "" {
		t.Fatalf("lastStatus = %q, want empty", p.lastStatus)
	}
}

func TestFetchFailureReportedAndLoopContinues(t *testing.T) {
	t.Parallel()
	ff := &fakeFetcher{
		errs:     []error{&homework.StatusError{Code: 500}, nil},
		payloads: []any{nil, approvedPayload("X", 2000)},
	}
	fs := &fakeSender{}
	p := newTestPoller(ff, fs)
	ctx := context.Background()

	p.cycle(ctx)
	p.cycle(ctx)

	if len(fs.sent) != 2 {
		t.Fatalf("sent %d messages, want 2 (error then status)", len(fs.sent))
	}
	if fs.sent[0].kind != "error" || fs.sent[1].kind != "status" {
		t.Fatalf("unexpected kinds: %+v", fs.sent)
	}
	if got := p.Stats(); got.Errors != 1 || got.Sent != 1 {
		t.Fatalf("stats = %+v", got)
	}
}

func TestErrorReportDeliveryFailureRetriesNextCycle(t *testing.T) {
	t.Parallel()
	ff := &fakeFetcher{errs: []error{homework.ErrServiceUnavailable, homework.ErrServiceUnavailable}}
	fs := &fakeSender{failFor: 1}
	p := newTestPoller(ff, fs)
	ctx := context.Background()

	// First report fails to deliver; lastErr must not advance so the next
	// cycle retries it.
	p.cycle(ctx)
	if p.lastErr != "" {
		t.Fatalf("lastErr = %q after failed delivery, want empty", p.lastErr)
	}
	p.cycle(ctx)
	if len(fs.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(fs.sent))
	}
	if fs.sent[0].kind != "error" {
		t.Fatalf("kind = %q, want error", fs.sent[0].kind)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()
	empty := map[string]any{"homeworks": []any{}}
	ff := &fakeFetcher{payloads: []any{empty}}
	fs := &fakeSender{}

	beats := 0
	p := New(Config{
		Interval:  time.Millisecond,
		StartFrom: 1,
		Heartbeat: func() { beats++ },
	}, ff, fs, logx.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run err = %v, want deadline exceeded", err)
	}
	if beats == 0 {
		t.Fatal("heartbeat never fired")
	}
}

func TestSetInterval(t *testing.T) {
	t.Parallel()
	p := newTestPoller(&fakeFetcher{}, &fakeSender{})
	p.SetInterval(5 * time.Second)
	if got := p.currentInterval(); got != 5*time.Second {
		t.Fatalf("interval = %v, want 5s", got)
	}
	p.SetInterval(0) // ignored
	if got := p.currentInterval(); got != 5*time.Second {
		t.Fatalf("interval = %v after SetInterval(0), want 5s", got)
	}
}
