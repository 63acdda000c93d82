package homework

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"hwbot/pkg/logx"
)

func TestFetchOK(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "OAuth sekret" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.URL.Query().Get("from_date"); got != "1000" {
			t.Errorf("from_date = %q", got)
		}
		w.Write([]byte(`{"homeworks":[{"homework_name":"X","status":"approved"}],"current_date":2000}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sekret", logx.Nop())
	payload, err := c.Fetch(context.Background(), 1000)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	subs, err := Validate(payload)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("expected 1 submission, got %d", len(subs))
	}
	if got := CurrentDate(payload, 0); got != 2000 {
		t.Fatalf("CurrentDate = %d, want 2000", got)
	}
}

func TestFetchNon200(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "t", logx.Nop())
	_, err := c.Fetch(context.Background(), 0)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("Fetch err = %v, want *StatusError", err)
	}
	if se.Code != http.StatusInternalServerError {
		t.Fatalf("Code = %d, want 500", se.Code)
	}
}

func TestFetchMalformedBody(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "t", logx.Nop())
	if _, err := c.Fetch(context.Background(), 0); !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("Fetch err = %v, want ErrMalformedResponse", err)
	}
}

func TestFetchTransportFailure(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := NewClient(srv.URL, "t", logx.Nop())
	if _, err := c.Fetch(context.Background(), 0); !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("Fetch err = %v, want ErrServiceUnavailable", err)
	}
}
