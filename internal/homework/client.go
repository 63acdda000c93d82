// Package homework talks to the homework-review API: one GET endpoint, a
// shape check, and a fixed status-to-verdict mapping.
package homework

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"hwbot/pkg/logx"
)

const DefaultEndpoint = "https://practicum.yandex.ru/api/user_api/homework_statuses/"

// Client issues the single authenticated GET the bot needs.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
	log      logx.Logger
}

func NewClient(endpoint, token string, log logx.Logger) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{
		endpoint: endpoint,
		token:    token,
		http:     &http.Client{Timeout: 15 * time.Second},
		log:      log,
	}
}

// Fetch requests submissions updated since from (unix seconds) and returns
// the decoded payload unmodified. Shape checking is Validate's job.
func (c *Client) Fetch(ctx context.Context, from int64) (any, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: bad endpoint: %v", ErrServiceUnavailable, err)
	}
	q := u.Query()
	q.Set("from_date", strconv.FormatInt(from, 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	req.Header.Set("Authorization", "OAuth "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrServiceUnavailable, err)
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	c.log.Debug("homework api answered", logx.Int64("from_date", from))
	return payload, nil
}
