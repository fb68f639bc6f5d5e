package playstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	// DefaultBaseURL is the public Play Store origin
	DefaultBaseURL = "https://play.google.com"

	// MaxPageSize is the largest page the review RPC accepts
	MaxPageSize = 200

	userAgent = "ulasan/1.0 (review-collector)"
	maxBody   = 10 * 1024 * 1024
)

// Sort selects the review ordering
type Sort int

const (
	MostRelevant Sort = 1
	Newest       Sort = 2
	Rating       Sort = 3
)

// ParseSort maps a flag value to a Sort
func ParseSort(s string) (Sort, error) {
	switch strings.ToLower(s) {
	case "newest", "":
		return Newest, nil
	case "most_relevant", "relevant":
		return MostRelevant, nil
	case "rating":
		return Rating, nil
	}
	return 0, fmt.Errorf("unknown sort order: %s", s)
}

func (s Sort) String() string {
	switch s {
	case MostRelevant:
		return "most_relevant"
	case Rating:
		return "rating"
	}
	return "newest"
}

// Client talks to the Play Store web endpoints
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL points the client at another origin
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a Client
func New(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "http request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("HTTP %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	return body, nil
}

func (c *Client) post(ctx context.Context, path string, query url.Values, form url.Values) ([]byte, error) {
	u := c.baseURL + path + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=UTF-8")
	return c.do(req)
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := c.baseURL + path + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	return c.do(req)
}

// jsonString quotes s as a JSON string literal
func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
