// Package remote is the HTTP client of the listing API served by pkg/backend.
package remote

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/sgaunet/s2console/pkg/dto"
	"github.com/sgaunet/s2console/pkg/listing"
)

const (
	// ResourceBucket is the listing API resource for buckets.
	ResourceBucket = "bucket"
	// ResourceFile is the listing API resource for files in a bucket.
	ResourceFile = "file"

	defaultTimeout  = 10 * time.Second
	maxResponseSize = 16 << 20
)

var (
	// ErrInvalidBaseURL is returned when the backend URL cannot be used.
	ErrInvalidBaseURL = errors.New("invalid backend URL")
	// ErrMissingResult is returned when a successful envelope has no result.
	ErrMissingResult = errors.New("response has no result")
	// ErrNotEnvelope is returned when the response body is not a JSON object.
	ErrNotEnvelope = errors.New("response is not a listing envelope")
	// ErrInvalidPage is returned when the echoed page window is impossible.
	ErrInvalidPage = errors.New("invalid page in response")
)

// Options configure a Client.
type Options struct {
	BaseURL  string
	User     string
	Password string
	Timeout  time.Duration
	// Insecure skips TLS certificate verification.
	Insecure bool
}

// Client calls the listing API.
type Client struct {
	baseURL  *url.URL
	user     string
	password string
	http     *http.Client
	log      *slog.Logger
}

// New creates a client for the backend at opts.BaseURL.
func New(opts Options) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme must be http or https, got %q", ErrInvalidBaseURL, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidBaseURL)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.Insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for self-signed backends
	}

	return &Client{
		baseURL:  u,
		user:     opts.User,
		password: opts.Password,
		http:     &http.Client{Timeout: timeout, Transport: transport},
		log:      slog.New(slog.DiscardHandler),
	}, nil
}

// SetLogger sets the logger for the client
func (c *Client) SetLogger(log *slog.Logger) {
	c.log = log
}

// BucketPage fetches one page of buckets.
func (c *Client) BucketPage(ctx context.Context, req dto.PageRequest) (dto.BucketPage, error) {
	return pageList[dto.BucketPage](ctx, c, ResourceBucket, req)
}

// FilePage fetches one page of files of req.Bucket.
func (c *Client) FilePage(ctx context.Context, req dto.PageRequest) (dto.FilePage, error) {
	return pageList[dto.FilePage](ctx, c, ResourceFile, req)
}

// Buckets returns the bucket fetcher for a listing controller.
func (c *Client) Buckets() listing.Fetcher[dto.Bucket] {
	return listing.FetcherFunc[dto.Bucket](func(ctx context.Context, q listing.Query) (listing.Page[dto.Bucket], error) {
		p, err := c.BucketPage(ctx, dto.PageRequest{Limit: q.Limit, Offset: q.Offset, Pattern: q.Pattern})
		if err != nil {
			return listing.Page[dto.Bucket]{}, err
		}
		return listing.Page[dto.Bucket]{
			Items:  p.Buckets,
			Total:  p.Total,
			Offset: p.Offset,
			Limit:  p.Limit,
		}, nil
	})
}

// Files returns the file fetcher for a listing controller. The query scope is
// the bucket name.
func (c *Client) Files() listing.Fetcher[dto.File] {
	return listing.FetcherFunc[dto.File](func(ctx context.Context, q listing.Query) (listing.Page[dto.File], error) {
		p, err := c.FilePage(ctx, dto.PageRequest{Limit: q.Limit, Offset: q.Offset, Pattern: q.Pattern, Bucket: q.Scope})
		if err != nil {
			return listing.Page[dto.File]{}, err
		}
		return listing.Page[dto.File]{
			Items:  p.Files,
			Total:  p.Total,
			Offset: p.Offset,
			Limit:  p.Limit,
			Scope:  p.Bucket,
		}, nil
	})
}

// Ping calls the hello endpoint of the backend.
func (c *Client) Ping(ctx context.Context) error {
	op := "hello"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("hello"), nil)
	if err != nil {
		return &listing.TransportError{Op: op, Err: err}
	}
	var env dto.Response[struct{}]
	if err := c.do(req, op, &env); err != nil {
		return err
	}
	if env.Failed() {
		return &listing.ApplicationError{Op: op, Message: env.Message}
	}
	return nil
}

// page is the constraint of the result types of a pagelist call.
type page interface {
	dto.BucketPage | dto.FilePage
}

func pageList[P page](ctx context.Context, c *Client, resource string, pr dto.PageRequest) (P, error) {
	var zero P
	op := resource + " pagelist"

	body, err := json.Marshal(pr)
	if err != nil {
		return zero, &listing.TransportError{Op: op, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(resource, "pagelist"), bytes.NewReader(body))
	if err != nil {
		return zero, &listing.TransportError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	var env dto.Response[P]
	if err := c.do(req, op, &env); err != nil {
		return zero, err
	}
	if env.Failed() {
		return zero, &listing.ApplicationError{Op: op, Message: env.Message}
	}
	if env.Result == nil {
		return zero, &listing.ApplicationError{Op: op, Message: ErrMissingResult.Error()}
	}
	if err := validatePage(*env.Result); err != nil {
		return zero, &listing.ApplicationError{Op: op, Message: err.Error()}
	}
	return *env.Result, nil
}

// do sends req and decodes the envelope into out. A response whose body is
// not a JSON object is a transport failure whatever its status code.
func (c *Client) do(req *http.Request, op string, out any) error {
	if c.user != "" {
		req.SetBasicAuth(c.user, c.password)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &listing.TransportError{Op: op, Err: err}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.log.Debug("Failed to close response body", slog.String("error", closeErr.Error()))
		}
	}()

	c.log.Debug("Listing API call",
		slog.String("op", op),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)))

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return &listing.TransportError{Op: op, Err: err}
	}
	if err := decodeEnvelope(data, out); err != nil {
		return &listing.TransportError{Op: op, Err: fmt.Errorf("status %d: %w", resp.StatusCode, err)}
	}
	return nil
}

// decodeEnvelope decodes a JSON object into out. An object whose error field
// is null or absent is a successful envelope; anything that is not a JSON
// object is rejected.
func decodeEnvelope(data []byte, out any) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("cannot decode response: %w", err)
	}
	if fields == nil {
		return ErrNotEnvelope
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("cannot decode response: %w", err)
	}
	return nil
}

func validatePage[P page](p P) error {
	var total, offset, limit int
	switch v := any(p).(type) {
	case dto.BucketPage:
		total, offset, limit = v.Total, v.Offset, v.Limit
	case dto.FilePage:
		total, offset, limit = v.Total, v.Offset, v.Limit
	}
	switch {
	case limit <= 0:
		return fmt.Errorf("%w: limit %d", ErrInvalidPage, limit)
	case offset < 0:
		return fmt.Errorf("%w: offset %d", ErrInvalidPage, offset)
	case total < 0:
		return fmt.Errorf("%w: total %d", ErrInvalidPage, total)
	}
	return nil
}

func (c *Client) endpoint(parts ...string) string {
	return c.baseURL.JoinPath(append([]string{"api", "v1"}, parts...)...).String()
}
