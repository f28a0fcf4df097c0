package cwp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// DefaultEndpointPath is where the server exposes the fmresultset
// grammar.
const DefaultEndpointPath = "/fmi/xml/fmresultset.xml"

// Client runs queries against one record server endpoint over HTTP with
// basic authentication. A Client is safe for concurrent use; it holds no
// per-request state.
type Client struct {
	endpoint string
	username string
	password string
	httpc    *http.Client
	logger   *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, for custom TLS
// configuration or transports.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpc = hc }
}

// WithLogger replaces the client's logger. The default discards nothing:
// it is slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithTimeout sets the HTTP client timeout. Per-request deadlines via
// context still apply.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpc.Timeout = d
	}
}

// NewClient builds a client for the server at rawurl. A URL without a
// path gets the default fmresultset endpoint path; a URL without a
// scheme defaults to http.
func NewClient(rawurl, username, password string, opts ...Option) (*Client, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme == "" {
		u.Scheme = "http"
	}
	if u.Host == "" {
		return nil, fmt.Errorf("server url %q has no host", rawurl)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = DefaultEndpointPath
	}
	u.RawQuery = ""
	u.Fragment = ""

	c := &Client{
		endpoint: u.String(),
		username: username,
		password: password,
		httpc:    &http.Client{Timeout: 10 * time.Second},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint returns the resolved endpoint URL the client requests.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Do encodes and runs one query, returning the parsed result. Server
// errors surface as *Error; use IsNotFound to treat "no records match"
// as an empty result.
func (c *Client) Do(ctx context.Context, q *Query) (*Result, error) {
	encoded, err := q.Encode()
	if err != nil {
		return nil, err
	}

	token := uuid.Must(uuid.NewV7()).String()
	c.logger.Debug("cwp request", "token", token, "command", q.Command)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+encoded, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", q.Command, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("cwp response", "token", token, "status", resp.StatusCode)
		return nil, fmt.Errorf("%s request: unexpected status %s", q.Command, resp.Status)
	}

	result, err := ParseResult(resp.Body)
	if err != nil {
		c.logger.Debug("cwp response", "token", token, "err", err)
		return nil, err
	}

	c.logger.Debug("cwp response", "token", token, "records", len(result.Records), "found", result.FoundCount)
	return result, nil
}

// DatabaseNames lists the databases the server hosts.
func (c *Client) DatabaseNames(ctx context.Context) ([]string, error) {
	result, err := c.Do(ctx, NewQuery("-dbnames"))
	if err != nil {
		return nil, err
	}
	return collectField(result, "database_name"), nil
}

// LayoutNames lists the layouts of one database.
func (c *Client) LayoutNames(ctx context.Context, db string) ([]string, error) {
	q := NewQuery("-layoutnames")
	q.SetParam("-db", db)
	result, err := c.Do(ctx, q)
	if err != nil {
		return nil, err
	}
	return collectField(result, "layout_name"), nil
}

func collectField(result *Result, name string) []string {
	values := make([]string, 0, len(result.Records))
	for _, rec := range result.Records {
		if v, ok := rec.Field(name); ok {
			values = append(values, v)
		}
	}
	return values
}
