package solr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/solrq/internal/domain"
	"github.com/kailas-cloud/solrq/internal/domain/query"
	"github.com/kailas-cloud/solrq/internal/domain/search/request"
	"github.com/kailas-cloud/solrq/internal/metrics"
	"github.com/kailas-cloud/solrq/internal/version"
)

// Client defaults.
const (
	DefaultMaxGetURLLength = 2048
	DefaultTimeout         = 10 * time.Second
	maxErrorBody           = 512
)

// RequestIDHeader carries the per-request id to the search service logs.
const RequestIDHeader = "X-Request-ID"

// Client talks to one search core over HTTP.
type Client struct {
	http            *http.Client
	baseURL         string
	maxGetURLLength int
	logger          *zap.Logger
}

// Config holds the search service connection settings.
type Config struct {
	// BaseURL is the server root, e.g. http://localhost:8983/solr.
	BaseURL string
	// Core is appended to BaseURL when set.
	Core            string
	Timeout         time.Duration
	MaxGetURLLength int
	HTTPClient      *http.Client
	Logger          *zap.Logger
}

// NewClient creates a search service client.
func NewClient(cfg *Config) (*Client, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid search service url %q", cfg.BaseURL)
	}
	if cfg.Core != "" {
		base += "/" + url.PathEscape(cfg.Core)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	maxLen := cfg.MaxGetURLLength
	if maxLen <= 0 {
		maxLen = DefaultMaxGetURLLength
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{http: hc, baseURL: base, maxGetURLLength: maxLen, logger: logger}, nil
}

// BaseURL returns the core URL requests are sent to.
func (c *Client) BaseURL() string { return c.baseURL }

// Select runs a search. Short requests are sent as GET; requests whose URL would
// exceed the configured maximum are sent as a form POST.
func (c *Client) Select(ctx context.Context, params url.Values) (*Response, error) {
	encoded := params.Encode()
	target := c.baseURL + "/select"

	var (
		req *http.Request
		err error
	)
	if len(target)+1+len(encoded) <= c.maxGetURLLength {
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, target+"?"+encoded, http.NoBody)
	} else {
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(encoded))
		if req != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return nil, fmt.Errorf("build select request: %w", err)
	}

	body, err := c.do(req, "select")
	if err != nil {
		return nil, err
	}

	resp, err := decodeResponse(body)
	if err != nil {
		metrics.SolrErrorsTotal.WithLabelValues("select", "decode").Inc()
		return nil, fmt.Errorf("decode select response: %w: %w", domain.ErrUpstream, err)
	}
	if resp.Response != nil {
		metrics.SolrResultsFound.Observe(float64(resp.Response.NumFound))
	}
	return resp, nil
}

// DeleteByQuery deletes every document matching q and commits.
func (c *Client) DeleteByQuery(ctx context.Context, q query.Query) error {
	body, err := request.DeleteQuery(q)
	if err != nil {
		return err
	}
	return c.update(ctx, body)
}

// DeleteAll deletes every document in the core and commits.
func (c *Client) DeleteAll(ctx context.Context) error {
	return c.update(ctx, request.DeleteAll())
}

func (c *Client) update(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/update?commit=true&wt=json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build update request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	_, err = c.do(req, "update")
	return err
}

// Ping checks that the core answers its ping handler.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/admin/ping?wt=json", http.NoBody)
	if err != nil {
		return fmt.Errorf("build ping request: %w", err)
	}
	body, err := c.do(req, "ping")
	if err != nil {
		return err
	}
	var parsed struct {
		Status string `json:"status"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Status != "" && !strings.EqualFold(parsed.Status, "OK") {
		return fmt.Errorf("ping status %q: %w", parsed.Status, domain.ErrUpstream)
	}
	return nil
}

// do sends req and returns the body of a 200 response. Metrics and logs are
// recorded per operation.
func (c *Client) do(req *http.Request, op string) ([]byte, error) {
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	start := time.Now()
	resp, err := c.http.Do(req)
	duration := time.Since(start)
	metrics.SolrRequestDuration.WithLabelValues(op).Observe(duration.Seconds())

	if err != nil {
		metrics.SolrRequestsTotal.WithLabelValues(op, req.Method, "error").Inc()
		metrics.SolrErrorsTotal.WithLabelValues(op, "transport").Inc()
		c.logger.Warn("search request failed",
			zap.String("op", op),
			zap.String("method", req.Method),
			zap.String("request_id", requestID),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s: %w", op, ctxErr)
		}
		return nil, fmt.Errorf("%s request failed: %w: %w", op, domain.ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	status := strconv.Itoa(resp.StatusCode)
	metrics.SolrRequestsTotal.WithLabelValues(op, req.Method, status).Inc()
	if err != nil {
		metrics.SolrErrorsTotal.WithLabelValues(op, "read").Inc()
		return nil, fmt.Errorf("read %s response: %w: %w", op, domain.ErrUpstream, err)
	}

	c.logger.Debug("search request",
		zap.String("op", op),
		zap.String("method", req.Method),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", requestID),
		zap.Duration("duration", duration),
	)

	if resp.StatusCode != http.StatusOK {
		metrics.SolrErrorsTotal.WithLabelValues(op, "status").Inc()
		return nil, newStatusError(op, resp.StatusCode, body)
	}
	return body, nil
}

// StatusError is a non-200 answer from the search service. It wraps domain.ErrUpstream.
type StatusError struct {
	Op      string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: search service returned %d", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: search service returned %d: %s", e.Op, e.Code, e.Message)
}

func (e *StatusError) Unwrap() error { return domain.ErrUpstream }

func newStatusError(op string, code int, body []byte) *StatusError {
	return &StatusError{Op: op, Code: code, Message: extractMessage(body)}
}

// extractMessage pulls error.msg out of a JSON error body, falling back to the
// start of the raw body.
func extractMessage(body []byte) string {
	var parsed struct {
		Error struct {
			Msg string `json:"msg"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Error.Msg != "" {
		return parsed.Error.Msg
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorBody {
		n := maxErrorBody
		for n > 0 && !utf8.RuneStart(msg[n]) {
			n--
		}
		msg = msg[:n]
	}
	return msg
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}
