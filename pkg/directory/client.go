// Package directory talks to the Remote Directory Service, the REST API that
// owns students, classes, vaccines, drives and vaccination records.
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/vaxdrive-console/pkg/errors"
)

const (
	defaultTimeout = 15 * time.Second
	maxErrorBody   = 64 << 10
)

// Observer receives one observation per directory call.
type Observer interface {
	ObserveDirectoryCall(method, endpoint string, status int, duration time.Duration)
}

// Config wires a Client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Observer   Observer
	Logger     *zap.Logger
}

// Client issues JSON requests to the directory. It never retries; a failed
// call surfaces once to the caller.
type Client struct {
	baseURL  string
	http     *http.Client
	observer Observer
	logger   *zap.Logger
}

// Request describes one directory call.
type Request struct {
	Method string
	Path   string
	// Endpoint is the metrics label; it defaults to Path.
	Endpoint string
	Token    string
	Query    url.Values
	Body     interface{}
}

// New constructs a Client.
func New(cfg Config) *Client {
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		http:     client,
		observer: cfg.Observer,
		logger:   logger,
	}
}

// Do sends req and decodes a successful JSON response into out (when non-nil).
func (c *Client) Do(ctx context.Context, req Request, out interface{}) error {
	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode directory request")
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := c.newRequest(ctx, req, body)
	if err != nil {
		return err
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	return c.send(ctx, req, httpReq, out)
}

// Upload posts content as a multipart form file under field.
func (c *Client) Upload(ctx context.Context, req Request, field, filename string, content io.Reader, out interface{}) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build upload")
	}
	if _, err := io.Copy(part, content); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build upload")
	}
	if err := writer.Close(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build upload")
	}

	if req.Method == "" {
		req.Method = http.MethodPost
	}
	httpReq, err := c.newRequest(ctx, req, &buf)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	return c.send(ctx, req, httpReq, out)
}

func (c *Client) newRequest(ctx context.Context, req Request, body io.Reader) (*http.Request, error) {
	target := c.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build directory request")
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}
	return httpReq, nil
}

func (c *Client) send(ctx context.Context, req Request, httpReq *http.Request, out interface{}) error {
	endpoint := req.Endpoint
	if endpoint == "" {
		endpoint = req.Path
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	duration := time.Since(start)

	status := http.StatusServiceUnavailable
	if resp != nil {
		status = resp.StatusCode
	}
	if c.observer != nil {
		c.observer.ObserveDirectoryCall(req.Method, endpoint, status, duration)
	}

	if err != nil {
		return transportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Debug("directory rejected request",
			zap.String("method", req.Method),
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
		)
		return statusError(resp.StatusCode, raw)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return transportError(ctx, ctxErr)
		}
		return appErrors.WrapAs(err, appErrors.ErrDirectoryUnavailable, "directory returned an unreadable response")
	}
	return nil
}

func transportError(ctx context.Context, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return appErrors.WrapAs(err, appErrors.ErrRequestAbandoned, "")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return appErrors.WrapAs(err, appErrors.ErrDirectoryUnavailable, "directory service timed out")
	}
	return appErrors.WrapAs(err, appErrors.ErrDirectoryUnavailable, "")
}

// statusError maps a non-2xx response to the matching application error,
// carrying the directory's own message when it sent one.
func statusError(status int, raw []byte) error {
	message := remoteMessage(raw)
	cause := fmt.Errorf("directory responded %d", status)

	var template *appErrors.Error
	switch {
	case status == http.StatusUnauthorized:
		template = appErrors.ErrUnauthorized
	case status == http.StatusForbidden:
		template = appErrors.ErrForbidden
	case status == http.StatusNotFound:
		template = appErrors.ErrNotFound
	case status == http.StatusConflict:
		template = appErrors.ErrConflict
	case status >= http.StatusInternalServerError:
		template = appErrors.ErrDirectoryUnavailable
	default:
		template = appErrors.ErrDirectoryRejected
	}
	return appErrors.WrapAs(cause, template, message)
}

func remoteMessage(raw []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return ""
}
