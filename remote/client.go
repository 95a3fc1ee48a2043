// Package remote is the HTTP client for the parts marketplace API. It attaches the
// persisted bearer token to relative paths and turns failed responses into the
// notifications, session clearing and navigation the console expects.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/spares-console/internal/metrics"
	"github.com/jrsteele09/spares-console/notify"
	"github.com/jrsteele09/spares-console/storage"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	headerRequestID = "X-Request-ID"
	defaultTimeout  = 30 * time.Second
)

// API is the surface the stores call.
type API interface {
	Get(ctx context.Context, path string) (json.RawMessage, error)
	Post(ctx context.Context, path string, body any) (json.RawMessage, error)
	Put(ctx context.Context, path string, body any) (json.RawMessage, error)
	Delete(ctx context.Context, path string) (json.RawMessage, error)
	PostFile(ctx context.Context, path string, form *Form) (json.RawMessage, error)
	Download(ctx context.Context, path string, w io.Writer) (int64, error)
}

var _ API = (*Client)(nil)

// Navigator receives the redirect a failed response asks for.
type Navigator interface {
	Navigate(path string)
}

type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) {
	f(path)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	repo       storage.Repo
	notifier   notify.Notifier
	navigator  Navigator
	timeout    time.Duration

	unauthorized func(ctx context.Context)
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithNotifier(n notify.Notifier) Option {
	return func(c *Client) {
		c.notifier = n
	}
}

func WithNavigator(n Navigator) Option {
	return func(c *Client) {
		c.navigator = n
	}
}

// WithUnauthorized registers fn to run after a 401 has cleared the persisted session,
// so in-memory holders of the credentials can drop them too.
func WithUnauthorized(fn func(ctx context.Context)) Option {
	return func(c *Client) {
		c.unauthorized = fn
	}
}

// WithTimeout bounds every request. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// New creates a client for baseURL that reads the bearer token from repo.
func New(baseURL string, repo storage.Repo, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		repo:       repo,
		notifier:   notify.Discard,
		timeout:    defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.notifier = notify.OrDiscard(c.notifier)
	return c
}

func (c *Client) Get(ctx context.Context, path string) (json.RawMessage, error) {
	return c.request(ctx, http.MethodGet, path, nil)
}

func (c *Client) Post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.request(ctx, http.MethodPost, path, body)
}

func (c *Client) Put(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.request(ctx, http.MethodPut, path, body)
}

func (c *Client) Delete(ctx context.Context, path string) (json.RawMessage, error) {
	return c.request(ctx, http.MethodDelete, path, nil)
}

// FormFile is one file part of a multipart upload.
type FormFile struct {
	Field    string
	FileName string
	Content  io.Reader
}

// Form is a multipart upload body.
type Form struct {
	Fields map[string]string
	Files  []FormFile
}

func (f *Form) encode() (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	if f != nil {
		for k, v := range f.Fields {
			if err := mw.WriteField(k, v); err != nil {
				return nil, "", err
			}
		}
		for _, file := range f.Files {
			part, err := mw.CreateFormFile(file.Field, file.FileName)
			if err != nil {
				return nil, "", err
			}
			if _, err := io.Copy(part, file.Content); err != nil {
				return nil, "", err
			}
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf, mw.FormDataContentType(), nil
}

// PostFile uploads form as multipart/form-data. Failures use the file status table.
func (c *Client) PostFile(ctx context.Context, path string, form *Form) (json.RawMessage, error) {
	body, contentType, err := form.encode()
	if err != nil {
		return nil, fmt.Errorf("[Client PostFile] encode form: %w", err)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.send(ctx, http.MethodPost, path, body, contentType)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return c.readJSON(ctx, VariantFile, http.MethodPost, path, resp)
}

// Download streams a successful response body into w. Failures use the blob status
// table, where only 401, 403 and 404 navigate.
func (c *Client) Download(ctx context.Context, path string, w io.Writer) (int64, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.send(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if !ok(resp.StatusCode) {
		data, _ := io.ReadAll(resp.Body)
		return 0, c.fail(ctx, VariantBlob, http.MethodGet, path, resp, data)
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("[Client Download] copy %s: %w", path, err)
	}
	return n, nil
}

func (c *Client) request(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var (
		reader      io.Reader
		contentType string
	)
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("[Client request] encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.send(ctx, method, path, reader, contentType)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return c.readJSON(ctx, VariantJSON, method, path, resp)
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// isRelative reports whether path targets the configured API.
func isRelative(path string) bool {
	return strings.HasPrefix(path, "/")
}

func (c *Client) url(path string) string {
	if isRelative(path) {
		return c.baseURL + path
	}
	return path
}

func (c *Client) send(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return nil, fmt.Errorf("[Client send] build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerRequestID, uuid.NewString())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if err := c.authorize(ctx, req, path); err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		metrics.RecordRemoteRequest(method, 0, elapsed)
		log.Err(err).Str("method", method).Str("path", path).Msg("[Client send] request failed")
		return nil, fmt.Errorf("[Client send] %s %s: %w", method, path, err)
	}
	metrics.RecordRemoteRequest(method, resp.StatusCode, elapsed)
	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", elapsed).
		Str("request_id", req.Header.Get(headerRequestID)).
		Msg("remote request")
	return resp, nil
}

// authorize attaches the persisted token to relative paths only.
func (c *Client) authorize(ctx context.Context, req *http.Request, path string) error {
	if c.repo == nil || !isRelative(path) {
		return nil
	}
	token, err := storage.Token(ctx, c.repo)
	if err != nil {
		return fmt.Errorf("[Client authorize] %w", err)
	}
	if token == "" {
		return nil
	}
	(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
	return nil
}

func ok(status int) bool {
	return status >= 200 && status < 300
}

func (c *Client) readJSON(ctx context.Context, variant Variant, method, path string, resp *http.Response) (json.RawMessage, error) {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("[Client readJSON] read %s %s: %w", method, path, err)
	}
	if !ok(resp.StatusCode) {
		return nil, c.fail(ctx, variant, method, path, resp, data)
	}
	// a body that is not JSON reads as no data
	if len(bytes.TrimSpace(data)) == 0 || !json.Valid(data) {
		return nil, nil
	}
	return json.RawMessage(data), nil
}

func (c *Client) fail(ctx context.Context, variant Variant, method, path string, resp *http.Response, data []byte) error {
	he := NewHTTPError(variant, method, path, resp.StatusCode, statusText(resp), data)
	c.apply(ctx, he.Outcome)
	return he
}

func statusText(resp *http.Response) string {
	// resp.Status is "404 Not Found"
	if _, text, found := strings.Cut(resp.Status, " "); found && text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

func (c *Client) apply(ctx context.Context, o Outcome) {
	if o.ClearSession {
		if c.repo != nil {
			if err := storage.Clear(context.WithoutCancel(ctx), c.repo); err != nil {
				log.Err(err).Msg("[Client apply] failed to clear persisted session")
			}
		}
		if c.unauthorized != nil {
			c.unauthorized(ctx)
		}
	}
	if o.Notification != nil {
		c.notifier.Notify(*o.Notification)
	}
	if o.Redirect != "" && c.navigator != nil {
		c.navigator.Navigate(o.Redirect)
	}
}
