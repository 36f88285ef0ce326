// Package stegoapi talks to the remote steganography service: multipart
// embed and extract requests, the JSON result envelope, and downloads of
// the produced files.
package stegoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/interpretive-systems/peekaboo/internal/logging"
	"github.com/interpretive-systems/peekaboo/internal/session"
)

// maxEnvelopeBytes bounds a decoded response. Inline previews are base64
// copies of images up to the service's 25 MiB cap.
const maxEnvelopeBytes = 64 << 20

const defaultUserAgent = "peekaboo"

// ErrMalformedResponse is returned when a response carries no usable envelope.
var ErrMalformedResponse = errors.New("malformed service response")

// StatusError is a non-2xx response that did not carry an envelope.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("service returned %s", e.Status)
}

// envelope is the service's response body for both operations.
type envelope struct {
	OK          *bool  `json:"ok"`
	DownloadURL string `json:"download_url,omitempty"`
	Preview     string `json:"preview,omitempty"`
	Error       string `json:"error,omitempty"`
	FileID      string `json:"file_id,omitempty"`
}

// Client is an HTTP client for the service. It implements session.Remote.
type Client struct {
	base      *url.URL
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
	log       logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds every request, upload and response included.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithRateLimit allows at most perSecond requests per second with the given
// burst. Zero disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithLogger sets the client logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a client for the service at server, an absolute http(s) URL.
func New(server string, opts ...Option) (*Client, error) {
	u, err := url.Parse(server)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("server url %q must be absolute http(s)", server)
	}
	c := &Client{
		base:      u,
		http:      &http.Client{},
		userAgent: defaultUserAgent,
		log:       logging.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Server returns the base URL.
func (c *Client) Server() string {
	return c.base.String()
}

// Send performs req. It satisfies session.Remote.
func (c *Client) Send(ctx context.Context, req *session.Request) (session.Result, error) {
	switch req.Op {
	case session.OpEmbed:
		return c.Embed(ctx, req.Cover, req.Payload, req.SecretKey)
	case session.OpExtract:
		return c.Extract(ctx, req.Stego, req.SecretKey)
	default:
		return session.Result{}, fmt.Errorf("unsupported operation %v", req.Op)
	}
}

// Embed hides original inside cover.
func (c *Client) Embed(ctx context.Context, original, cover *session.PendingFile, secretKey string) (session.Result, error) {
	return c.post(ctx, EmbedEndpoint, []filePart{
		{field: fieldOriginal, file: original},
		{field: fieldCover, file: cover},
	}, secretKey)
}

// Extract recovers the image hidden in stego.
func (c *Client) Extract(ctx context.Context, stego *session.PendingFile, secretKey string) (session.Result, error) {
	return c.post(ctx, ExtractEndpoint, []filePart{
		{field: fieldStego, file: stego},
	}, secretKey)
}

type filePart struct {
	field string
	file  *session.PendingFile
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func encodeForm(parts []filePart, secretKey string) (*bytes.Buffer, string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, p := range parts {
		if p.file == nil {
			return nil, "", fmt.Errorf("missing %s file", p.field)
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(p.field), quoteEscaper.Replace(p.file.Name)))
		ct := p.file.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		pw, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := pw.Write(p.file.Data); err != nil {
			return nil, "", err
		}
	}
	if err := w.WriteField(fieldSecretKey, secretKey); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &body, w.FormDataContentType(), nil
}

func (c *Client) post(ctx context.Context, ep Endpoint, parts []filePart, secretKey string) (session.Result, error) {
	body, contentType, err := encodeForm(parts, secretKey)
	if err != nil {
		return session.Result{}, fmt.Errorf("encode %s form: %w", ep, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.Format(c.Server()), body)
	if err != nil {
		return session.Result{}, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.do(ctx, req)
	if err != nil {
		return session.Result{}, err
	}
	defer resp.Body.Close()
	c.log.Debug("service responded", "endpoint", string(ep), "status", resp.StatusCode,
		"elapsed", time.Since(start).Round(time.Millisecond))
	return decodeResult(resp)
}

func (c *Client) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	return resp, nil
}

// decodeResult reads the envelope. A decodable envelope wins over the
// status code, so 4xx failure envelopes become unsuccessful Results.
func decodeResult(resp *http.Response) (session.Result, error) {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxEnvelopeBytes))
	if err != nil {
		return session.Result{}, fmt.Errorf("read response: %w", err)
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil || env.OK == nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return session.Result{}, &StatusError{Code: resp.StatusCode, Status: resp.Status}
		}
		if err != nil {
			return session.Result{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		return session.Result{}, fmt.Errorf("%w: missing ok", ErrMalformedResponse)
	}
	return session.Result{
		OK:          *env.OK,
		DownloadURL: env.DownloadURL,
		Preview:     env.Preview,
		Message:     env.Error,
		FileID:      env.FileID,
	}, nil
}
