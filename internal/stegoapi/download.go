package stegoapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
)

// ResolveURL resolves a download locator against the server base URL.
// Absolute locators are returned unchanged.
func (c *Client) ResolveURL(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse download url: %w", err)
	}
	return c.base.ResolveReference(u).String(), nil
}

// Download fetches ref into dir and returns the written path. The name
// comes from Content-Disposition, then from the URL path.
func (c *Client) Download(ctx context.Context, ref, dir string) (string, error) {
	target, err := c.ResolveURL(ref)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.do(ctx, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", parseHTTPError(resp)
	}

	name := downloadName(resp, req.URL)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}
	dest := filepath.Join(dir, name)
	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", dest, err)
	}
	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dest)
		return "", fmt.Errorf("write %s: %w", dest, err)
	}
	c.log.Info("download saved", "path", dest, "bytes", n)
	return dest, nil
}

func downloadName(resp *http.Response, u *url.URL) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if n := safeName(params["filename"]); n != "" {
				return n
			}
		}
	}
	if n := safeName(path.Base(u.Path)); n != "" {
		return n
	}
	return "download"
}

// safeName keeps only the final element of a server-supplied name.
func safeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	switch name {
	case ".", "..", "/", "":
		return ""
	}
	return name
}

// parseHTTPError prefers the envelope's error text over the status line.
func parseHTTPError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var env envelope
	if json.Unmarshal(data, &env) == nil && env.Error != "" {
		return fmt.Errorf("%s: %w", env.Error, &StatusError{Code: resp.StatusCode, Status: resp.Status})
	}
	return &StatusError{Code: resp.StatusCode, Status: resp.Status}
}

// IsNotFound reports whether err is a 404 from the service.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

// Downloader follows download locators by saving them under Dir. It
// satisfies session.Navigator.
type Downloader struct {
	Client *Client
	Dir    string

	mu   sync.Mutex
	last string
}

// Navigate downloads ref.
func (d *Downloader) Navigate(ctx context.Context, ref string) error {
	p, err := d.Client.Download(ctx, ref, d.Dir)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.last = p
	d.mu.Unlock()
	return nil
}

// Last returns the path of the most recent successful download.
func (d *Downloader) Last() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}
