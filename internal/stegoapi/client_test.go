package stegoapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interpretive-systems/peekaboo/internal/session"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, opts...)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func file(name, ct, data string) *session.PendingFile {
	return &session.PendingFile{Name: name, ContentType: ct, Data: []byte(data)}
}

func TestNew_RejectsRelativeServer(t *testing.T) {
	for _, s := range []string{"", "localhost:5000", "/api", "ftp://host"} {
		_, err := New(s)
		assert.Error(t, err, s)
	}
}

func TestEmbed_SendsMultipartFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/encrypt", r.URL.Path)
		assert.Equal(t, "peekaboo", r.UserAgent())
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}

		orig, oh, err := r.FormFile("original")
		if !assert.NoError(t, err) {
			return
		}
		b, _ := io.ReadAll(orig)
		assert.Equal(t, "AAA", string(b))
		assert.Equal(t, "a.png", oh.Filename)
		assert.Equal(t, "image/png", oh.Header.Get("Content-Type"))

		_, ch, err := r.FormFile("cover")
		if !assert.NoError(t, err) {
			return
		}
		assert.Equal(t, "b.jpg", ch.Filename)
		assert.Equal(t, "image/jpeg", ch.Header.Get("Content-Type"))

		assert.Equal(t, "k1", r.FormValue("secret_key"))
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":           true,
			"file_id":      "abc",
			"download_url": "/download/abc",
			"preview":      "data:image/png;base64,AAA=",
		})
	})

	res, err := c.Embed(context.Background(), file("a.png", "image/png", "AAA"), file("b.jpg", "image/jpeg", "BBB"), "k1")
	require.NoError(t, err)
	assert.Equal(t, session.Result{
		OK:          true,
		DownloadURL: "/download/abc",
		Preview:     "data:image/png;base64,AAA=",
		FileID:      "abc",
	}, res)
}

func TestSend_RoutesByOperation(t *testing.T) {
	var path atomic.Value
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path.Store(r.URL.Path)
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		_, _, err := r.FormFile("stego")
		assert.NoError(t, err)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	res, err := c.Send(context.Background(), &session.Request{
		Op:        session.OpExtract,
		Stego:     file("s.png", "image/png", "S"),
		SecretKey: "k",
	})
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, "/api/decrypt", path.Load())
}

func TestFailureEnvelopeWinsOverStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"ok": false, "error": "bad key"})
	})

	res, err := c.Extract(context.Background(), file("s.png", "image/png", "S"), "k")
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, "bad key", res.Message)
}

func TestNonJSONErrorIsStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})

	_, err := c.Extract(context.Background(), file("s.png", "image/png", "S"), "k")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.Code)
}

func TestMalformedSuccessBody(t *testing.T) {
	cases := map[string]string{
		"not json":   "<html>hi</html>",
		"missing ok": `{"download_url":"/download/1"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, body)
			})
			_, err := c.Extract(context.Background(), file("s.png", "image/png", "S"), "k")
			require.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestMissingFileIsLocalError(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
	})
	_, err := c.Embed(context.Background(), nil, file("b.png", "image/png", "B"), "k")
	require.Error(t, err)
	assert.Zero(t, hits.Load())
}

func TestContextCancelAbortsRequest(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Extract(ctx, file("s.png", "image/png", "S"), "k")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestRateLimitHonoursContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}, WithRateLimit(0.001, 1))

	_, err := c.Extract(context.Background(), file("s.png", "image/png", "S"), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Extract(ctx, file("s.png", "image/png", "S"), "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}

func TestSessionRunAgainstService(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "download_url": "/download/xyz"})
	})
	s := session.New(c)
	defer s.Close()
	s.Start()
	require.NoError(t, s.Stage(session.SlotCover, file("a.png", "image/png", "A")))
	require.NoError(t, s.Stage(session.SlotPayload, file("b.png", "image/png", "B")))

	_, err := s.Run(context.Background(), session.OpEmbed, " k ")
	require.NoError(t, err)
	u, ok := s.DownloadTarget()
	require.True(t, ok)
	assert.Equal(t, "/download/xyz", u)
}

func TestDownload_UsesContentDisposition(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/download/abc", r.URL.Path)
		w.Header().Set("Content-Disposition", `attachment; filename="stego-abc.png"`)
		_, _ = io.WriteString(w, "PNGDATA")
	})
	dir := t.TempDir()

	p, err := c.Download(context.Background(), "/download/abc", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "stego-abc.png"), p)
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "PNGDATA", string(b))
}

func TestDownload_StripsTraversal(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="../../etc/evil.png"`)
		_, _ = io.WriteString(w, "x")
	})
	dir := t.TempDir()
	p, err := c.Download(context.Background(), "/download/1", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "evil.png"), p)
}

func TestDownload_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	_, err := c.Download(context.Background(), "/download/gone", t.TempDir())
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestDownloader_AsNavigator(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "x")
	})
	d := &Downloader{Client: c, Dir: t.TempDir()}
	var nav session.Navigator = d
	require.NoError(t, nav.Navigate(context.Background(), "/download/extract-1.webp"))
	assert.Equal(t, filepath.Join(d.Dir, "extract-1.webp"), d.Last())
}

func TestResolveURL(t *testing.T) {
	c, err := New("http://stego.local:5000/")
	require.NoError(t, err)

	u, err := c.ResolveURL("/download/1")
	require.NoError(t, err)
	assert.Equal(t, "http://stego.local:5000/download/1", u)

	u, err = c.ResolveURL("https://cdn.example/x.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/x.png", u)

	assert.Equal(t, "http://stego.local:5000/api/encrypt", EmbedEndpoint.Format(c.Server()))
}
