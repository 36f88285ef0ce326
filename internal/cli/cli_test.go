package cli

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeImage(t *testing.T, dir, name string) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(cfg, []byte("timeout: 5s\nrate_limit: 0\n"), 0o644))

	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append(args,
		"--config", cfg,
		"--env-file", filepath.Join(dir, "missing.env"),
		"--log-level", "error",
	))
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func writeEnvelope(w http.ResponseWriter, code int, v map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func TestEmbed_UploadsAndDownloads(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/encrypt":
			if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
				return
			}
			assert.Equal(t, "pw", r.FormValue("secret_key"))
			_, orig, err := r.FormFile("original")
			if assert.NoError(t, err) {
				assert.Equal(t, "orig.png", orig.Filename)
			}
			_, cover, err := r.FormFile("cover")
			if assert.NoError(t, err) {
				assert.Equal(t, "carrier.png", cover.Filename)
			}
			writeEnvelope(w, http.StatusOK, map[string]any{
				"ok": true, "file_id": "xyz", "download_url": "/download/xyz",
			})
		case "/download/xyz":
			w.Header().Set("Content-Disposition", `attachment; filename="stego-xyz.png"`)
			_, _ = w.Write([]byte("stego-bytes"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	in := t.TempDir()
	outDir := t.TempDir()
	stdout, _, err := runCLI(t, "",
		"embed",
		"--server", srv.URL+"/",
		"--out", outDir,
		"--cover", writeImage(t, in, "orig.png"),
		"--payload", writeImage(t, in, "carrier.png"),
		"--key", "pw",
	)
	require.NoError(t, err)

	saved := filepath.Join(outDir, "stego-xyz.png")
	assert.Contains(t, stdout, "embed complete")
	assert.Contains(t, stdout, "file id: xyz")
	assert.Contains(t, stdout, "saved "+saved)
	data, err := os.ReadFile(saved)
	require.NoError(t, err)
	assert.Equal(t, "stego-bytes", string(data))
}

func TestExtract_KeyFromStdinAndServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "/api/decrypt", r.URL.Path)
		assert.Equal(t, "from-stdin", r.FormValue("secret_key"))
		writeEnvelope(w, http.StatusUnprocessableEntity, map[string]any{
			"ok": false, "error": "No hidden image found with this key",
		})
	}))
	defer srv.Close()

	_, stderr, err := runCLI(t, "from-stdin\n",
		"extract",
		"--server", srv.URL,
		"--out", t.TempDir(),
		"--stego", writeImage(t, t.TempDir(), "s.png"),
	)
	require.Error(t, err)
	assert.True(t, IsReported(err))
	assert.Contains(t, stderr, "peekaboo: No hidden image found with this key")
}

func TestExtract_NoDownloadPrintsURL(t *testing.T) {
	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewGray(image.Rect(0, 0, 2, 2))))
	inline := "data:image/png;base64," + base64.StdEncoding.EncodeToString(img.Bytes())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, map[string]any{"ok": true, "download_url": "/download/abc", "preview": inline})
	}))
	defer srv.Close()

	stdout, _, err := runCLI(t, "",
		"extract",
		"--server", srv.URL,
		"--stego", writeImage(t, t.TempDir(), "s.png"),
		"--key", "k",
		"--no-download",
	)
	require.NoError(t, err)
	assert.Contains(t, stdout, "extract complete")
	assert.Contains(t, stdout, "download: "+srv.URL+"/download/abc")
	assert.Contains(t, stdout, "preview: image/png, ")
}

func TestEmbed_NonImageNeverReachesService(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	dir := t.TempDir()
	notes := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("plain text"), 0o644))

	_, stderr, err := runCLI(t, "",
		"embed",
		"--server", srv.URL,
		"--cover", notes,
		"--payload", writeImage(t, dir, "c.png"),
		"--key", "k",
	)
	require.Error(t, err)
	assert.True(t, IsReported(err))
	assert.Contains(t, stderr, "peekaboo: file must be a JPG/PNG image")
	assert.Zero(t, hits.Load())
}

func TestEmbed_BlankKeyIsLocal(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	dir := t.TempDir()
	_, stderr, err := runCLI(t, "   \n",
		"embed",
		"--server", srv.URL,
		"--cover", writeImage(t, dir, "o.png"),
		"--payload", writeImage(t, dir, "c.png"),
	)
	require.Error(t, err)
	assert.True(t, IsReported(err))
	assert.Contains(t, stderr, "peekaboo: secret key is required")
	assert.Zero(t, hits.Load())
}

func TestRoot_RejectsBadServer(t *testing.T) {
	_, _, err := runCLI(t, "",
		"extract",
		"--server", "ftp://example.com",
		"--stego", "x.png",
		"--key", "k",
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config")
}

func TestEmbed_RequiresFileFlags(t *testing.T) {
	_, _, err := runCLI(t, "", "embed", "--key", "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}
