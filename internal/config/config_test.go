package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) (string, bool) { return "", false }

func mapEnv(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad_DefaultsWhenNothingPresent(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := Load(Sources{EnvFile: filepath.Join(t.TempDir(), ".env"), LookupEnv: noEnv})
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	require.NoError(t, cfg.Validate())
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	_, err := Load(Sources{File: filepath.Join(t.TempDir(), "nope.yml"), LookupEnv: noEnv})
	require.Error(t, err)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "config.yml", `
server: http://file.example:8000/
timeout: 15s
download_dir: /tmp/out
rate_limit: 5
colored_preview: false
`)
	env := writeFile(t, dir, ".env", "PEEKABOO_TIMEOUT=20s\nPEEKABOO_LOG_LEVEL=DEBUG\n")

	cfg, err := Load(Sources{
		File:      file,
		EnvFile:   env,
		LookupEnv: mapEnv(map[string]string{"PEEKABOO_TIMEOUT": "25s"}),
	})
	require.NoError(t, err)
	assert.Equal(t, "http://file.example:8000", cfg.Server)
	assert.Equal(t, 25*time.Second, cfg.Timeout, "process env beats .env")
	assert.Equal(t, "debug", cfg.LogLevel, ".env beats file and defaults")
	assert.Equal(t, "/tmp/out", cfg.DownloadDir)
	assert.Equal(t, 5.0, cfg.RateLimit)
	assert.False(t, cfg.ColoredPreview)

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"--server", "https://flag.example/", "--no-color=false"}))
	require.NoError(t, cfg.ApplyFlags(fs))
	assert.Equal(t, "https://flag.example", cfg.Server)
	assert.True(t, cfg.ColoredPreview)
	assert.Equal(t, 25*time.Second, cfg.Timeout, "unset flags keep loaded values")
}

func TestLoad_BadEnvValues(t *testing.T) {
	for _, key := range []string{"PEEKABOO_TIMEOUT", "PEEKABOO_RATE_LIMIT", "PEEKABOO_COLORED_PREVIEW"} {
		t.Run(key, func(t *testing.T) {
			_, err := Load(Sources{
				File:      writeFile(t, t.TempDir(), "c.yml", ""),
				EnvFile:   filepath.Join(t.TempDir(), ".env"),
				LookupEnv: mapEnv(map[string]string{key: "nonsense"}),
			})
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(Sources{File: writeFile(t, t.TempDir(), "c.yml", "server: [unterminated"), LookupEnv: noEnv})
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"https", func(c *Config) { c.Server = "https://stego.example" }, true},
		{"relative server", func(c *Config) { c.Server = "/api" }, false},
		{"no scheme", func(c *Config) { c.Server = "stego.example:5000" }, false},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, false},
		{"negative rate", func(c *Config) { c.RateLimit = -1 }, false},
		{"zero rate", func(c *Config) { c.RateLimit = 0 }, true},
		{"blank dir", func(c *Config) { c.DownloadDir = " " }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.mutate(&c)
			err := c.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
