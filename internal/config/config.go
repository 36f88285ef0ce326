// Package config resolves runtime settings from defaults, a YAML file,
// a .env file, PEEKABOO_* environment variables and command-line flags,
// in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const (
	appDir         = "peekaboo"
	configFileName = "config.yml"
	envPrefix      = "PEEKABOO_"
)

// Config holds client settings.
type Config struct {
	Server         string        `yaml:"server,omitempty"`
	Timeout        time.Duration `yaml:"timeout,omitempty"`
	DownloadDir    string        `yaml:"download_dir,omitempty"`
	LogFile        string        `yaml:"log_file,omitempty"`
	LogLevel       string        `yaml:"log_level,omitempty"`
	RateLimit      float64       `yaml:"rate_limit,omitempty"`
	ColoredPreview bool          `yaml:"colored_preview"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Server:         "http://127.0.0.1:5000",
		Timeout:        60 * time.Second,
		DownloadDir:    ".",
		LogLevel:       "info",
		RateLimit:      2,
		ColoredPreview: true,
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/peekaboo/config.yml or the
// platform equivalent.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDir, configFileName), nil
}

// Sources names where Load looks. Empty fields use the defaults.
type Sources struct {
	// File is an explicit config path; a missing explicit file is an error.
	File string
	// EnvFile defaults to ".env" in the working directory.
	EnvFile string
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Load builds a Config from every source except flags.
func Load(src Sources) (Config, error) {
	cfg := Default()

	path, explicit := src.File, src.File != ""
	if !explicit {
		if p, err := DefaultPath(); err == nil {
			path = p
		}
	}
	if path != "" {
		if err := readFile(path, &cfg); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return cfg, err
			}
		}
	}

	envFile := src.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	dotenv, err := godotenv.Read(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("read %s: %w", envFile, err)
	}

	lookup := src.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(key string) (string, bool) {
		if v, ok := lookup(envPrefix + key); ok {
			return strings.TrimSpace(v), true
		}
		v, ok := dotenv[envPrefix+key]
		return strings.TrimSpace(v), ok
	}
	if err := cfg.applyEnv(get); err != nil {
		return cfg, err
	}
	cfg.normalize()
	return cfg, nil
}

func readFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(get func(string) (string, bool)) error {
	if v, ok := get("SERVER"); ok {
		c.Server = v
	}
	if v, ok := get("TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sTIMEOUT: %w", envPrefix, err)
		}
		c.Timeout = d
	}
	if v, ok := get("DOWNLOAD_DIR"); ok {
		c.DownloadDir = v
	}
	if v, ok := get("LOG_FILE"); ok {
		c.LogFile = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := get("RATE_LIMIT"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sRATE_LIMIT: %w", envPrefix, err)
		}
		c.RateLimit = f
	}
	if v, ok := get("COLORED_PREVIEW"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sCOLORED_PREVIEW: %w", envPrefix, err)
		}
		c.ColoredPreview = b
	}
	return nil
}

func (c *Config) normalize() {
	c.Server = strings.TrimSuffix(strings.TrimSpace(c.Server), "/")
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
}

// Flag names shared by every command.
const (
	FlagServer      = "server"
	FlagTimeout     = "timeout"
	FlagDownloadDir = "out"
	FlagLogFile     = "log-file"
	FlagLogLevel    = "log-level"
	FlagRateLimit   = "rate-limit"
	FlagNoColor     = "no-color"
)

// BindFlags registers the overridable settings on fs.
func BindFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String(FlagServer, d.Server, "Steganography service base URL")
	fs.Duration(FlagTimeout, d.Timeout, "Per-request timeout")
	fs.String(FlagDownloadDir, d.DownloadDir, "Directory results are downloaded into")
	fs.String(FlagLogFile, "", "Write logs to this file")
	fs.String(FlagLogLevel, d.LogLevel, "Log level (debug, info, warn, error)")
	fs.Float64(FlagRateLimit, d.RateLimit, "Max requests per second (0 disables)")
	fs.Bool(FlagNoColor, false, "Render previews without color")
}

// ApplyFlags overlays flags that were set explicitly on the command line.
func (c *Config) ApplyFlags(fs *pflag.FlagSet) error {
	var err error
	set := func(name string, apply func()) {
		if err == nil && fs.Changed(name) {
			apply()
		}
	}
	set(FlagServer, func() { c.Server, err = fs.GetString(FlagServer) })
	set(FlagTimeout, func() { c.Timeout, err = fs.GetDuration(FlagTimeout) })
	set(FlagDownloadDir, func() { c.DownloadDir, err = fs.GetString(FlagDownloadDir) })
	set(FlagLogFile, func() { c.LogFile, err = fs.GetString(FlagLogFile) })
	set(FlagLogLevel, func() { c.LogLevel, err = fs.GetString(FlagLogLevel) })
	set(FlagRateLimit, func() { c.RateLimit, err = fs.GetFloat64(FlagRateLimit) })
	set(FlagNoColor, func() {
		var off bool
		off, err = fs.GetBool(FlagNoColor)
		c.ColoredPreview = !off
	})
	if err != nil {
		return err
	}
	c.normalize()
	return nil
}

// Validate checks the resolved settings.
func (c Config) Validate() error {
	u, err := url.Parse(c.Server)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server %q must be an absolute http(s) url", c.Server)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate limit must not be negative, got %v", c.RateLimit)
	}
	if strings.TrimSpace(c.DownloadDir) == "" {
		return errors.New("download dir must not be empty")
	}
	return nil
}
