package prefs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Prefs represents persisted UI preferences. Uploaded files are never
// persisted; only where the picker starts and how previews are drawn.
type Prefs struct {
	LastDir    string
	LastDirSet bool
	Colored    bool
	ColoredSet bool
}

type fileData struct {
	LastDir *string `yaml:"last_dir,omitempty"`
	Colored *bool   `yaml:"colored,omitempty"`
}

// DefaultPath returns the prefs file under the user config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "peekaboo", "prefs.yml"), nil
}

// Load reads preferences from path. Missing or unreadable files yield
// empty preferences.
func Load(path string) Prefs {
	var p Prefs
	d, err := read(path)
	if err != nil {
		return p
	}
	if d.LastDir != nil && *d.LastDir != "" {
		p.LastDirSet = true
		p.LastDir = *d.LastDir
	}
	if d.Colored != nil {
		p.ColoredSet = true
		p.Colored = *d.Colored
	}
	return p
}

// SaveLastDir persists the file picker's directory.
func SaveLastDir(path, dir string) error {
	if dir == "" {
		return fmt.Errorf("invalid last dir: %q", dir)
	}
	return update(path, func(d *fileData) { d.LastDir = &dir })
}

// SaveColored persists the colored-preview toggle.
func SaveColored(path string, v bool) error {
	return update(path, func(d *fileData) { d.Colored = &v })
}

func read(path string) (fileData, error) {
	var d fileData
	b, err := os.ReadFile(path)
	if err != nil {
		return d, err
	}
	if err := yaml.Unmarshal(b, &d); err != nil {
		return fileData{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return d, nil
}

func update(path string, fn func(*fileData)) error {
	d, err := read(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	fn(&d)
	b, err := yaml.Marshal(&d)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return os.Rename(tmp, path)
}
