// Package manifest handles telescope.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the manifest file looked up in a project directory.
const FileName = "telescope.toml"

// Manifest represents a telescope.toml project configuration.
type Manifest struct {
	Project Project     `toml:"project"`
	Source  Source      `toml:"source"`
	Image   ImageConfig `toml:"image"`

	// Dir is the directory containing the telescope.toml file (set at
	// load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Source configures the program entry point.
type Source struct {
	Entry string `toml:"entry"`
}

// ImageConfig configures compiled image output.
type ImageConfig struct {
	Output string `toml:"output"`
}

// Load parses a telescope.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	m.Dir = dir

	if m.Source.Entry == "" {
		return nil, fmt.Errorf("%s: source.entry is required", path)
	}
	return &m, nil
}

// Exists reports whether the directory contains a manifest file.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, FileName))
	return err == nil
}

// EntryPath returns the entry source file path, resolved against the
// manifest directory.
func (m *Manifest) EntryPath() string {
	if filepath.IsAbs(m.Source.Entry) {
		return m.Source.Entry
	}
	return filepath.Join(m.Dir, m.Source.Entry)
}

// OutputPath returns the image output path, resolved against the
// manifest directory. Defaults to the entry path with a .teleimg
// extension.
func (m *Manifest) OutputPath() string {
	out := m.Image.Output
	if out == "" {
		entry := m.EntryPath()
		return entry[:len(entry)-len(filepath.Ext(entry))] + ".teleimg"
	}
	if filepath.IsAbs(out) {
		return out
	}
	return filepath.Join(m.Dir, out)
}
