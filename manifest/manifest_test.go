package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoad(t *testing.T) {
	dir := writeManifest(t, `
[project]
name = "demo"
version = "0.1.0"

[source]
entry = "main.tele"

[image]
output = "demo.teleimg"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if m.Project.Name != "demo" || m.Project.Version != "0.1.0" {
		t.Errorf("project = %+v", m.Project)
	}
	if m.EntryPath() != filepath.Join(dir, "main.tele") {
		t.Errorf("entry path = %s", m.EntryPath())
	}
	if m.OutputPath() != filepath.Join(dir, "demo.teleimg") {
		t.Errorf("output path = %s", m.OutputPath())
	}
}

func TestLoadMissingEntry(t *testing.T) {
	dir := writeManifest(t, `
[project]
name = "demo"
`)

	_, err := Load(dir)
	if err == nil || !strings.Contains(err.Error(), "source.entry is required") {
		t.Errorf("err = %v, want missing-entry error", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("loading an empty directory succeeded")
	}
}

func TestLoadBadToml(t *testing.T) {
	dir := writeManifest(t, `[source`)
	if _, err := Load(dir); err == nil || !strings.Contains(err.Error(), "parse error") {
		t.Errorf("err = %v, want parse error", err)
	}
}

func TestExists(t *testing.T) {
	dir := writeManifest(t, "[source]\nentry = \"a.tele\"\n")
	if !Exists(dir) {
		t.Error("Exists is false for a directory with a manifest")
	}
	if Exists(t.TempDir()) {
		t.Error("Exists is true for an empty directory")
	}
}

func TestOutputPathDefault(t *testing.T) {
	dir := writeManifest(t, "[source]\nentry = \"prog.tele\"\n")

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if m.OutputPath() != filepath.Join(dir, "prog.teleimg") {
		t.Errorf("default output path = %s, want prog.teleimg next to the entry", m.OutputPath())
	}
}
