package kvstore

import (
	"os"
	"path/filepath"
	"testing"
)

func tempFileMedium(t *testing.T) *FileMedium {
	t.Helper()
	m, err := NewFileMedium(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileMedium: %v", err)
	}
	return m
}

func TestFileSetAndGet(t *testing.T) {
	m := tempFileMedium(t)
	if err := m.Set("notes", "payload"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := m.Get("notes")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || got != "payload" {
		t.Errorf("Get = %q, %v", got, ok)
	}
}

func TestFileGetAbsent(t *testing.T) {
	m := tempFileMedium(t)
	_, ok, err := m.Get("nothing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("absent key reported as present")
	}
}

func TestFileDelete(t *testing.T) {
	m := tempFileMedium(t)
	_ = m.Set("gone", "x")
	if err := m.Delete("gone"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := m.Get("gone"); ok {
		t.Error("deleted key still present")
	}
	// Deleting an absent key is not an error.
	if err := m.Delete("gone"); err != nil {
		t.Errorf("Delete absent: %v", err)
	}
}

func TestFileOverwrite(t *testing.T) {
	m := tempFileMedium(t)
	_ = m.Set("k", "old")
	if err := m.Set("k", "new"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, _, _ := m.Get("k")
	if got != "new" {
		t.Errorf("Get = %q, want new", got)
	}
}

func TestFileAwkwardKeys(t *testing.T) {
	m := tempFileMedium(t)
	keys := []string{
		"__ansuz_v1__:notes",
		"path/with/slashes",
		"spaces and :colons:",
	}
	for _, k := range keys {
		if err := m.Set(k, "v"); err != nil {
			t.Fatalf("Set %q: %v", k, err)
		}
		got, ok, err := m.Get(k)
		if err != nil || !ok || got != "v" {
			t.Errorf("Get %q = %q, %v, %v", k, got, ok, err)
		}
	}
}

func TestFilenameRoundTrip(t *testing.T) {
	key := "__ansuz_v1__:ui_theme"
	name := encodeFilename(key)
	got, ok := DecodeFilename(name)
	if !ok || got != key {
		t.Errorf("DecodeFilename(%q) = %q, %v", name, got, ok)
	}
}

func TestDecodeFilenameRejectsTempAndForeign(t *testing.T) {
	cases := []string{
		tmpFilePrefix + "12345",
		"random.txt",
		"not-base64-!!!.kv",
	}
	for _, name := range cases {
		if _, ok := DecodeFilename(name); ok {
			t.Errorf("DecodeFilename(%q) accepted", name)
		}
	}
}

func TestNoTempFilesLeftBehind(t *testing.T) {
	m := tempFileMedium(t)
	for i := 0; i < 5; i++ {
		_ = m.Set("k", "value")
	}
	entries, err := os.ReadDir(m.Root())
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if _, ok := DecodeFilename(e.Name()); !ok {
			t.Errorf("stray file in store dir: %s", e.Name())
		}
	}
}

func TestNewFileMediumRejectsFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "plain")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileMedium(file); err == nil {
		t.Error("expected error for non-directory root")
	}
}
