package kvstore

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	fileSuffix    = ".kv"
	tmpFilePrefix = ".ansuz-tmp-"
)

// FileMedium stores one file per key under a flat root directory. Writes
// are atomic: temp file, fsync, rename.
type FileMedium struct {
	root string // absolute path to the store directory
}

// NewFileMedium creates a FileMedium rooted at the given directory.
// The directory must already exist.
func NewFileMedium(root string) (*FileMedium, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("kvstore: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("kvstore: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("kvstore: root is not a directory: %s", abs)
	}
	return &FileMedium{root: abs}, nil
}

// Root returns the absolute store directory, for the watcher.
func (f *FileMedium) Root() string { return f.root }

// encodeFilename maps an arbitrary key to a filesystem-safe name.
func encodeFilename(key string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(key)) + fileSuffix
}

// DecodeFilename reverses encodeFilename. ok is false for temp files and
// anything else that is not a store entry.
func DecodeFilename(name string) (string, bool) {
	if strings.HasPrefix(name, tmpFilePrefix) || !strings.HasSuffix(name, fileSuffix) {
		return "", false
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSuffix(name, fileSuffix))
	if err != nil {
		return "", false
	}
	return string(raw), true
}

func (f *FileMedium) path(key string) string {
	return filepath.Join(f.root, encodeFilename(key))
}

func (f *FileMedium) Get(key string) (string, bool, error) {
	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kvstore: read %s: %w", key, err)
	}
	return string(data), true, nil
}

// Set atomically writes value: tmp file → fsync → rename.
func (f *FileMedium) Set(key, value string) error {
	tmp, err := os.CreateTemp(f.root, tmpFilePrefix+"*")
	if err != nil {
		return fmt.Errorf("kvstore: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.WriteString(value); err != nil {
		return fmt.Errorf("kvstore: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("kvstore: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("kvstore: close temp: %w", err)
	}
	if err := os.Rename(tmpName, f.path(key)); err != nil {
		return fmt.Errorf("kvstore: rename: %w", err)
	}
	success = true
	return nil
}

func (f *FileMedium) Delete(key string) error {
	err := os.Remove(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("kvstore: delete %s: %w", key, err)
	}
	return nil
}

// Close is a no-op for FileMedium.
func (f *FileMedium) Close() error { return nil }

var _ Medium = (*FileMedium)(nil)
