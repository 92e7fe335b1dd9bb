// Package testutil provides shared test helpers for setting up stores
// and a seeded notes engine.
package testutil

import (
	"testing"

	"github.com/starford/ansuz/internal/autosave"
	"github.com/starford/ansuz/internal/kvstore"
	"github.com/starford/ansuz/internal/notes"
)

// TestStore creates an obfuscated store over an in-memory medium with a
// fixed secret.
func TestStore(t *testing.T) *kvstore.Store {
	t.Helper()
	return kvstore.New(kvstore.NewMemMedium(), kvstore.Options{Secret: "test-secret"})
}

// TestFileStore creates a store over a temporary directory that is
// automatically cleaned up.
func TestFileStore(t *testing.T) (*kvstore.Store, *kvstore.FileMedium) {
	t.Helper()
	medium, err := kvstore.NewFileMedium(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = medium.Close() })
	return kvstore.New(medium, kvstore.Options{Secret: "test-secret"}), medium
}

// TestEngine wires a repository and autosave controller over an
// in-memory store. The controller is closed (flushing pending writes)
// during cleanup.
func TestEngine(t *testing.T) (*notes.Repository, *autosave.Controller) {
	t.Helper()
	repo := notes.NewRepository(TestStore(t), notes.Options{})
	ctrl := autosave.NewController(repo, autosave.Options{})
	t.Cleanup(func() { _ = ctrl.Close() })
	return repo, ctrl
}
