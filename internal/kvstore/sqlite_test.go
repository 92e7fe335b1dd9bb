package kvstore

import (
	"os"
	"testing"
)

func tempSQLiteMedium(t *testing.T) *SQLiteMedium {
	t.Helper()
	dbFile, err := os.CreateTemp("", "ansuz-kv-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	m, err := OpenSQLite(dbFile.Name())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func TestSQLiteSetGetDelete(t *testing.T) {
	m := tempSQLiteMedium(t)

	if _, ok, err := m.Get("absent"); err != nil || ok {
		t.Errorf("absent Get = %v, %v", ok, err)
	}

	if err := m.Set("k", "v1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := m.Set("k", "v2"); err != nil {
		t.Fatalf("Set upsert: %v", err)
	}
	got, ok, err := m.Get("k")
	if err != nil || !ok || got != "v2" {
		t.Errorf("Get = %q, %v, %v", got, ok, err)
	}

	if err := m.Delete("k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := m.Get("k"); ok {
		t.Error("deleted key still present")
	}
	if err := m.Delete("k"); err != nil {
		t.Errorf("Delete absent: %v", err)
	}
}

func TestSQLiteBackedStore(t *testing.T) {
	m := tempSQLiteMedium(t)
	s := New(m, Options{Secret: "unit-test-secret"})

	want := doc{Title: "persisted", Count: 7}
	s.Set("doc", want)
	if got := Get(s, "doc", doc{}); got != want {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
}
