package kvstore

import (
	"errors"
	"strings"
	"testing"
)

type doc struct {
	Title string `json:"title"`
	Count int    `json:"count"`
}

func memStore(t *testing.T) *Store {
	t.Helper()
	return New(NewMemMedium(), Options{Secret: "unit-test-secret"})
}

func TestSetGetRoundTrip(t *testing.T) {
	s := memStore(t)
	want := doc{Title: "hello", Count: 3}
	s.Set("doc", want)

	got := Get(s, "doc", doc{})
	if got != want {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
}

func TestGetFallbackWhenAbsent(t *testing.T) {
	s := memStore(t)
	got := Get(s, "missing", doc{Title: "fallback"})
	if got.Title != "fallback" {
		t.Errorf("got %+v, want fallback", got)
	}
}

func TestLoadNotFound(t *testing.T) {
	s := memStore(t)
	var d doc
	if err := s.Load("missing", &d); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGetFallbackWhenCorrupt(t *testing.T) {
	medium := NewMemMedium()
	s := New(medium, Options{Secret: "unit-test-secret"})

	cases := map[string]string{
		"bad-base64":   "!!! not base64 !!!",
		"bad-json":     obfuscate([]byte("not json"), s.secret),
		"bad-envelope": obfuscate([]byte(`{"t":1}`), s.secret),
	}
	for name, raw := range cases {
		_ = medium.Set(Prefix+name, raw)

		var d doc
		if err := s.Load(name, &d); !errors.Is(err, ErrCorrupt) {
			t.Errorf("%s: Load err = %v, want ErrCorrupt", name, err)
		}
		got := Get(s, name, doc{Title: "fallback"})
		if got.Title != "fallback" {
			t.Errorf("%s: Get = %+v, want fallback", name, got)
		}
	}
}

func TestRemove(t *testing.T) {
	s := memStore(t)
	s.Set("gone", doc{Title: "x"})
	s.Remove("gone")
	var d doc
	if err := s.Load("gone", &d); !errors.Is(err, ErrNotFound) {
		t.Errorf("err after remove = %v, want ErrNotFound", err)
	}
	// Removing again is fine.
	s.Remove("gone")
}

func TestStoredFormIsObfuscated(t *testing.T) {
	medium := NewMemMedium()
	s := New(medium, Options{Secret: "unit-test-secret"})
	s.Set("doc", doc{Title: "visible-marker"})

	raw, ok, _ := medium.Get(Prefix + "doc")
	if !ok {
		t.Fatal("entry not written")
	}
	if strings.Contains(raw, "visible-marker") {
		t.Error("stored entry leaks plaintext")
	}
}

func TestSecretPersistedAcrossInstances(t *testing.T) {
	medium := NewMemMedium()

	// No configured secret: first store generates and persists one.
	s1 := New(medium, Options{})
	s1.Set("doc", doc{Title: "survives"})

	// Second store over the same medium must pick up the same secret.
	s2 := New(medium, Options{})
	got := Get(s2, "doc", doc{})
	if got.Title != "survives" {
		t.Errorf("got %+v, want value written by first instance", got)
	}
}

func TestShortConfiguredSecretIgnored(t *testing.T) {
	medium := NewMemMedium()
	s := New(medium, Options{Secret: "short"})
	if string(s.secret) == "short" {
		t.Error("secret below minimum length should be ignored")
	}
}

func TestWrongSecretYieldsFallback(t *testing.T) {
	medium := NewMemMedium()
	s1 := New(medium, Options{Secret: "secret-number-one"})
	s1.Set("doc", doc{Title: "hidden"})

	s2 := New(medium, Options{Secret: "secret-number-two"})
	got := Get(s2, "doc", doc{Title: "fallback"})
	if got.Title != "fallback" {
		t.Errorf("got %+v, want fallback under wrong secret", got)
	}
}

// failingMedium rejects every operation, simulating a blocked or
// quota-exhausted persistent medium.
type failingMedium struct{}

func (failingMedium) Get(string) (string, bool, error) { return "", false, errors.New("blocked") }
func (failingMedium) Set(string, string) error         { return errors.New("blocked") }
func (failingMedium) Delete(string) error              { return errors.New("blocked") }
func (failingMedium) Close() error                     { return nil }

func TestFailingMediumNeverPropagates(t *testing.T) {
	s := New(failingMedium{}, Options{Secret: "unit-test-secret"})

	// None of these may panic or surface an error to the caller.
	s.Set("doc", doc{Title: "x"})
	s.Remove("doc")
	got := Get(s, "doc", doc{Title: "fallback"})
	if got.Title != "fallback" {
		t.Errorf("got %+v, want fallback", got)
	}
}
