package kvstore

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"
)

const (
	// Prefix namespaces every store entry so unrelated data in a shared
	// medium is never touched.
	Prefix = "__ansuz_v1__:"

	// secretKey is the reserved entry holding the per-install secret.
	// Stored as plaintext: the secret only has to survive restarts, it
	// is not a defense against anyone who can read the medium.
	secretKey = Prefix + "__secret__"

	minSecretLen = 8
)

// Store is the obfuscated key/value store. All failure modes are absorbed
// here: Set logs and swallows write errors, Get returns the fallback on
// any read or decode failure.
type Store struct {
	medium Medium
	secret []byte
	logger *slog.Logger
	now    func() time.Time
}

// Options configures a Store.
type Options struct {
	// Secret overrides the per-install secret when at least 8 characters
	// long. Shorter values are ignored and a persisted secret is used.
	Secret string
	Logger *slog.Logger
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// New creates a Store over the given medium. When no usable secret is
// configured, one is loaded from the medium's reserved key or generated
// once and persisted there.
func New(medium Medium, opts Options) *Store {
	s := &Store{
		medium: medium,
		logger: opts.Logger,
		now:    opts.Now,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.secret = s.bootstrapSecret(opts.Secret)
	return s
}

// bootstrapSecret resolves the obfuscation secret: configured value,
// previously persisted value, or a freshly generated one (best-effort
// persisted so later runs can reverse the XOR).
func (s *Store) bootstrapSecret(configured string) []byte {
	if len(configured) >= minSecretLen {
		return []byte(configured)
	}
	if raw, ok, err := s.medium.Get(secretKey); err == nil && ok && raw != "" {
		return []byte(raw)
	}
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// rand.Read failing is effectively unreachable; fall back to a
		// fixed secret rather than aborting startup.
		s.logger.Warn("kvstore: random secret unavailable", slog.String("error", err.Error()))
		return []byte("ansuz-fallback")
	}
	secret := hex.EncodeToString(buf)
	if err := s.medium.Set(secretKey, secret); err != nil {
		s.logger.Warn("kvstore: persist secret failed", slog.String("error", err.Error()))
	}
	return []byte(secret)
}

// Set writes value under key. Never returns an error: serialization or
// medium failures (quota, I/O) are logged and the call is a no-op. The
// in-memory model stays authoritative; the next successful write is the
// implicit retry.
func (s *Store) Set(key string, value any) {
	enc, err := encodeEntry(value, s.now().UnixMilli(), s.secret)
	if err != nil {
		s.logger.Warn("kvstore: encode failed", slog.String("key", key), slog.String("error", err.Error()))
		return
	}
	if err := s.medium.Set(Prefix+key, enc); err != nil {
		s.logger.Warn("kvstore: write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

// Load decodes the entry under key into dst. It returns ErrNotFound when
// no entry exists and ErrCorrupt when the entry cannot be decoded, so the
// failure modes stay distinguishable. Most callers want Get instead.
func (s *Store) Load(key string, dst any) error {
	enc, ok, err := s.medium.Get(Prefix + key)
	if err != nil {
		return err
	}
	if !ok || enc == "" {
		return ErrNotFound
	}
	return decodeEntry(enc, s.secret, dst)
}

// Remove deletes the entry under key. Removing an absent key is fine.
func (s *Store) Remove(key string) {
	if err := s.medium.Delete(Prefix + key); err != nil {
		s.logger.Warn("kvstore: delete failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

// Get returns the value under key, or fallback when the entry is absent,
// corrupt, or unreadable.
func Get[T any](s *Store, key string, fallback T) T {
	var v T
	if err := s.Load(key, &v); err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("kvstore: load failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		return fallback
	}
	return v
}
