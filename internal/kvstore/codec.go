package kvstore

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// Codec errors. Get absorbs these into the fallback value; Load surfaces
// them so corruption is observable in tests.
var (
	// ErrNotFound means no entry exists under the key.
	ErrNotFound = errors.New("kvstore: not found")
	// ErrCorrupt means the entry exists but cannot be decoded
	// (bad base64, bad JSON, or a malformed envelope).
	ErrCorrupt = errors.New("kvstore: corrupt entry")
)

// envelope wraps every stored value with a write timestamp (unix ms).
type envelope struct {
	Value json.RawMessage `json:"v"`
	At    int64           `json:"t"`
}

// obfuscate XORs payload against the repeating secret and base64-encodes
// the result. Reversible scrambling, not cryptography: it deters casual
// inspection of the stored text, nothing more.
func obfuscate(payload, secret []byte) string {
	out := make([]byte, len(payload))
	for i, b := range payload {
		out[i] = b ^ secret[i%len(secret)]
	}
	return base64.StdEncoding.EncodeToString(out)
}

// deobfuscate reverses obfuscate.
func deobfuscate(enc string, secret []byte) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return nil, fmt.Errorf("%w: base64: %v", ErrCorrupt, err)
	}
	out := make([]byte, len(raw))
	for i, b := range raw {
		out[i] = b ^ secret[i%len(secret)]
	}
	return out, nil
}

// encodeEntry serializes value inside an envelope and obfuscates it.
func encodeEntry(value any, at int64, secret []byte) (string, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("kvstore: marshal value: %w", err)
	}
	payload, err := json.Marshal(envelope{Value: raw, At: at})
	if err != nil {
		return "", fmt.Errorf("kvstore: marshal envelope: %w", err)
	}
	return obfuscate(payload, secret), nil
}

// decodeEntry reverses encodeEntry into dst. A missing "v" field counts as
// a malformed envelope.
func decodeEntry(enc string, secret []byte, dst any) error {
	payload, err := deobfuscate(enc, secret)
	if err != nil {
		return err
	}
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return fmt.Errorf("%w: envelope: %v", ErrCorrupt, err)
	}
	if env.Value == nil {
		return fmt.Errorf("%w: envelope missing value", ErrCorrupt)
	}
	if err := json.Unmarshal(env.Value, dst); err != nil {
		return fmt.Errorf("%w: value: %v", ErrCorrupt, err)
	}
	return nil
}
