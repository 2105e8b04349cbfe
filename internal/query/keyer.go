package query

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// DeriveKey generates the cache key for an endpoint call.
// Format: <namespace>:<endpoint>:<hash>
// where hash is the first 16 hex characters of SHA-256(canonical JSON(params)).
//
// Params are encoded to JSON and re-encoded with object keys sorted, so two
// values that serialize to the same fields produce the same key regardless of
// struct field order or map iteration order.
func DeriveKey(namespace, endpoint string, params any) (string, error) {
	canonical, err := canonicalize(params)
	if err != nil {
		return "", fmt.Errorf("query: failed to canonicalize params for %s: %w", endpoint, err)
	}

	hash := sha256.Sum256(canonical)
	return fmt.Sprintf("%s:%s:%s", namespace, endpoint, hex.EncodeToString(hash[:8])), nil
}

// canonicalize round-trips v through JSON into generic values. Re-encoding
// them is deterministic: objects become maps, whose keys encoding/json writes
// in sorted order, and numbers keep their original text via UseNumber.
func canonicalize(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}
	return json.Marshal(generic)
}
