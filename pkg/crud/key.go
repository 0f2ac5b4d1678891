package crud

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// keyHashLen is the number of hex characters kept from the digest.
const keyHashLen = 32

// KeyFunc derives the cache key of one call. Keys must start with name so
// that prefix invalidation by endpoint name keeps working.
type KeyFunc func(name string, query url.Values, body any, params Params) string

// Key is the default KeyFunc. It hashes a canonical JSON encoding of the
// call arguments, so two calls with the same content produce the same key
// whatever order their maps were filled in.
func Key(name string, query url.Values, body any, params Params) string {
	if query == nil {
		query = url.Values{}
	}

	if params == nil {
		params = Params{}
	}

	// A missing body hashes like an empty object.
	if isNilBody(body) {
		body = map[string]any{}
	}

	// encoding/json sorts map keys, which is what makes this canonical.
	canonical, err := json.Marshal([]any{query, body, params})
	if err != nil {
		// Bodies that cannot be encoded cannot be sent either; fall back to
		// their printed form so the key stays deterministic.
		canonical = fmt.Appendf(nil, "%v|%#v|%v", query, body, params)
	}

	sum := sha256.Sum256(canonical)

	return name + "_" + hex.EncodeToString(sum[:])[:keyHashLen]
}

// LegacyKey concatenates "_<key>:<value>" for every entry of every part
// after name. Separators are not escaped, so values containing "_" or ":"
// can collide with neighbouring entries. Entries are visited in sorted key
// order.
func LegacyKey(name string, parts ...map[string]any) string {
	var b strings.Builder

	b.WriteString(name)

	for _, part := range parts {
		keys := make([]string, 0, len(part))
		for k := range part {
			keys = append(keys, k)
		}

		slices.Sort(keys)

		for _, k := range keys {
			b.WriteString("_")
			b.WriteString(k)
			b.WriteString(":")
			b.WriteString(fmt.Sprint(part[k]))
		}
	}

	return b.String()
}

// LegacyKeyFunc is a KeyFunc producing LegacyKey strings, for callers that
// want readable cache keys.
func LegacyKeyFunc(name string, query url.Values, body any, params Params) string {
	return LegacyKey(name, valuesPart(query), bodyPart(body), paramsPart(params))
}

func valuesPart(v url.Values) map[string]any {
	out := make(map[string]any, len(v))
	for k, vals := range v {
		out[k] = strings.Join(vals, ",")
	}

	return out
}

func paramsPart(p Params) map[string]any {
	out := make(map[string]any, len(p))
	for k, v := range p {
		out[k] = v
	}

	return out
}

func isNilBody(body any) bool {
	switch b := body.(type) {
	case nil:
		return true
	case json.RawMessage:
		return b == nil
	case map[string]any:
		return b == nil
	}

	return false
}

// bodyPart flattens the top level of a JSON-object body. Anything that is
// not an object contributes no entries.
func bodyPart(body any) map[string]any {
	if body == nil {
		return nil
	}

	if m, ok := body.(map[string]any); ok {
		return m
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return nil
	}

	var m map[string]any
	if json.Unmarshal(raw, &m) != nil {
		return nil
	}

	return m
}
