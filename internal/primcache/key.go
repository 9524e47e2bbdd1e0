package primcache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Key derives the content address for a primitive: sha256 over the kind, a
// canonical encoding of the parameters, and the generator version tag. Any
// parameter or version change produces a different key.
func Key(kind string, params map[string]any, version string) string {
	raw := kind + ":" + CanonicalParams(params) + ":" + version
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// CanonicalParams renders parameters order-independently and type-stably:
// keys sorted, all numeric values widened to float64, so 220 and 220.0 hash
// identically regardless of how the caller decoded them.
func CanonicalParams(params map[string]any) string {
	if len(params) == 0 {
		return "{}"
	}
	normalized := normalizeValue(params)
	b, err := json.Marshal(normalized)
	if err != nil {
		// Marshal of plain maps/slices/scalars cannot fail; unsupported
		// values are normalized away above.
		return "{}"
	}
	return string(b)
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = normalizeValue(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = normalizeValue(item)
		}
		return out
	case []float64:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = item
		}
		return out
	case []int:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = float64(item)
		}
		return out
	case int:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case float32:
		return float64(t)
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case string, bool, float64, nil:
		return t
	default:
		// Anything exotic degrades to its JSON string form.
		b, err := json.Marshal(t)
		if err != nil {
			return nil
		}
		return string(b)
	}
}
