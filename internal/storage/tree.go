package storage

import (
	"encoding/json"
	"fmt"

	"github.com/davidwalker2235/hcongame/internal/model"
)

// Normalize converts a caller value into the canonical JSON form used by
// every backend: map[string]any, []any, string, float64, bool or nil.
// Empty objects normalize to nil, matching the store's "empty nodes do not
// exist" semantics.
func Normalize(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: value is not JSON-encodable: %v", model.ErrInvalidRequest, err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return prune(out), nil
}

// Decode converts a stored value into out via its JSON form
func Decode(value any, out any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// Clone deep-copies a canonical value
func Clone(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, child := range v {
			out[k] = Clone(child)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, child := range v {
			out[i] = Clone(child)
		}
		return out
	default:
		return v
	}
}

// GetIn returns the value found by walking segments from root
func GetIn(root any, segments []string) any {
	current := root
	for _, seg := range segments {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = m[seg]
		if !ok {
			return nil
		}
	}
	return current
}

// SetIn returns root with value stored at segments. Intermediate objects are
// created as needed and a nil value removes the node. The result is nil when
// the whole tree became empty.
func SetIn(root any, segments []string, value any) any {
	if len(segments) == 0 {
		return prune(value)
	}

	m, ok := root.(map[string]any)
	if !ok {
		m = make(map[string]any)
	}

	head := segments[0]
	child := SetIn(m[head], segments[1:], value)
	if child == nil {
		delete(m, head)
	} else {
		m[head] = child
	}

	if len(m) == 0 {
		return nil
	}
	return m
}

// Merge applies fields to root at base, each key being a relative path
func Merge(root any, base []string, fields map[string]any) (any, error) {
	for key, value := range fields {
		rel, err := ParsePath(key)
		if err != nil {
			return nil, err
		}
		segments := append(append([]string{}, base...), rel...)
		root = SetIn(root, segments, value)
	}
	return root, nil
}

// prune drops empty objects so they read back as absent
func prune(value any) any {
	switch v := value.(type) {
	case map[string]any:
		for k, child := range v {
			if p := prune(child); p == nil {
				delete(v, k)
			} else {
				v[k] = p
			}
		}
		if len(v) == 0 {
			return nil
		}
		return v
	default:
		return v
	}
}
