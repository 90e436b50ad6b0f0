package storage

import (
	"fmt"
	"strings"

	"github.com/davidwalker2235/hcongame/internal/model"
)

// Path is a parsed store path
type Path []string

// NormalizePath strips leading and trailing slashes
func NormalizePath(raw string) string {
	return strings.Trim(raw, "/")
}

// ParsePath validates and splits a store path. Empty segments, "." and ".."
// and the characters . # $ [ ] are rejected.
func ParsePath(raw string) (Path, error) {
	normalized := NormalizePath(raw)
	if normalized == "" {
		return nil, fmt.Errorf("%w: empty path", model.ErrInvalidPath)
	}

	segments := strings.Split(normalized, "/")
	for _, seg := range segments {
		if seg == "" {
			return nil, fmt.Errorf("%w: empty segment in %q", model.ErrInvalidPath, raw)
		}
		if strings.ContainsAny(seg, ".#$[]") {
			return nil, fmt.Errorf("%w: illegal character in %q", model.ErrInvalidPath, seg)
		}
	}
	return Path(segments), nil
}

// String joins the path with slashes
func (p Path) String() string {
	return strings.Join(p, "/")
}

// Collection returns the first segment
func (p Path) Collection() string {
	if len(p) == 0 {
		return ""
	}
	return p[0]
}

// Child returns a new path with key appended
func (p Path) Child(key ...string) Path {
	out := make(Path, 0, len(p)+len(key))
	out = append(out, p...)
	return append(out, key...)
}

// HasPrefix reports whether prefix is an ancestor of, or equal to, p
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i := range prefix {
		if p[i] != prefix[i] {
			return false
		}
	}
	return true
}

// Overlaps reports whether a change at one path can affect the other
func (p Path) Overlaps(other Path) bool {
	return p.HasPrefix(other) || other.HasPrefix(p)
}
