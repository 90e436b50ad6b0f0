package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidwalker2235/hcongame/internal/model"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Path
		wantErr bool
	}{
		{name: "collection", raw: "users", want: Path{"users"}},
		{name: "document", raw: "users/abc123", want: Path{"users", "abc123"}},
		{name: "slashes trimmed", raw: "//users/abc123/", want: Path{"users", "abc123"}},
		{name: "nested field", raw: "users/abc123/currentLevel", want: Path{"users", "abc123", "currentLevel"}},
		{name: "empty", raw: "", wantErr: true},
		{name: "only slashes", raw: "///", wantErr: true},
		{name: "empty segment", raw: "users//abc", wantErr: true},
		{name: "dot dot", raw: "users/..", wantErr: true},
		{name: "illegal character", raw: "users/a#b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePath(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, model.ErrInvalidPath)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPathOverlaps(t *testing.T) {
	users := Path{"users"}
	doc := Path{"users", "abc"}
	field := Path{"users", "abc", "nickname"}
	other := Path{"users", "xyz"}

	assert.True(t, users.Overlaps(doc))
	assert.True(t, field.Overlaps(doc))
	assert.True(t, doc.Overlaps(doc))
	assert.False(t, doc.Overlaps(other))
	assert.False(t, Path{"ranking"}.Overlaps(doc))
}

func TestSetInPrunesEmptyParents(t *testing.T) {
	root := SetIn(nil, []string{"a", "b", "c"}, "x")
	assert.Equal(t, map[string]any{"a": map[string]any{"b": map[string]any{"c": "x"}}}, root)

	root = SetIn(root, []string{"a", "b", "c"}, nil)
	assert.Nil(t, root)
}

func TestMergeRejectsBadKeys(t *testing.T) {
	_, err := Merge(nil, []string{"users", "abc"}, map[string]any{"../x": 1})
	assert.ErrorIs(t, err, model.ErrInvalidPath)
}

func TestNormalizeCanonicalizes(t *testing.T) {
	type profile struct {
		Nickname string `json:"nickname"`
		Level    int    `json:"currentLevel"`
	}
	got, err := Normalize(profile{Nickname: "neo", Level: 2})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"nickname": "neo", "currentLevel": float64(2)}, got)

	got, err = Normalize(map[string]any{"empty": map[string]any{}})
	require.NoError(t, err)
	assert.Nil(t, got)
}
