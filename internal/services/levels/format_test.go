package levels

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatText(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []Line
	}{
		{name: "empty", text: "", want: nil},
		{name: "plain", text: "hello", want: []Line{{{Text: "hello"}}}},
		{
			name: "bold",
			text: "the **gate** opens",
			want: []Line{{{Text: "the "}, {Text: "gate", Bold: true}, {Text: " opens"}}},
		},
		{
			name: "italic",
			text: "a *quiet* word",
			want: []Line{{{Text: "a "}, {Text: "quiet", Italic: true}, {Text: " word"}}},
		},
		{
			name: "bold then italic",
			text: "**a** *b*",
			want: []Line{{{Text: "a", Bold: true}, {Text: " "}, {Text: "b", Italic: true}}},
		},
		{
			name: "escaped newline",
			text: `one\ntwo`,
			want: []Line{{{Text: "one"}}, {{Text: "two"}}},
		},
		{
			name: "blank line kept",
			text: "one\n\ntwo",
			want: []Line{{{Text: "one"}}, nil, {{Text: "two"}}},
		},
		{
			name: "unmatched marker",
			text: "2 * 3",
			want: []Line{{{Text: "2 * 3"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatText(tt.text))
		})
	}
}

func TestPlainTextStripsMarkers(t *testing.T) {
	lines := FormatText(`Level 1: the **gate** is guarded.\nFind the *word*.`)
	assert.Equal(t, "Level 1: the gate is guarded.\nFind the word.", PlainText(lines))
}
