package levels

import (
	"regexp"
	"sort"
	"strings"
)

// Segment is a run of story text with one style
type Segment struct {
	Text   string
	Bold   bool
	Italic bool
}

// Line is one line of formatted story text. An empty line has no segments.
type Line []Segment

var (
	boldPattern   = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicPattern = regexp.MustCompile(`\*(.*?)\*`)
)

// FormatText splits story text into styled lines. **text** is bold, *text*
// is italic, and both real newlines and the two characters `\n` break lines.
func FormatText(text string) []Line {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, `\n`, "\n")

	raw := strings.Split(text, "\n")
	lines := make([]Line, 0, len(raw))
	for _, l := range raw {
		lines = append(lines, formatLine(l))
	}
	return lines
}

type span struct {
	start, end int
	content    string
	bold       bool
}

func formatLine(line string) Line {
	if line == "" {
		return nil
	}

	var spans []span
	for _, m := range boldPattern.FindAllStringSubmatchIndex(line, -1) {
		spans = append(spans, span{start: m[0], end: m[1], content: line[m[2]:m[3]], bold: true})
	}
	bolds := len(spans)

	// Italic matches that begin inside a bold span are part of its markers
	for _, m := range italicPattern.FindAllStringSubmatchIndex(line, -1) {
		inside := false
		for _, b := range spans[:bolds] {
			if m[0] >= b.start && m[0] < b.end {
				inside = true
				break
			}
		}
		if !inside {
			spans = append(spans, span{start: m[0], end: m[1], content: line[m[2]:m[3]]})
		}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	var out Line
	pos := 0
	for _, s := range spans {
		if s.start < pos {
			continue
		}
		if s.start > pos {
			out = append(out, Segment{Text: line[pos:s.start]})
		}
		out = append(out, Segment{Text: s.content, Bold: s.bold, Italic: !s.bold})
		pos = s.end
	}
	if pos < len(line) {
		out = append(out, Segment{Text: line[pos:]})
	}
	return out
}

// PlainText flattens formatted lines back into text without markers
func PlainText(lines []Line) string {
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		for _, s := range l {
			b.WriteString(s.Text)
		}
	}
	return b.String()
}
