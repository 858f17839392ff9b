package text

import (
	"strings"
	"unicode"

	"github.com/mapprint/mapprint/internal/render/pdf"
	"github.com/mapprint/mapprint/pkg/carto"
)

const (
	// ascentRatio and lineSpacing approximate the vertical metrics of
	// the embedded fonts.
	ascentRatio = 0.93
	lineSpacing = 1.17
)

// word is a measured piece of a line. Words carry their trailing space.
type word struct {
	text  string
	style pdf.FontStyle
	size  float64
	color carto.Color
	width float64
}

type line struct {
	words  []word
	width  float64
	ascent float64
	height float64
}

// breakLines measures spans and greedily wraps them into lines no wider
// than maxWidth. A word wider than maxWidth gets a line of its own.
func breakLines(c Canvas, spans []span, maxWidth float64) []line {
	var lines []line
	var cur line

	flush := func(size float64) {
		// trailing space does not count towards the line width
		if n := len(cur.words); n > 0 {
			last := &cur.words[n-1]
			if trimmed := strings.TrimRightFunc(last.text, unicode.IsSpace); trimmed != last.text {
				cur.width -= last.width
				last.text = trimmed
				last.width = c.TextWidthStyle(trimmed, last.size, last.style)
				cur.width += last.width
			}
		}
		if cur.height == 0 {
			cur.ascent = size * ascentRatio
			cur.height = size * lineSpacing
		}
		lines = append(lines, cur)
		cur = line{}
	}

	lastSize := 0.0
	for _, sp := range spans {
		if sp.brk {
			flush(lastSize)
		}
		lastSize = sp.size
		for _, tok := range splitWords(sp.text) {
			w := word{text: tok, style: sp.style, size: sp.size, color: sp.color}
			w.width = c.TextWidthStyle(tok, sp.size, sp.style)
			fit := c.TextWidthStyle(strings.TrimRightFunc(tok, unicode.IsSpace), sp.size, sp.style)
			if maxWidth > 0 && len(cur.words) > 0 && cur.width+fit > maxWidth {
				flush(sp.size)
				if strings.TrimSpace(tok) == "" {
					continue
				}
			}
			cur.words = append(cur.words, w)
			cur.width += w.width
			cur.ascent = max(cur.ascent, sp.size*ascentRatio)
			cur.height = max(cur.height, sp.size*lineSpacing)
		}
	}
	if len(cur.words) > 0 {
		flush(lastSize)
	}
	return lines
}

// splitWords splits text after each run of spaces, keeping the spaces
// with the preceding word so that concatenating the result yields text.
func splitWords(text string) []string {
	var words []string
	start := 0
	inSpace, seen := false, false
	for i, r := range text {
		sp := unicode.IsSpace(r)
		if inSpace && !sp && seen {
			words = append(words, text[start:i])
			start = i
		}
		inSpace = sp
		seen = seen || !sp
	}
	if start < len(text) {
		words = append(words, text[start:])
	}
	return words
}
