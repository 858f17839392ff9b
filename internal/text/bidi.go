package text

import (
	"strings"

	"golang.org/x/text/unicode/bidi"
)

// isRTL reports whether s contains Hebrew or Arabic letters.
func isRTL(s string) bool {
	for _, r := range s {
		if (r >= 0x0590 && r <= 0x06FF) || (r >= 0xFB1D && r <= 0xFDFF) || (r >= 0xFE70 && r <= 0xFEFF) {
			return true
		}
	}
	return false
}

// visualOrder reorders a logical order string for left to right drawing.
// Left to right text is returned unchanged.
func visualOrder(s string) string {
	if !isRTL(s) {
		return s
	}
	var p bidi.Paragraph
	if _, err := p.SetString(s); err != nil {
		return bidi.ReverseString(s)
	}
	ord, err := p.Order()
	if err != nil {
		return bidi.ReverseString(s)
	}
	var sb strings.Builder
	for i := 0; i < ord.NumRuns(); i++ {
		run := ord.Run(i)
		if run.Direction() == bidi.RightToLeft {
			sb.WriteString(bidi.ReverseString(run.String()))
		} else {
			sb.WriteString(run.String())
		}
	}
	return sb.String()
}
