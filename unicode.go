package compositor

import (
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// displayWidth returns the terminal column width of a single grapheme
// cluster: 0, 1, or 2. This wraps the spec's external "Unicode data"
// dependency (East Asian Width derived) so the rest of the package never
// reasons about codepoints directly.
func displayWidth(grapheme string) int {
	w := runewidth.StringWidth(grapheme)
	if w < 0 {
		return 0
	}
	if w > 2 {
		return 2
	}
	return w
}

// graphemes splits s into extended grapheme clusters, the other half of
// the spec's external Unicode dependency.
func graphemes(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, len(s))
	gr := uniseg.NewGraphemes(s)
	for gr.Next() {
		out = append(out, gr.Str())
	}
	return out
}
