package extract

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/fdsanalytics/pmix-importer/internal/pdftext"
)

// textLine is one visual line of a page: words sharing a baseline within the
// configured tolerance, left to right.
type textLine struct {
	y     float64
	words []pdftext.Word
}

// groupLines buckets words into visual lines, top of page first.
func groupLines(words []pdftext.Word, yTol float64) []textLine {
	if yTol <= 0 {
		yTol = 2
	}
	var lines []textLine
	for _, w := range words {
		placed := false
		for i := range lines {
			if math.Abs(lines[i].y-w.Y) <= yTol {
				lines[i].words = append(lines[i].words, w)
				placed = true
				break
			}
		}
		if !placed {
			lines = append(lines, textLine{y: w.Y, words: []pdftext.Word{w}})
		}
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].y > lines[j].y })
	for i := range lines {
		ws := lines[i].words
		sort.Slice(ws, func(a, b int) bool { return ws[a].X < ws[b].X })
	}
	return lines
}

var (
	integerRE = regexp.MustCompile(`^\d+$`)
	numericRE = regexp.MustCompile(`^\d+(\.\d+)?$`)
)

// qtyWord returns the first all-digit word inside the quantity zone, the
// anchor that makes a line a data line in the position layout.
func (l textLine) qtyWord(b Boundaries) (string, bool) {
	for _, w := range l.words {
		if w.X >= b.ItemMaxX && w.X < b.QtyMaxX && integerRE.MatchString(w.Text) {
			return w.Text, true
		}
	}
	return "", false
}

func (l textLine) hasNumericWord() bool {
	for _, w := range l.words {
		if numericRE.MatchString(w.Text) {
			return true
		}
	}
	return false
}

func isParenthesized(s string) bool {
	return strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") && len(s) > 2
}

func isCurrencyToken(s string) bool {
	return strings.HasPrefix(s, "$") || strings.HasPrefix(s, "-$") || strings.HasPrefix(s, "($")
}
