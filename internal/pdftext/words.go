package pdftext

import (
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// assembleWords merges per-glyph fragments into phrases, line by line.
// Fragments closer than charGap are glyphs of one word; fragments closer
// than wordGap are words of one phrase ("Net Sales", "$ 56.00") and join
// with a single space. Both gaps scale with the font size so headers and
// body text assemble alike.
func assembleWords(chars []pdf.Text) []Word {
	if len(chars) == 0 {
		return nil
	}
	// Nudge near-identical baselines together so one visual line sorts as one.
	sort.Sort(pdf.TextVertical(chars))
	const nudge = 1
	prev := math.Inf(-1)
	for i, c := range chars {
		if c.Y != prev && math.Abs(prev-c.Y) < nudge {
			chars[i].Y = prev
		} else {
			prev = c.Y
		}
	}
	sort.Sort(pdf.TextVertical(chars))

	var words []Word
	for i := 0; i < len(chars); {
		// [i, j) is one baseline.
		j := i + 1
		for j < len(chars) && chars[j].Y == chars[i].Y {
			j++
		}
		for k := i; k < j; {
			first := chars[k]
			charGap := first.FontSize / 6
			wordGap := first.FontSize * 2 / 3

			var sb strings.Builder
			sb.WriteString(first.S)
			end := first.X + first.W

			l := k + 1
			for l < j {
				next := chars[l]
				if math.Abs(next.FontSize-first.FontSize) > 0.1 || next.X > end+wordGap {
					break
				}
				if next.X > end+charGap {
					sb.WriteString(" ")
				}
				sb.WriteString(next.S)
				end = next.X + next.W
				l++
			}

			text := strings.TrimSpace(sb.String())
			if text != "" {
				words = append(words, Word{Text: text, X: first.X, Y: first.Y, W: end - first.X})
			}
			k = l
		}
		i = j
	}
	return words
}
