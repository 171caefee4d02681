package pdftext

import (
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// glyphs fans a string out into per-character fragments the way the PDF
// library reports them: 5pt monospaced advance at size 10.
func glyphs(x, y float64, s string) []pdf.Text {
	out := make([]pdf.Text, 0, len(s))
	for i, r := range s {
		out = append(out, pdf.Text{
			Font:     "Helvetica",
			FontSize: 10,
			X:        x + float64(i)*5,
			Y:        y,
			W:        5,
			S:        string(r),
		})
	}
	return out
}

func TestAssembleWordsJoinsPhrases(t *testing.T) {
	var chars []pdf.Text
	chars = append(chars, glyphs(100, 700, "Kids")...)  // ends at 120
	chars = append(chars, glyphs(125, 700, "Bento")...) // 5pt gap: same phrase

	words := assembleWords(chars)
	require.Len(t, words, 1)
	assert.Equal(t, "Kids Bento", words[0].Text)
	assert.Equal(t, 100.0, words[0].X)
	assert.Equal(t, 700.0, words[0].Y)
	assert.Equal(t, 50.0, words[0].W)
}

func TestAssembleWordsSplitsColumns(t *testing.T) {
	var chars []pdf.Text
	chars = append(chars, glyphs(40, 700, "Beer")...)
	chars = append(chars, glyphs(100, 700, "Sapporo")...) // 40pt gap: new phrase

	words := assembleWords(chars)
	require.Len(t, words, 2)
	assert.Equal(t, "Beer", words[0].Text)
	assert.Equal(t, "Sapporo", words[1].Text)
	assert.Equal(t, 100.0, words[1].X)
}

func TestAssembleWordsCurrency(t *testing.T) {
	var chars []pdf.Text
	chars = append(chars, glyphs(300, 700, "$")...)
	chars = append(chars, glyphs(307, 700, "56.00")...)

	words := assembleWords(chars)
	require.Len(t, words, 1)
	assert.Equal(t, "$ 56.00", words[0].Text)
	assert.Equal(t, 300.0, words[0].X)
}

func TestAssembleWordsNudgesBaselines(t *testing.T) {
	// Sub-point baseline jitter must not split a visual line in two.
	var chars []pdf.Text
	chars = append(chars, glyphs(100, 700, "ab")...)
	chars = append(chars, glyphs(110, 700.4, "cd")...)

	words := assembleWords(chars)
	require.Len(t, words, 1)
	assert.Equal(t, "abcd", words[0].Text)
}

func TestAssembleWordsKeepsLinesApart(t *testing.T) {
	var chars []pdf.Text
	chars = append(chars, glyphs(100, 700, "first")...)
	chars = append(chars, glyphs(100, 680, "second")...)

	words := assembleWords(chars)
	require.Len(t, words, 2)
	// Top of page comes first.
	assert.Equal(t, "first", words[0].Text)
	assert.Equal(t, "second", words[1].Text)
}

func TestAssembleWordsSplitsOnFontSize(t *testing.T) {
	chars := glyphs(100, 700, "Item")
	big := pdf.Text{Font: "Helvetica", FontSize: 14, X: 122, Y: 700, W: 7, S: "X"}
	chars = append(chars, big)

	words := assembleWords(chars)
	require.Len(t, words, 2)
	assert.Equal(t, "Item", words[0].Text)
	assert.Equal(t, "X", words[1].Text)
}
