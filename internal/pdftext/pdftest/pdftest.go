// Package pdftest builds small single-font PDFs with text placed at exact
// coordinates, for exercising the real PDF reading path in tests.
package pdftest

import (
	"bytes"
	"fmt"
	"strings"
)

// Word places Text with its baseline origin at (X, Y) in PDF user space,
// origin bottom-left.
type Word struct {
	X, Y float64
	Text string
}

// Page is one page of placed words.
type Page []Word

const (
	// FontSize is the size every word renders at.
	FontSize = 10
	// CharWidth is the advance of every glyph. The embedded font metrics are
	// deliberately monospaced so tests can predict phrase widths: a word of
	// n characters spans exactly n*CharWidth points.
	CharWidth = 5.0
)

// Build renders pages into a complete PDF document.
func Build(pages ...Page) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	var offsets []int
	writeObj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}

	writeObj("<< /Type /Catalog /Pages 2 0 R >>")
	writeObj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	writeObj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding" +
		" /FirstChar 32 /LastChar 126 /Widths [" + glyphWidths() + "] >>")

	for i, page := range pages {
		writeObj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792]"+
			" /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 4+2*i+1))

		var sb strings.Builder
		for _, w := range page {
			fmt.Fprintf(&sb, "BT /F1 %d Tf 1 0 0 1 %.2f %.2f Tm (%s) Tj ET\n",
				FontSize, w.X, w.Y, escapeString(w.Text))
		}
		stream := sb.String()
		writeObj(fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", len(stream), stream))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(offsets)+1, xref)
	return buf.Bytes()
}

// glyphWidths returns the /Widths array body: every printable ASCII glyph
// advances CharWidth at FontSize (width 500 in 1000-unit glyph space).
func glyphWidths() string {
	const n = 126 - 32 + 1
	return strings.TrimSpace(strings.Repeat("500 ", n))
}

func escapeString(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '(', ')', '\\':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
