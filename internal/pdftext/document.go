// Package pdftext loads PMIX report PDFs into positioned words.
//
// The PDF library hands back one fragment per glyph run; column detection
// needs whole labels ("Sushi Rolls", "$ 56.00"), so fragments are reassembled
// into phrases before anything else looks at the page. Coordinates are PDF
// user space: origin bottom-left, y increasing upward.
package pdftext

import (
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/ledongthuc/pdf"
)

// Word is one assembled phrase with its page position. W is the rendered
// width, so the phrase occupies [X, X+W] horizontally.
type Word struct {
	Text string
	X    float64
	Y    float64
	W    float64
}

// Page holds the assembled words of one page.
type Page struct {
	Number int
	Words  []Word
}

// Document is one loaded report. ReportDate comes from the file name, never
// from page content; page content only cross-checks it.
type Document struct {
	FileName   string
	ReportDate time.Time
	Pages      []Page
}

// Open reads the report at path. The file name must carry a trailing
// YYYY-MM-DD date in its stem.
func Open(path string) (*Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", filepath.Base(path), err)
	}
	defer func() { _ = f.Close() }()
	return read(r, filepath.Base(path))
}

// Read parses a report from an in-memory PDF. name plays the role of the
// file name: it supplies the report date and the provenance tag.
func Read(r io.ReaderAt, size int64, name string) (*Document, error) {
	pr, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("read pdf %s: %w", name, err)
	}
	return read(pr, name)
}

func read(r *pdf.Reader, name string) (*Document, error) {
	date, err := ReportDateFromName(name)
	if err != nil {
		return nil, err
	}
	doc := &Document{FileName: name, ReportDate: date}
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		doc.Pages = append(doc.Pages, Page{Number: i, Words: assembleWords(p.Content().Text)})
	}
	if len(doc.Pages) == 0 {
		return nil, fmt.Errorf("pdf %s has no readable pages", name)
	}
	return doc, nil
}

var contentDateRE = regexp.MustCompile(`(\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}/\d{4})`)

// ContentDates returns the distinct dates printed on the first page, in
// print order. Reports print their date in the header; a mismatch against
// the file name usually means a mislabeled upload.
func (d *Document) ContentDates() []time.Time {
	if len(d.Pages) == 0 {
		return nil
	}
	words := append([]Word(nil), d.Pages[0].Words...)
	sort.SliceStable(words, func(i, j int) bool {
		if words[i].Y != words[j].Y {
			return words[i].Y > words[j].Y
		}
		return words[i].X < words[j].X
	})
	seen := make(map[time.Time]struct{})
	var dates []time.Time
	for _, w := range words {
		for _, m := range contentDateRE.FindAllString(w.Text, -1) {
			t, err := parseContentDate(m)
			if err != nil {
				continue
			}
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			dates = append(dates, t)
		}
	}
	return dates
}

func parseContentDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "1/2/2006"} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}
