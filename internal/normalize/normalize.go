// Package normalize turns raw extracted rows into typed sales records.
package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/fdsanalytics/pmix-importer/constants"
	"github.com/fdsanalytics/pmix-importer/internal/entity"
	"github.com/fdsanalytics/pmix-importer/internal/pdftext"
)

// MalformedRowError reports a row whose fields could not be normalized. The
// raw tokens ride along so the operator can find the line in the source PDF.
type MalformedRowError struct {
	Category string
	ItemName string
	Field    string
	Value    string
	Reason   string
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("malformed row (category %q, item %q): %s %q: %s",
		e.Category, e.ItemName, e.Field, e.Value, e.Reason)
}

var currencyCleaner = strings.NewReplacer("$", "", ",", "", " ", "")

// ParseCurrency parses report money strings: "$ 1,234.56", "$1,234.56",
// "1234.56". Sign is preserved; "-$5.00" and "($5.00)" both come back as -5.
// Empty cells mean zero.
func ParseCurrency(s string) (float64, error) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return 0, nil
	}
	neg := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		neg = true
		cleaned = cleaned[1 : len(cleaned)-1]
	}
	cleaned = currencyCleaner.Replace(cleaned)
	if cleaned == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable currency %q", s)
	}
	if neg {
		v = -v
	}
	return v, nil
}

// ParseQuantity parses "7" or "7.00" to 7. Fractional counts are rejected:
// the reports sell whole items, so "7.50" means the column split picked up
// the wrong token, not that half an item sold.
func ParseQuantity(s string) (int, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if cleaned == "" {
		return 0, fmt.Errorf("empty quantity")
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable quantity %q", s)
	}
	if v != math.Trunc(v) {
		return 0, fmt.Errorf("fractional quantity %q", s)
	}
	if v < 0 {
		return 0, fmt.Errorf("negative quantity %q", s)
	}
	return int(v), nil
}

// Normalizer maps extracted rows onto persistable records for one location.
type Normalizer struct {
	Location string
}

// Output is the result of normalizing one document.
type Output struct {
	Records []entity.SalesRecord
	// Closed is set when the document carried the closed-day sentinel. A
	// closed day produces no records; its date simply stays absent from
	// item_sales.
	Closed bool
	// Dropped lists rows discarded in lenient mode, one description each.
	Dropped []string
	// Merged counts rows folded into an earlier record with the same item
	// name, keeping (report_date, location, item_name) unique.
	Merged int
}

// Normalize converts rows into records. In strict form (lenient=false) the
// first malformed row aborts with a *MalformedRowError; in lenient form such
// rows are dropped and reported through Output.Dropped.
func (n Normalizer) Normalize(doc *pdftext.Document, rows []entity.ExtractedRow, lenient bool) (Output, error) {
	var out Output
	seen := make(map[string]int)
	for _, raw := range rows {
		item := strings.TrimSpace(raw.ItemName)
		if item == constants.ClosedDaySentinel {
			out.Closed = true
			continue
		}

		rec, err := n.normalizeRow(doc, raw, item)
		if err != nil {
			if !lenient {
				return Output{}, err
			}
			out.Dropped = append(out.Dropped, err.Error())
			continue
		}

		if idx, ok := seen[item]; ok {
			prev := &out.Records[idx]
			prev.QuantitySold += rec.QuantitySold
			prev.NetSales = round2(prev.NetSales + rec.NetSales)
			prev.Discount = round2(prev.Discount + rec.Discount)
			out.Merged++
			continue
		}
		seen[item] = len(out.Records)
		out.Records = append(out.Records, rec)
	}
	return out, nil
}

func (n Normalizer) normalizeRow(doc *pdftext.Document, raw entity.ExtractedRow, item string) (entity.SalesRecord, error) {
	malformed := func(field, value, reason string) error {
		return &MalformedRowError{
			Category: raw.Category,
			ItemName: item,
			Field:    field,
			Value:    value,
			Reason:   reason,
		}
	}

	if item == "" {
		return entity.SalesRecord{}, malformed("item_name", raw.ItemName, "missing")
	}
	qty, err := ParseQuantity(raw.Quantity)
	if err != nil {
		return entity.SalesRecord{}, malformed("quantity_sold", raw.Quantity, err.Error())
	}
	net, err := ParseCurrency(raw.NetSales)
	if err != nil {
		return entity.SalesRecord{}, malformed("net_sales", raw.NetSales, err.Error())
	}
	discount, err := ParseCurrency(raw.Discount)
	if err != nil {
		return entity.SalesRecord{}, malformed("discount", raw.Discount, err.Error())
	}
	if discount < 0 {
		return entity.SalesRecord{}, malformed("discount", raw.Discount, "negative discount")
	}

	return entity.SalesRecord{
		ReportDate:      doc.ReportDate,
		Location:        n.Location,
		PrimaryCategory: optional(raw.PrimaryCategory),
		Category:        optional(raw.Category),
		ItemName:        item,
		QuantitySold:    qty,
		NetSales:        round2(net),
		Discount:        round2(discount),
		DataSource:      constants.DataSourcePDF(doc.FileName),
	}, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
