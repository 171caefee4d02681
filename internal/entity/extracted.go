package entity

// ExtractedRow is one printed item line lifted from a report page, fields
// still in their source form. The normalizer owns all type conversion.
type ExtractedRow struct {
	PrimaryCategory string
	Category        string
	ItemName        string
	Quantity        string
	NetSales        string
	Discount        string
	Page            int
	Y               float64
}

// CategoryTotal is a printed category subtotal captured for validation.
type CategoryTotal struct {
	Quantity int
	NetSales float64
}

// ReportTotals carries the document's printed control figures. GrandTotal is
// nil when the report printed none.
type ReportTotals struct {
	GrandTotal    *float64
	GrandQuantity *int
	Categories    map[string]CategoryTotal
}
