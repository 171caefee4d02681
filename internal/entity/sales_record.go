package entity

import (
	"encoding/json"
	"time"
)

// SalesRecord is one item's sales for one report date, the unit persisted to
// item_sales. NetSales keeps its sign: refund-heavy days come through as
// negative amounts.
type SalesRecord struct {
	ReportDate      time.Time `json:"report_date"`
	Location        string    `json:"location"`
	PrimaryCategory *string   `json:"primary_category"`
	Category        *string   `json:"category"`
	ItemName        string    `json:"item_name"`
	QuantitySold    int       `json:"quantity_sold"`
	NetSales        float64   `json:"net_sales"`
	Discount        float64   `json:"discount"`
	DataSource      string    `json:"data_source"`
}

// MarshalJSON emits the report date as a plain YYYY-MM-DD, the form the
// downstream warehouse loaders expect.
func (r SalesRecord) MarshalJSON() ([]byte, error) {
	type alias SalesRecord
	return json.Marshal(struct {
		ReportDate string `json:"report_date"`
		alias
	}{
		ReportDate: r.ReportDate.Format("2006-01-02"),
		alias:      alias(r),
	})
}

// TotalSales sums net sales across records.
func TotalSales(records []SalesRecord) float64 {
	var sum float64
	for _, r := range records {
		sum += r.NetSales
	}
	return sum
}

// TotalQuantity sums quantities across records.
func TotalQuantity(records []SalesRecord) int {
	var sum int
	for _, r := range records {
		sum += r.QuantitySold
	}
	return sum
}
