package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fdsanalytics/pmix-importer/internal/entity"
	"github.com/fdsanalytics/pmix-importer/internal/pdftext"
)

func TestParseCurrency(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"$ 56.00", 56},
		{"$56.00", 56},
		{"56.00", 56},
		{"$ 1,234.56", 1234.56},
		{"-$5.00", -5},
		{"($5.00)", -5},
		{"$0.00", 0},
		{"", 0},
		{"$", 0},
		{"  $ 12.30  ", 12.3},
	}
	for _, tc := range cases {
		got, err := ParseCurrency(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	_, err := ParseCurrency("abc")
	assert.Error(t, err)
	_, err = ParseCurrency("$12.34.56")
	assert.Error(t, err)
}

func TestParseQuantity(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"7", 7},
		{"7.00", 7},
		{"0", 0},
		{"1,024", 1024},
		{" 12 ", 12},
	}
	for _, tc := range cases {
		got, err := ParseQuantity(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	for _, in := range []string{"7.50", "-3", "", "x", "1.2.3"} {
		_, err := ParseQuantity(in)
		assert.Error(t, err, in)
	}
}

func testDoc() *pdftext.Document {
	return &pdftext.Document{
		FileName:   "pmix-senso-2025-06-14.pdf",
		ReportDate: time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC),
	}
}

func TestNormalize(t *testing.T) {
	n := Normalizer{Location: "senso-sushi"}
	rows := []entity.ExtractedRow{
		{PrimaryCategory: "(Food)", Category: "Kids", ItemName: "Kids Bento", Quantity: "5", NetSales: "$ 75.00", Discount: "$0.00"},
		{Category: "Beer", ItemName: "Sapporo", Quantity: "12", NetSales: "$ 60.00", Discount: "$5.00"},
	}

	out, err := n.Normalize(testDoc(), rows, false)
	require.NoError(t, err)
	require.Len(t, out.Records, 2)
	assert.False(t, out.Closed)

	r := out.Records[0]
	assert.Equal(t, time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC), r.ReportDate)
	assert.Equal(t, "senso-sushi", r.Location)
	require.NotNil(t, r.PrimaryCategory)
	assert.Equal(t, "(Food)", *r.PrimaryCategory)
	require.NotNil(t, r.Category)
	assert.Equal(t, "Kids", *r.Category)
	assert.Equal(t, "Kids Bento", r.ItemName)
	assert.Equal(t, 5, r.QuantitySold)
	assert.Equal(t, 75.0, r.NetSales)
	assert.Equal(t, 0.0, r.Discount)
	assert.Equal(t, "pdf:pmix-senso-2025-06-14.pdf", r.DataSource)

	assert.Nil(t, out.Records[1].PrimaryCategory)
}

func TestNormalizeNegativeNetSales(t *testing.T) {
	n := Normalizer{Location: "senso-sushi"}
	rows := []entity.ExtractedRow{
		{Category: "Adjust", ItemName: "Refund", Quantity: "1", NetSales: "-$12.00", Discount: ""},
	}

	out, err := n.Normalize(testDoc(), rows, false)
	require.NoError(t, err)
	require.Len(t, out.Records, 1)
	assert.Equal(t, -12.0, out.Records[0].NetSales)
}

func TestNormalizeClosedDay(t *testing.T) {
	n := Normalizer{Location: "senso-sushi"}
	rows := []entity.ExtractedRow{
		{Category: "Notice", ItemName: "[CLOSED]", Quantity: "0", NetSales: "", Discount: ""},
	}

	out, err := n.Normalize(testDoc(), rows, false)
	require.NoError(t, err)
	assert.True(t, out.Closed)
	assert.Empty(t, out.Records)
}

func TestNormalizeMergesDuplicateItems(t *testing.T) {
	n := Normalizer{Location: "senso-sushi"}
	rows := []entity.ExtractedRow{
		{Category: "Beer", ItemName: "Sapporo", Quantity: "2", NetSales: "$10.00", Discount: "$1.00"},
		{Category: "Beer", ItemName: "Sapporo", Quantity: "3", NetSales: "$15.00", Discount: "$0.50"},
	}

	out, err := n.Normalize(testDoc(), rows, false)
	require.NoError(t, err)
	require.Len(t, out.Records, 1)
	assert.Equal(t, 1, out.Merged)
	assert.Equal(t, 5, out.Records[0].QuantitySold)
	assert.Equal(t, 25.0, out.Records[0].NetSales)
	assert.Equal(t, 1.5, out.Records[0].Discount)
}

func TestNormalizeMalformedStrict(t *testing.T) {
	n := Normalizer{Location: "senso-sushi"}
	rows := []entity.ExtractedRow{
		{Category: "Beer", ItemName: "Sapporo", Quantity: "7.50", NetSales: "$10.00"},
	}

	_, err := n.Normalize(testDoc(), rows, false)
	require.Error(t, err)
	var malformed *MalformedRowError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "quantity_sold", malformed.Field)
	assert.Equal(t, "7.50", malformed.Value)
}

func TestNormalizeMalformedLenient(t *testing.T) {
	n := Normalizer{Location: "senso-sushi"}
	rows := []entity.ExtractedRow{
		{Category: "Beer", ItemName: "Sapporo", Quantity: "7.50", NetSales: "$10.00"},
		{Category: "Beer", ItemName: "Asahi", Quantity: "2", NetSales: "$12.00"},
	}

	out, err := n.Normalize(testDoc(), rows, true)
	require.NoError(t, err)
	require.Len(t, out.Records, 1)
	assert.Equal(t, "Asahi", out.Records[0].ItemName)
	require.Len(t, out.Dropped, 1)
	assert.Contains(t, out.Dropped[0], "quantity_sold")
}

func TestNormalizeRejects(t *testing.T) {
	n := Normalizer{Location: "senso-sushi"}
	cases := map[string]entity.ExtractedRow{
		"missing item":      {Category: "Beer", ItemName: "  ", Quantity: "2", NetSales: "$1.00"},
		"empty quantity":    {Category: "Beer", ItemName: "Asahi", Quantity: "", NetSales: "$1.00"},
		"bad currency":      {Category: "Beer", ItemName: "Asahi", Quantity: "2", NetSales: "one dollar"},
		"negative discount": {Category: "Beer", ItemName: "Asahi", Quantity: "2", NetSales: "$1.00", Discount: "-$2.00"},
	}
	for name, row := range cases {
		_, err := n.Normalize(testDoc(), []entity.ExtractedRow{row}, false)
		assert.Error(t, err, name)
	}
}
