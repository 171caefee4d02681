package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fdsanalytics/pmix-importer/internal/entity"
	"github.com/fdsanalytics/pmix-importer/internal/pdftext"
)

func TestTableExtract(t *testing.T) {
	ex := &TableExtractor{Boundaries: DefaultBoundaries()}
	res, err := ex.Extract(tableDoc())
	require.NoError(t, err)

	assert.Equal(t, LayoutTable, res.Layout)
	require.Len(t, res.Rows, 12)

	assert.Equal(t, entity.ExtractedRow{
		PrimaryCategory: "(Food)",
		Category:        "Rolls",
		ItemName:        "Roll 01",
		Quantity:        "7.00",
		NetSales:        "$7.00",
		Discount:        "$0.00",
		Page:            1,
		Y:               710,
	}, res.Rows[0])

	// Split item phrases land in the same cell and rejoin.
	assert.Equal(t, "Roll Twelve", res.Rows[11].ItemName)

	// The Gift Card line is a category summary, not an item.
	require.Contains(t, res.Totals.Categories, "Gift Card")
	assert.Equal(t, entity.CategoryTotal{Quantity: 3, NetSales: 75}, res.Totals.Categories["Gift Card"])
	for _, row := range res.Rows {
		assert.NotEqual(t, "Gift Card", row.Category)
	}

	require.NotNil(t, res.Totals.GrandTotal)
	assert.Equal(t, 159.0, *res.Totals.GrandTotal)
	require.NotNil(t, res.Totals.GrandQuantity)
	assert.Equal(t, 87, *res.Totals.GrandQuantity)
}

func TestTableExtractHeaderCarriesAcrossPages(t *testing.T) {
	page2 := []pdftext.Word{
		// No header reprint; the page-one column spans still apply.
		word(40, 710, "Beer"), word(100, 710, "Kirin"), word(195, 710, "2.00"),
		word(240, 710, "$12.00"), word(310, 710, "$6.00"), word(380, 710, "$0.00"),
		word(450, 710, "1.00%"), word(520, 710, "40.00%"),
	}
	doc := tableDoc()
	doc.Pages = append(doc.Pages, pdftext.Page{Number: 2, Words: page2})

	res, err := (&TableExtractor{}).Extract(doc)
	require.NoError(t, err)
	require.Len(t, res.Rows, 13)
	last := res.Rows[12]
	assert.Equal(t, 2, last.Page)
	assert.Equal(t, "Kirin", last.ItemName)
	assert.Equal(t, "$12.00", last.NetSales)
}

func TestTableExtractNoHeader(t *testing.T) {
	doc := docFromWords(
		word(40, 710, "Rolls"), word(100, 710, "Tekka Maki"), word(195, 710, "7.00"),
	)
	_, err := (&TableExtractor{}).Extract(doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLayoutUnrecognized)
}

func TestTableExtractSkipsBlankAndHeaderRows(t *testing.T) {
	var ws []pdftext.Word
	ws = append(ws, tableHeader(750)...)
	ws = append(ws,
		// A wrapped header remnant and a text-only separator line.
		word(40, 735, "Category"),
		word(40, 720, "continued on next page"),
		word(40, 705, "Sushi"), word(100, 705, "Unagi Don"), word(195, 705, "3.00"),
		word(240, 705, "$54.00"), word(310, 705, "$18.00"), word(380, 705, "$0.00"),
		word(450, 705, "9.00%"), word(520, 705, "100.00%"),
	)
	res, err := (&TableExtractor{}).Extract(docFromWords(ws...))
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "Unagi Don", res.Rows[0].ItemName)
}
