package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/mandi-setu/parchi-cli/internal/model"
)

func sampleParchis() []model.DigitalParchi {
	wheat := model.NewParchi(model.TradeData{
		ProductName: "wheat", Quantity: 10, Unit: "quintal", UnitPrice: 25.50,
		TotalAmount: 255.00, MandiCess: 12.75, FinalAmount: 267.75, Language: "hi",
	})
	wheat.VendorID = "vendor-1"
	_ = wheat.Complete()

	onion := model.NewParchi(model.TradeData{
		ProductName: "onion", Quantity: 5, Unit: "kg", UnitPrice: 30,
		TotalAmount: 150.00, MandiCess: 7.50, FinalAmount: 157.50, Language: "en",
	})
	_ = onion.Complete()

	cancelled := model.NewParchi(model.TradeData{
		ProductName: "potato", Quantity: 2, Unit: "bag", UnitPrice: 100,
		TotalAmount: 200.00, MandiCess: 10.00, FinalAmount: 210.00,
	})
	_ = cancelled.Cancel()

	return []model.DigitalParchi{*wheat, *onion, *cancelled}
}

func TestSummarize_SkipsCancelled(t *testing.T) {
	t.Parallel()

	s := Summarize(sampleParchis())
	assert.Equal(t, 2, s.Count)
	assert.InDelta(t, 405.00, s.TotalAmount, 0.0001)
	assert.InDelta(t, 20.25, s.TotalCess, 0.0001)
	assert.InDelta(t, 425.25, s.TotalPayable, 0.0001)
	assert.InDelta(t, 202.50, s.AverageTrade, 0.0001)
}

func TestSummarize_Empty(t *testing.T) {
	t.Parallel()

	s := Summarize(nil)
	assert.Zero(t, s.Count)
	assert.Zero(t, s.AverageTrade)
}

func TestBuildCSV(t *testing.T) {
	t.Parallel()

	data, err := BuildCSV(sampleParchis())
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)

	// Header + three parchis + totals row.
	require.Len(t, records, 5)
	assert.Equal(t, ledgerHeader, records[0])

	assert.Equal(t, "wheat", records[1][1])
	assert.Equal(t, "10", records[1][2])
	assert.Equal(t, "255.00", records[1][5])
	assert.Equal(t, "12.75", records[1][6])
	assert.Equal(t, "vendor-1", records[1][8])
	assert.Equal(t, "COMPLETED", records[1][9])

	assert.Equal(t, "CANCELLED", records[3][9])

	totals := records[4]
	assert.Equal(t, "TOTAL", totals[0])
	assert.Equal(t, "405.00", totals[5])
	assert.Equal(t, "20.25", totals[6])
	assert.Equal(t, "425.25", totals[7])
	assert.Equal(t, "2 parchis", totals[11])
}

func TestBuildCSV_EmptyLedger(t *testing.T) {
	t.Parallel()

	data, err := BuildCSV(nil)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "TOTAL", records[1][0])
	assert.Equal(t, "0 parchis", records[1][11])
}

func TestBuildXLSX(t *testing.T) {
	t.Parallel()

	data, err := BuildXLSX(sampleParchis())
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := xlsx.OpenBinary(data)
	require.NoError(t, err)
	sheet, ok := f.Sheet["Parchis"]
	require.True(t, ok)

	// Header + three parchis + totals row.
	require.Len(t, sheet.Rows, 5)
	assert.Equal(t, "parchi_id", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "wheat", sheet.Rows[1].Cells[1].String())
	assert.Equal(t, "TOTAL", sheet.Rows[4].Cells[0].String())
	assert.Equal(t, "405.00", sheet.Rows[4].Cells[5].String())
}

func TestFTPUploader_Defaults(t *testing.T) {
	t.Parallel()

	u := NewFTPUploader("ftp.mandi.example", "", "", "ledgers")
	assert.Equal(t, "anonymous", u.User)
	assert.Equal(t, "anonymous@", u.Password)
	assert.Equal(t, "ledgers", u.Dir)

	// No address configured fails before dialing.
	err := (&FTPUploader{}).Upload(context.Background(), "x.csv", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no address")
}
