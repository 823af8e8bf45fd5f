// Package export renders the parchi ledger as CSV or XLSX and ships it to
// the market committee's FTP drop.
package export

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/mandi-setu/parchi-cli/internal/model"
)

var ledgerHeader = []string{
	"parchi_id", "product", "quantity", "unit", "unit_price",
	"total_amount", "mandi_cess", "final_amount", "vendor_id",
	"status", "language", "created_at",
}

// Summary aggregates the ledger for the committee's daily totals.
type Summary struct {
	Count        int     `json:"count"`
	TotalAmount  float64 `json:"total_amount"`
	TotalCess    float64 `json:"total_cess"`
	TotalPayable float64 `json:"total_payable"`
	AverageTrade float64 `json:"average_trade"`
}

// Summarize computes ledger totals over the given parchis. Cancelled
// parchis are listed but never counted toward totals.
func Summarize(parchis []model.DigitalParchi) Summary {
	var s Summary
	for _, p := range parchis {
		if p.Status == model.ParchiStatusCancelled {
			continue
		}
		s.Count++
		s.TotalAmount += p.TradeData.TotalAmount
		s.TotalCess += p.TradeData.MandiCess
		s.TotalPayable += p.TradeData.FinalAmount
	}
	if s.Count > 0 {
		s.AverageTrade = s.TotalAmount / float64(s.Count)
	}
	return s
}

// BuildCSV renders the parchis as a CSV ledger with a trailing totals row.
func BuildCSV(parchis []model.DigitalParchi) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(ledgerHeader); err != nil {
		return nil, eris.Wrap(err, "export: write csv header")
	}
	for _, p := range parchis {
		if err := w.Write(ledgerRow(p)); err != nil {
			return nil, eris.Wrapf(err, "export: write csv row %s", p.ID)
		}
	}

	s := Summarize(parchis)
	totals := []string{
		"TOTAL", "", "", "", "",
		money(s.TotalAmount), money(s.TotalCess), money(s.TotalPayable),
		"", "", "", strconv.Itoa(s.Count) + " parchis",
	}
	if err := w.Write(totals); err != nil {
		return nil, eris.Wrap(err, "export: write csv totals")
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, eris.Wrap(err, "export: flush csv")
	}
	return buf.Bytes(), nil
}

// BuildXLSX renders the parchis as a single-sheet workbook with a totals row.
func BuildXLSX(parchis []model.DigitalParchi) ([]byte, error) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Parchis")
	if err != nil {
		return nil, eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range ledgerHeader {
		header.AddCell().Value = h
	}

	for _, p := range parchis {
		row := sheet.AddRow()
		for _, cell := range ledgerRow(p) {
			row.AddCell().Value = cell
		}
	}

	s := Summarize(parchis)
	totals := sheet.AddRow()
	totals.AddCell().Value = "TOTAL"
	for i := 0; i < 4; i++ {
		totals.AddCell()
	}
	totals.AddCell().Value = money(s.TotalAmount)
	totals.AddCell().Value = money(s.TotalCess)
	totals.AddCell().Value = money(s.TotalPayable)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, eris.Wrap(err, "export: write xlsx")
	}
	return buf.Bytes(), nil
}

func ledgerRow(p model.DigitalParchi) []string {
	t := p.TradeData
	return []string{
		p.ID,
		t.ProductName,
		strconv.FormatFloat(t.Quantity, 'f', -1, 64),
		t.Unit,
		money(t.UnitPrice),
		money(t.TotalAmount),
		money(t.MandiCess),
		money(t.FinalAmount),
		p.VendorID,
		string(p.Status),
		t.Language,
		p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
