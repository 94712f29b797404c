// Package report builds xlsx exports for operators: the stored price
// history and the physical gold ledger, one sheet each.
package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/oumg-gold/oumg-console/internal/api"
	"github.com/oumg-gold/oumg-console/internal/db"
	"github.com/oumg-gold/oumg-console/internal/render"
	"github.com/oumg-gold/oumg-console/internal/utils"
)

const (
	priceSheet  = "Price History"
	ledgerSheet = "Gold Ledger"
)

// Build returns the workbook as bytes, ready to upload as a document.
// Either input may be empty; the sheet still gets its header row.
func Build(history []db.HistoryRow, ledger []api.GoldLedgerEntry) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", priceSheet)
	if err := writePriceSheet(f, history); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(ledgerSheet); err != nil {
		return nil, err
	}
	if err := writeLedgerSheet(f, ledger); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writePriceSheet(f *excelize.File, rows []db.HistoryRow) error {
	header := []any{"Fetched (MYT)", "Base MYR/g", "Buy MYR/g", "Sell MYR/g", "User Buy", "User Sell", "Spread MYR", "Spread bps", "Source", "Updated At", "Note"}
	if err := f.SetSheetRow(priceSheet, "A1", &header); err != nil {
		return err
	}
	for i, r := range rows {
		s := r.Snapshot
		cells := []any{
			utils.DateTimeKL(r.FetchedAt),
			cellF(s.Base), cellF(s.Buy), cellF(s.Sell),
			cellF(s.UserBuy), cellF(s.UserSell),
			cellF(s.SpreadMYR), cellI(s.SpreadBps),
			s.Source, s.UpdatedAt, s.Note,
		}
		if err := f.SetSheetRow(priceSheet, fmt.Sprintf("A%d", i+2), &cells); err != nil {
			return err
		}
	}
	return f.SetColWidth(priceSheet, "A", "A", 20)
}

func writeLedgerSheet(f *excelize.File, rows []api.GoldLedgerEntry) error {
	header := []any{"Date", "Intake g", "Source", "Purity bp", "Serial", "Batch", "Storage", "Custody", "Insurance", "Audit Ref", "Note"}
	if err := f.SetSheetRow(ledgerSheet, "A1", &header); err != nil {
		return err
	}
	for i, e := range rows {
		cells := []any{
			e.EntryDate, e.IntakeG, e.Source, cellI(e.PurityBp),
			e.Serial, e.Batch, e.Storage, e.Custody,
			e.Insurance, e.AuditRef, e.Note,
		}
		if err := f.SetSheetRow(ledgerSheet, fmt.Sprintf("A%d", i+2), &cells); err != nil {
			return err
		}
	}
	return nil
}

// Filename is the suggested attachment name for a workbook built now.
func Filename() string {
	return "oumg-report-" + utils.DateKL(utils.NowKL()) + ".xlsx"
}

func cellF(p *float64) any {
	if p == nil {
		return render.Dash
	}
	return *p
}

func cellI(p *int64) any {
	if p == nil {
		return render.Dash
	}
	return *p
}
