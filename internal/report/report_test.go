package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/oumg-gold/oumg-console/internal/api"
	"github.com/oumg-gold/oumg-console/internal/db"
	"github.com/oumg-gold/oumg-console/internal/pricing"
)

func TestBuildWorkbook(t *testing.T) {
	history := []db.HistoryRow{
		{
			FetchedAt: time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC),
			Snapshot:  pricing.Normalize(map[string]any{"price_myr_per_g": 500.0, "spread_bps": 100, "source": "cron"}),
		},
		{
			FetchedAt: time.Date(2025, 8, 1, 11, 0, 0, 0, time.UTC),
			Snapshot:  pricing.Normalize(map[string]any{"buy_myr_per_g": 523.0, "sell_myr_per_g": 517.0, "source": "manual"}),
		},
	}
	purity := int64(9999)
	ledger := []api.GoldLedgerEntry{
		{EntryDate: "2025-08-01", IntakeG: 1000, Source: "refinery", PurityBp: &purity, Batch: "B-17"},
	}

	data, err := Build(history, ledger)
	if err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if got := f.GetSheetList(); len(got) != 2 {
		t.Fatalf("expected 2 sheets, got %v", got)
	}

	rows, err := f.GetRows("Price History")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("price sheet: want header + 2 rows, got %d", len(rows))
	}
	// Second data row has no base; the cell renders as a dash, not zero.
	if rows[2][1] != "—" {
		t.Fatalf("absent base cell = %q", rows[2][1])
	}
	if rows[1][8] != "cron" {
		t.Fatalf("source cell = %q", rows[1][8])
	}

	lrows, err := f.GetRows("Gold Ledger")
	if err != nil {
		t.Fatal(err)
	}
	if len(lrows) != 2 || lrows[1][2] != "refinery" {
		t.Fatalf("ledger sheet rows: %v", lrows)
	}
}

func TestFilename(t *testing.T) {
	name := Filename()
	if len(name) == 0 || name[len(name)-5:] != ".xlsx" {
		t.Fatalf("unexpected filename %q", name)
	}
}
