package render

import (
	"strings"
	"testing"

	"github.com/oumg-gold/oumg-console/internal/pricing"
)

func fp(v float64) *float64 { return &v }

func TestMYR(t *testing.T) {
	if got := MYR(nil); got != Dash {
		t.Fatalf("nil: got %q", got)
	}
	if got := MYR(fp(1234.5)); got != "RM 1,234.50" {
		t.Fatalf("got %q", got)
	}
	if got := MYR(fp(0)); got != "RM 0.00" {
		t.Fatalf("explicit zero must render, got %q", got)
	}
}

func TestBps(t *testing.T) {
	if got := Bps(nil); got != Dash {
		t.Fatalf("nil: got %q", got)
	}
	n := int64(1250)
	if got := Bps(&n); got != "1,250 bps" {
		t.Fatalf("got %q", got)
	}
}

func TestGrams(t *testing.T) {
	cases := map[float64]string{
		1:       "1 g",
		2.5:     "2.5 g",
		0.1234:  "0.1234 g",
		1000.05: "1,000.05 g",
	}
	for in, want := range cases {
		if got := Grams(in); got != want {
			t.Errorf("Grams(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestDateTime(t *testing.T) {
	if got := DateTime(""); got != Dash {
		t.Fatalf("empty: got %q", got)
	}
	// UTC+8: 10:00Z is 18:00 in KL.
	if got := DateTime("2025-08-01T10:00:00Z"); got != "2025/08/01 18:00" {
		t.Fatalf("rfc3339: got %q", got)
	}
	// Whatever can't be parsed is shown as received.
	if got := DateTime("last tuesday"); got != "last tuesday" {
		t.Fatalf("passthrough: got %q", got)
	}
}

func TestSnapshotCardFallback(t *testing.T) {
	card := SnapshotCard(pricing.Snapshot{}, 500)
	if !strings.Contains(card, "RM 500.00 (fallback)") {
		t.Fatalf("empty snapshot should show the fallback price:\n%s", card)
	}
	if !strings.Contains(card, Dash) {
		t.Fatalf("absent fields should render as %s:\n%s", Dash, card)
	}

	s := pricing.Normalize(map[string]any{"price_myr_per_g": 500.0, "spread_bps": 100, "source": "cron"})
	card = SnapshotCard(s, 500)
	for _, want := range []string{"CRON", "RM 502.50", "RM 497.50", "100 bps"} {
		if !strings.Contains(card, want) {
			t.Fatalf("card missing %q:\n%s", want, card)
		}
	}
}
