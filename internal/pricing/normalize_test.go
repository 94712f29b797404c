package pricing

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"
)

func f(t *testing.T, p *float64) float64 {
	t.Helper()
	if p == nil {
		t.Fatal("expected a value, got nil")
	}
	return *p
}

func wantF(t *testing.T, name string, p *float64, want float64) {
	t.Helper()
	if p == nil {
		t.Fatalf("%s: expected %v, got nil", name, want)
	}
	if math.Abs(*p-want) > 1e-9 {
		t.Fatalf("%s: expected %v, got %v", name, want, *p)
	}
}

func TestNormalizeBuySellOnly(t *testing.T) {
	s := Normalize(map[string]any{"buy_myr_per_g": 520.0, "sell_myr_per_g": 515.0})

	if s.Base != nil {
		t.Fatalf("base should stay absent, got %v", *s.Base)
	}
	wantF(t, "buy", s.Buy, 520)
	wantF(t, "sell", s.Sell, 515)
	wantF(t, "spread", s.SpreadMYR, 5)
	if s.SpreadBps != nil {
		t.Fatalf("bps should stay absent without a base, got %v", *s.SpreadBps)
	}
	wantF(t, "userBuy", s.UserBuy, 520)
	wantF(t, "userSell", s.UserSell, 515)
}

func TestNormalizeBaseAndBps(t *testing.T) {
	s := Normalize(map[string]any{"price_myr_per_g": 500.0, "spread_bps": 100})

	wantF(t, "base", s.Base, 500)
	wantF(t, "spread", s.SpreadMYR, 5) // 500 * 100 / 10000
	wantF(t, "buy", s.Buy, 502.50)
	wantF(t, "sell", s.Sell, 497.50)
	if s.SpreadBps == nil || *s.SpreadBps != 100 {
		t.Fatalf("bps: expected 100, got %v", s.SpreadBps)
	}
	wantF(t, "userBuy", s.UserBuy, 502.50)
	wantF(t, "userSell", s.UserSell, 497.50)
}

func TestNormalizeReflectsSellAroundBase(t *testing.T) {
	s := Normalize(map[string]any{"price_myr_per_g": 517.0, "buy_myr_per_g": 520.0})

	wantF(t, "base", s.Base, 517)
	wantF(t, "buy", s.Buy, 520) // kept as supplied
	wantF(t, "sell", s.Sell, 514)
	wantF(t, "spread", s.SpreadMYR, 6)
	if s.SpreadBps == nil || *s.SpreadBps != 116 {
		t.Fatalf("bps must follow the reflected spread, got %v", s.SpreadBps)
	}
}

func TestNormalizeReflectsBuyAroundBase(t *testing.T) {
	s := Normalize(map[string]any{"price_myr_per_g": 517.0, "sell_myr_per_g": 514.0})

	wantF(t, "buy", s.Buy, 520)
	wantF(t, "sell", s.Sell, 514)
	wantF(t, "spread", s.SpreadMYR, 6)
}

func TestNormalizeEmptyInput(t *testing.T) {
	s := Normalize(map[string]any{})
	if !s.IsZero() {
		t.Fatalf("empty input should yield an all-absent snapshot, got %+v", s)
	}
	if s2 := Normalize(nil); !s2.IsZero() {
		t.Fatalf("nil input should yield an all-absent snapshot, got %+v", s2)
	}
}

func TestNormalizeNeverOverwrites(t *testing.T) {
	// Backend supplies everything, inconsistently. All supplied values must
	// survive untouched (modulo 2dp rounding).
	s := Normalize(map[string]any{
		"price_myr_per_g":     500.0,
		"buy_myr_per_g":       510.0,
		"sell_myr_per_g":      505.0,
		"user_buy_myr_per_g":  512.0,
		"user_sell_myr_per_g": 503.0,
		"spread_myr_per_g":    9.0, // inconsistent with |buy-sell| on purpose
		"spread_bps":          42,
	})

	wantF(t, "base", s.Base, 500)
	wantF(t, "buy", s.Buy, 510)
	wantF(t, "sell", s.Sell, 505)
	wantF(t, "userBuy", s.UserBuy, 512)
	wantF(t, "userSell", s.UserSell, 503)
	wantF(t, "spread", s.SpreadMYR, 9)
	if *s.SpreadBps != 42 {
		t.Fatalf("bps: expected 42, got %v", *s.SpreadBps)
	}
}

func TestNormalizeAliasOrder(t *testing.T) {
	// First listed alias wins even when later ones are also present.
	s := Normalize(map[string]any{
		"price_myr_per_g": 500.0,
		"price":           999.0,
		"buyMyrPerG":      505.0,
		"buy":             888.0,
	})
	wantF(t, "base", s.Base, 500)
	wantF(t, "buy", s.Buy, 505)

	// Later aliases are used when earlier ones are absent.
	s = Normalize(map[string]any{"myrPerG": 501.0, "internalSell": 498.0})
	wantF(t, "base", s.Base, 501)
	wantF(t, "sell", s.Sell, 498)
}

func TestNormalizePermissiveParsing(t *testing.T) {
	s := Normalize(map[string]any{
		"price_myr_per_g": "1,234.56",
		"buy_myr_per_g":   json.Number("1240"),
		"sell_myr_per_g":  1229,
		"spread_bps":      "not a number",
	})
	wantF(t, "base", s.Base, 1234.56)
	wantF(t, "buy", s.Buy, 1240)
	wantF(t, "sell", s.Sell, 1229)
	wantF(t, "spread", s.SpreadMYR, 11)

	// Garbage, null and exotic types all resolve to absent, never panic.
	s = Normalize(map[string]any{
		"price_myr_per_g": map[string]any{"nested": true},
		"buy_myr_per_g":   nil,
		"sell_myr_per_g":  []any{1, 2},
		"spread_myr_per_g": math.NaN(),
		"updated_at":      42,
	})
	if !s.IsZero() {
		t.Fatalf("malformed input should yield an all-absent snapshot, got %+v", s)
	}
}

func TestNormalizeRounding(t *testing.T) {
	s := Normalize(map[string]any{"buy_myr_per_g": 520.005, "sell_myr_per_g": 515.0011})
	wantF(t, "buy", s.Buy, 520.01)
	wantF(t, "sell", s.Sell, 515.00)
	wantF(t, "spread", s.SpreadMYR, 5.00)

	// Fractional bps keep their precision through derivation and are only
	// integer-rounded at the end.
	s = Normalize(map[string]any{"price_myr_per_g": 500.0, "spread_bps": "99.6"})
	wantF(t, "spread", s.SpreadMYR, 4.98)
	if *s.SpreadBps != 100 {
		t.Fatalf("bps: expected 100, got %v", *s.SpreadBps)
	}
}

func TestNormalizeBpsConsistency(t *testing.T) {
	s := Normalize(map[string]any{
		"price_myr_per_g":  500.0,
		"spread_myr_per_g": 7.3,
	})
	if s.SpreadBps == nil {
		t.Fatal("bps should be derived from base and spread")
	}
	want := int64(math.Round(7.3 / 500 * 10000))
	if *s.SpreadBps != want {
		t.Fatalf("bps: expected %d, got %d", want, *s.SpreadBps)
	}

	// Zero or negative base never divides.
	s = Normalize(map[string]any{"price_myr_per_g": 0.0, "spread_myr_per_g": 5.0})
	if s.SpreadBps != nil {
		t.Fatalf("bps should stay absent for base 0, got %v", *s.SpreadBps)
	}
	s = Normalize(map[string]any{"price_myr_per_g": 0.0, "spread_bps": 100})
	if s.SpreadMYR != nil {
		t.Fatalf("spread should stay absent for base 0, got %v", *s.SpreadMYR)
	}
}

func TestNormalizeSource(t *testing.T) {
	if s := Normalize(map[string]any{"source": "cron"}); s.Source != "cron" {
		t.Fatalf("source: expected cron, got %q", s.Source)
	}
	if s := Normalize(map[string]any{"kind": "manual"}); s.Source != "manual" {
		t.Fatalf("kind alias: expected manual, got %q", s.Source)
	}
	if s := Normalize(map[string]any{"manual": true}); s.Source != "manual" {
		t.Fatalf("manual flag: expected manual, got %q", s.Source)
	}
	if s := Normalize(map[string]any{"manual": false}); s.Source != "" {
		t.Fatalf("false manual flag: expected absent, got %q", s.Source)
	}
	if s := Normalize(map[string]any{"manual": 1}); s.Source != "manual" {
		t.Fatalf("numeric manual flag: expected manual, got %q", s.Source)
	}
}

func TestNormalizeUpdatedAtAliases(t *testing.T) {
	for _, key := range []string{"updated_at", "updatedAt", "last_updated", "lastUpdated", "effective_date", "effectiveDate", "created_at", "createdAt", "effectiveAt"} {
		s := Normalize(map[string]any{key: "2025-08-01T10:00:00Z"})
		if s.UpdatedAt != "2025-08-01T10:00:00Z" {
			t.Fatalf("%s: expected timestamp carried through, got %q", key, s.UpdatedAt)
		}
	}
	// First alias wins.
	s := Normalize(map[string]any{"created_at": "old", "updated_at": "new"})
	if s.UpdatedAt != "new" {
		t.Fatalf("expected updated_at to win, got %q", s.UpdatedAt)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []map[string]any{
		{},
		{"buy_myr_per_g": 520.0, "sell_myr_per_g": 515.0},
		{"price_myr_per_g": 500.0, "spread_bps": 100},
		{"price_myr_per_g": 517.0, "buy_myr_per_g": 520.0},
		{"price_myr_per_g": "500.123", "spread_myr_per_g": "7.3", "source": "cron", "updated_at": "2025-08-01", "note": "weekly reset"},
		{"myrPerG": 500.0, "markup_bps": "250", "manual": true},
	}
	for i, raw := range inputs {
		once := Normalize(raw)
		twice := Normalize(once.Raw())
		if !reflect.DeepEqual(snapshotValues(once), snapshotValues(twice)) {
			t.Fatalf("case %d: re-normalizing is not a fixed point:\nonce:  %#v\ntwice: %#v", i, snapshotValues(once), snapshotValues(twice))
		}
	}
}

// snapshotValues flattens pointers so DeepEqual compares values, not
// addresses.
func snapshotValues(s Snapshot) map[string]any {
	m := s.Raw()
	return m
}

func TestEffectiveUserBuy(t *testing.T) {
	if _, ok := (Snapshot{}).EffectiveUserBuy(); ok {
		t.Fatal("empty snapshot should have no effective price")
	}

	s := Normalize(map[string]any{"price_myr_per_g": 500.0})
	v, ok := s.EffectiveUserBuy()
	if !ok || v != 500 {
		t.Fatalf("base-only: expected 500, got %v ok=%v", v, ok)
	}

	s = Normalize(map[string]any{"price_myr_per_g": 500.0, "buy_myr_per_g": 505.0})
	if v, _ := s.EffectiveUserBuy(); v != 505 {
		t.Fatalf("buy beats base: expected 505, got %v", v)
	}

	s = Normalize(map[string]any{"buy_myr_per_g": 505.0, "user_buy_myr_per_g": 507.0})
	if v, _ := s.EffectiveUserBuy(); v != 507 {
		t.Fatalf("user buy beats buy: expected 507, got %v", v)
	}
}

func TestSpreadConsistency(t *testing.T) {
	// Whenever buy and sell are both populated alongside the spread, the
	// spread equals |buy-sell| at 2dp.
	inputs := []map[string]any{
		{"buy_myr_per_g": 523.404, "sell_myr_per_g": 515.117},
		{"price_myr_per_g": 500.0, "spread_bps": 137},
		{"price_myr_per_g": 511.5, "buy_myr_per_g": 513.25},
	}
	for i, raw := range inputs {
		s := Normalize(raw)
		if s.Buy == nil || s.Sell == nil || s.SpreadMYR == nil {
			t.Fatalf("case %d: expected buy/sell/spread populated, got %+v", i, s)
		}
		got := math.Round(math.Abs(*s.Buy-*s.Sell)*100) / 100
		if math.Abs(got-*s.SpreadMYR) > 0.011 {
			t.Fatalf("case %d: spread %v inconsistent with |buy-sell|=%v", i, *s.SpreadMYR, got)
		}
	}
}
