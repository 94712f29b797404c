package pricing

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// The backend has gone through several naming conventions for the price
// payload. Each canonical field accepts an ordered list of key spellings;
// the first key present in the raw map wins.
var (
	baseKeys      = []string{"price_myr_per_g", "computed_myr_per_g", "myrPerG", "price", "base_myr_per_g"}
	buyKeys       = []string{"buy_myr_per_g", "buyMyrPerG", "internalBuy", "buyPrice", "buy"}
	sellKeys      = []string{"sell_myr_per_g", "sellMyrPerG", "internalSell", "sellPrice", "sell"}
	userBuyKeys   = []string{"user_buy_myr_per_g", "userBuyMyrPerG", "user_buy"}
	userSellKeys  = []string{"user_sell_myr_per_g", "userSellMyrPerG", "user_sell"}
	spreadKeys    = []string{"spread_myr_per_g", "spreadMyrPerG", "myr_spread", "absolute_spread"}
	bpsKeys       = []string{"spread_bps", "markup_bps", "spreadBps", "markupBps"}
	updatedAtKeys = []string{"updated_at", "updatedAt", "last_updated", "lastUpdated", "effective_date", "effectiveDate", "created_at", "createdAt", "effectiveAt"}
	sourceKeys    = []string{"source", "kind"}
)

// Normalize converts an arbitrary backend price payload into a canonical
// Snapshot: alias keys are resolved, missing derived fields are filled in a
// fixed order, and currency values are rounded to 2 decimals (bps to the
// nearest integer). Fields the backend supplied are never overwritten, and
// fields that cannot be derived stay nil. Total over any input; never panics.
func Normalize(raw map[string]any) Snapshot {
	base := firstNumber(raw, baseKeys)
	buy := firstNumber(raw, buyKeys)
	sell := firstNumber(raw, sellKeys)
	userBuy := firstNumber(raw, userBuyKeys)
	userSell := firstNumber(raw, userSellKeys)
	spread := firstNumber(raw, spreadKeys)
	bps := firstNumber(raw, bpsKeys) // kept fractional until the final rounding

	// Derivation order matters: each step only fills what is still nil.
	if spread == nil && buy != nil && sell != nil {
		spread = ptr(math.Abs(*buy - *sell))
	}
	if spread == nil && base != nil && bps != nil && *base > 0 {
		spread = ptr(*base * *bps / 10000)
	}
	if (buy == nil || sell == nil) && base != nil && spread != nil {
		if buy == nil {
			buy = ptr(*base + *spread/2)
		}
		if sell == nil {
			sell = ptr(*base - *spread/2)
		}
	}
	if buy != nil && sell == nil && base != nil {
		sell = ptr(2*(*base) - *buy) // reflect buy around base
	} else if sell != nil && buy == nil && base != nil {
		buy = ptr(2*(*base) - *sell)
	}
	// Reflection may have completed the buy/sell pair; the spread (and
	// through it the bps) must follow or re-normalizing the output would
	// produce a different snapshot.
	if spread == nil && buy != nil && sell != nil {
		spread = ptr(math.Abs(*buy - *sell))
	}
	if bps == nil && base != nil && *base > 0 && spread != nil {
		bps = ptr(math.Round(*spread / *base * 10000))
	}
	if userBuy == nil && buy != nil {
		userBuy = ptr(*buy)
	}
	if userSell == nil && sell != nil {
		userSell = ptr(*sell)
	}

	return Snapshot{
		Base:      round2(base),
		Buy:       round2(buy),
		Sell:      round2(sell),
		UserBuy:   round2(userBuy),
		UserSell:  round2(userSell),
		SpreadMYR: round2(spread),
		SpreadBps: roundBps(bps),
		Source:    resolveSource(raw),
		UpdatedAt: firstString(raw, updatedAtKeys),
		Note:      firstString(raw, []string{"note"}),
	}
}

// firstNumber picks the first alias key present in raw (nil values count as
// absent) and parses it permissively. An unparseable present value resolves
// to absent without trying later aliases, matching how the console's ??
// chains behaved.
func firstNumber(raw map[string]any, keys []string) *float64 {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		f, ok := toFloat(v)
		if !ok {
			return nil
		}
		return &f
	}
	return nil
}

func firstString(raw map[string]any, keys []string) string {
	for _, k := range keys {
		if s, ok := raw[k].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

// resolveSource prefers an explicit source/kind value; a truthy legacy
// "manual" flag maps to the literal "manual".
func resolveSource(raw map[string]any) string {
	if s := firstString(raw, sourceKeys); s != "" {
		return s
	}
	if truthy(raw["manual"]) {
		return "manual"
	}
	return ""
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "true" || t == "1"
	default:
		if f, ok := toFloat(v); ok {
			return f != 0
		}
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		if err == nil {
			return f, true
		}
	case string:
		s := strings.TrimSpace(t)
		s = strings.ReplaceAll(s, ",", "")
		if s == "" || s == "-" {
			return 0, false
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f, true
		}
	}
	return 0, false
}

func ptr(f float64) *float64 { return &f }

func round2(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := math.Round(*p*100) / 100
	return &v
}

func roundBps(p *float64) *int64 {
	if p == nil {
		return nil
	}
	v := int64(math.Round(*p))
	return &v
}
