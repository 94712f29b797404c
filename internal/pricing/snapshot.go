package pricing

// Snapshot is the canonical gold price record (MYR per gram).
// Nil pointer fields mean "the backend did not provide this and it could not
// be derived"; they are rendered as "—", never as zero.
type Snapshot struct {
	Base     *float64 // reference/mid price
	Buy      *float64 // internal buy
	Sell     *float64 // internal sell
	UserBuy  *float64 // end-user facing buy, defaults to Buy
	UserSell *float64 // end-user facing sell, defaults to Sell

	SpreadMYR *float64 // |buy - sell| in MYR/g
	SpreadBps *int64   // spread as basis points of Base

	Source    string // provenance tag, e.g. "manual" or "cron"
	UpdatedAt string // effective time, kept as received (display parses it)
	Note      string
}

// IsZero reports whether nothing at all was extracted or derived.
func (s Snapshot) IsZero() bool {
	return s.Base == nil && s.Buy == nil && s.Sell == nil &&
		s.UserBuy == nil && s.UserSell == nil &&
		s.SpreadMYR == nil && s.SpreadBps == nil &&
		s.Source == "" && s.UpdatedAt == "" && s.Note == ""
}

// EffectiveUserBuy is the price the user app charges per gram:
// user buy if set, else internal buy, else the base price.
func (s Snapshot) EffectiveUserBuy() (float64, bool) {
	switch {
	case s.UserBuy != nil:
		return *s.UserBuy, true
	case s.Buy != nil:
		return *s.Buy, true
	case s.Base != nil:
		return *s.Base, true
	}
	return 0, false
}

// Raw re-expresses the snapshot as a raw map using the canonical key
// spellings. Normalize(s.Raw()) == s for any normalized s; the map is also
// what gets persisted alongside the history row.
func (s Snapshot) Raw() map[string]any {
	m := map[string]any{}
	if s.Base != nil {
		m["price_myr_per_g"] = *s.Base
	}
	if s.Buy != nil {
		m["buy_myr_per_g"] = *s.Buy
	}
	if s.Sell != nil {
		m["sell_myr_per_g"] = *s.Sell
	}
	if s.UserBuy != nil {
		m["user_buy_myr_per_g"] = *s.UserBuy
	}
	if s.UserSell != nil {
		m["user_sell_myr_per_g"] = *s.UserSell
	}
	if s.SpreadMYR != nil {
		m["spread_myr_per_g"] = *s.SpreadMYR
	}
	if s.SpreadBps != nil {
		m["spread_bps"] = *s.SpreadBps
	}
	if s.Source != "" {
		m["source"] = s.Source
	}
	if s.UpdatedAt != "" {
		m["updated_at"] = s.UpdatedAt
	}
	if s.Note != "" {
		m["note"] = s.Note
	}
	return m
}
