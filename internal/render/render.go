package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/oumg-gold/oumg-console/internal/api"
	"github.com/oumg-gold/oumg-console/internal/pricing"
	"github.com/oumg-gold/oumg-console/internal/utils"
)

// Dash is what every absent value renders as. A pricing display must degrade
// to this, never to zero and never to an error.
const Dash = "—"

// MYR formats an optional MYR/gram amount.
func MYR(p *float64) string {
	if p == nil {
		return Dash
	}
	return MYRValue(*p)
}

func MYRValue(v float64) string {
	return "RM " + utils.FormatFloatWithCommas(v, 2)
}

// Bps formats an optional basis-point value.
func Bps(p *int64) string {
	if p == nil {
		return Dash
	}
	return utils.FormatIntWithCommas(*p) + " bps"
}

// Grams formats a token/gold amount.
func Grams(v float64) string {
	s := utils.FormatFloatWithCommas(v, 4)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	return s + " g"
}

// timeLayouts are the backend's observed timestamp spellings.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// DateTime renders a backend timestamp in KL time. Unparseable input is
// shown as received, mirroring how the web console displayed it.
func DateTime(s string) string {
	if s == "" {
		return Dash
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return utils.DateTimeKL(t)
		}
	}
	return s
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return Dash
	}
	return s
}

// SnapshotCard is the "current pricing" card.
func SnapshotCard(s pricing.Snapshot, fallbackPrice float64) string {
	effective, ok := s.EffectiveUserBuy()
	effectiveStr := MYRValue(effective)
	if !ok {
		effectiveStr = MYRValue(fallbackPrice) + " (fallback)"
	}

	var b strings.Builder
	b.WriteString("🥇 OUMG Pricing\n\n")
	fmt.Fprintf(&b, "Source: %s\n", orDash(strings.ToUpper(s.Source)))
	fmt.Fprintf(&b, "Effective price: %s / g\n", effectiveStr)
	fmt.Fprintf(&b, "Effective time: %s\n\n", DateTime(s.UpdatedAt))
	fmt.Fprintf(&b, "Base: %s\n", MYR(s.Base))
	fmt.Fprintf(&b, "Buy: %s   Sell: %s\n", MYR(s.Buy), MYR(s.Sell))
	fmt.Fprintf(&b, "User buy: %s   User sell: %s\n", MYR(s.UserBuy), MYR(s.UserSell))
	fmt.Fprintf(&b, "Spread: %s (%s)", MYR(s.SpreadMYR), Bps(s.SpreadBps))
	if s.Note != "" {
		fmt.Fprintf(&b, "\nNote: %s", s.Note)
	}
	return b.String()
}

// SnapshotRow is one history line: time, source, base, buy/sell, spread.
func SnapshotRow(s pricing.Snapshot) string {
	return fmt.Sprintf("%s · %s · base %s · buy %s · sell %s · spread %s (%s)",
		DateTime(s.UpdatedAt), orDash(s.Source),
		MYR(s.Base), MYR(s.Buy), MYR(s.Sell), MYR(s.SpreadMYR), Bps(s.SpreadBps))
}

func UserRow(u api.UserWithBalances) string {
	return fmt.Sprintf("%s\n  credit %s · spent %s · holds %s",
		shortWallet(u.Wallet), MYRValue(u.RMCredit), MYRValue(u.RMSpent), Grams(u.OUMGGrams))
}

func LedgerRow(e api.GoldLedgerEntry) string {
	purity := Dash
	if e.PurityBp != nil {
		purity = fmt.Sprintf("%.2f%%", float64(*e.PurityBp)/100)
	}
	return fmt.Sprintf("%s · %s · purity %s · batch %s · %s",
		orDash(e.EntryDate), Grams(e.IntakeG), purity, orDash(e.Batch), orDash(e.Source))
}

func RedemptionRow(r api.Redemption) string {
	amount := Dash
	if r.AmountMYR != nil {
		amount = MYRValue(*r.AmountMYR)
	}
	fee := Dash
	if r.FeeMYR != nil {
		fee = MYRValue(*r.FeeMYR)
	}
	return fmt.Sprintf("#%s %s\n  %s · %s · amount %s · fee %s · %s",
		r.ID, statusEmoji(r.Status), shortWallet(r.Wallet), Grams(r.Grams), amount, fee, r.Type)
}

func TokenOpsLogRow(l api.TokenOpsLog) string {
	return fmt.Sprintf("%s · %s · %s · %s",
		DateTime(l.CreatedAt), strings.ToUpper(orDash(l.Action)), shortWallet(l.AdminWallet), orDash(shortHash(l.TxHash)))
}

func AuditRow(a api.Activity) string {
	return fmt.Sprintf("%s · %s · %s", DateTime(a.CreatedAt), orDash(a.Type), orDash(a.Detail))
}

func statusEmoji(status string) string {
	switch status {
	case api.RedemptionPending:
		return "⏳ PENDING"
	case api.RedemptionApproved:
		return "✅ APPROVED"
	case api.RedemptionRejected:
		return "❌ REJECTED"
	case api.RedemptionCompleted:
		return "📦 COMPLETED"
	}
	return orDash(status)
}

// shortWallet renders 0xabcd…1234 to keep list rows scannable.
func shortWallet(w string) string {
	if len(w) < 12 {
		return orDash(w)
	}
	return w[:6] + "…" + w[len(w)-4:]
}

func shortHash(h string) string {
	if len(h) < 14 {
		return h
	}
	return h[:10] + "…"
}
