package api

import (
	"encoding/json"
	"net/url"
	"strconv"
)

// Page is the backend's limit/offset pagination.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) values() url.Values {
	q := url.Values{}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		q.Set("offset", strconv.Itoa(p.Offset))
	}
	return q
}

// UserWithBalances is one row of the credit ledger: fiat credit, fiat spent
// and token grams held, keyed by wallet.
type UserWithBalances struct {
	Wallet    string  `json:"wallet"`
	RMCredit  float64 `json:"rm_credit"`
	RMSpent   float64 `json:"rm_spent"`
	OUMGGrams float64 `json:"oumg_grams"`
	UpdatedAt string  `json:"updated_at,omitempty"`
}

// Activity is one audit trail row.
type Activity struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Detail    string `json:"detail,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// GoldLedgerEntry records physical gold intake.
type GoldLedgerEntry struct {
	ID        int64   `json:"id,omitempty"`
	EntryDate string  `json:"entry_date"` // YYYY-MM-DD
	IntakeG   float64 `json:"intake_g"`
	Source    string  `json:"source,omitempty"`
	PurityBp  *int64  `json:"purity_bp,omitempty"` // e.g. 9999
	Serial    string  `json:"serial,omitempty"`
	Batch     string  `json:"batch,omitempty"`
	Storage   string  `json:"storage,omitempty"`
	Custody   string  `json:"custody,omitempty"`
	Insurance string  `json:"insurance,omitempty"`
	AuditRef  string  `json:"audit_ref,omitempty"`
	Note      string  `json:"note,omitempty"`
}

// Redemption statuses, as the backend spells them.
const (
	RedemptionPending   = "PENDING"
	RedemptionApproved  = "APPROVED"
	RedemptionRejected  = "REJECTED"
	RedemptionCompleted = "COMPLETED"
)

type Redemption struct {
	ID        string   `json:"id"`
	Wallet    string   `json:"wallet"`
	Grams     float64  `json:"grams"`
	Type      string   `json:"type"` // CASH or GOLD
	Status    string   `json:"status"`
	FeeMYR    *float64 `json:"fee_myr,omitempty"`
	AmountMYR *float64 `json:"amount_myr,omitempty"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

// RedemptionPatch updates a redemption's workflow state.
type RedemptionPatch struct {
	Status string `json:"status,omitempty"`
	Note   string `json:"note,omitempty"`
	TxHash string `json:"txHash,omitempty"`
}

// TokenOpsLog is one pause/resume audit row. The backend has emitted both
// string and numeric ids over time.
type TokenOpsLog struct {
	ID          json.Number `json:"id"`
	AdminWallet string      `json:"admin_wallet"`
	Action      string      `json:"action"`
	TxHash      string      `json:"tx_hash"`
	Note        string      `json:"note"`
	CreatedAt   string      `json:"created_at"`
}

// TokenOpResult is what mint/burn and pause/resume come back with.
type TokenOpResult struct {
	Success bool   `json:"success,omitempty"`
	OK      bool   `json:"ok,omitempty"`
	Action  string `json:"action,omitempty"`
	TxHash  string `json:"txHash,omitempty"`
}

// ManualPriceUpdate is the new-pricing-sheet payload. Nil fields are omitted
// so the backend derives what it can (see internal/pricing for the rules it
// mirrors on read).
type ManualPriceUpdate struct {
	MyrPerG     *float64 `json:"myrPerG,omitempty"`
	MyrPerGBuy  *float64 `json:"myrPerG_buy,omitempty"`
	MyrPerGSell *float64 `json:"myrPerG_sell,omitempty"`
	Note        string   `json:"note,omitempty"`
}
