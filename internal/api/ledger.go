package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/oumg-gold/oumg-console/internal/session"
)

// LedgerQuery filters the gold intake ledger.
type LedgerQuery struct {
	Page
	From   string // YYYY-MM-DD
	To     string
	Source string
}

func (q LedgerQuery) values() url.Values {
	v := q.Page.values()
	if q.From != "" {
		v.Set("from", q.From)
	}
	if q.To != "" {
		v.Set("to", q.To)
	}
	if q.Source != "" {
		v.Set("source", q.Source)
	}
	return v
}

func (c *Client) ListGoldLedger(ctx context.Context, sess session.Session, q LedgerQuery) ([]GoldLedgerEntry, error) {
	var resp struct {
		Data []GoldLedgerEntry `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodGet, pathLedgerGold, q.values(), nil, &sess, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// CreateGoldLedger records a new intake row. entry_date and intake_g are
// required by the backend; everything else is optional provenance.
func (c *Client) CreateGoldLedger(ctx context.Context, sess session.Session, entry GoldLedgerEntry) (GoldLedgerEntry, error) {
	var resp struct {
		Success bool            `json:"success"`
		Row     GoldLedgerEntry `json:"row"`
	}
	if err := c.doJSON(ctx, http.MethodPost, pathLedgerGold, nil, entry, &sess, &resp); err != nil {
		return GoldLedgerEntry{}, err
	}
	return resp.Row, nil
}
