package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/oumg-gold/oumg-console/internal/session"
)

// VerifyAdmin checks a candidate wallet against the backend's whitelist by
// probing the cheapest admin-gated endpoint. 200 means whitelisted; 401/403
// means not; anything else is a transport problem, not a verdict.
func (c *Client) VerifyAdmin(ctx context.Context, wallet string) (bool, error) {
	w := session.NormalizeAddress(wallet)
	if w == "" {
		return false, nil
	}
	probe := session.Session{Wallet: w, Verified: true, IssuedAt: time.Now()}
	q := url.Values{}
	q.Set("limit", "1")
	err := c.doJSON(ctx, http.MethodGet, pathAdminUsers, q, nil, &probe, nil)
	if err == nil {
		return true, nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.IsAuth() {
		return false, nil
	}
	return false, err
}

// ListUsers returns the credit ledger, paginated.
func (c *Client) ListUsers(ctx context.Context, sess session.Session, page Page) ([]UserWithBalances, error) {
	var resp struct {
		Data []UserWithBalances `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodGet, pathAdminUsers, page.values(), nil, &sess, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// UserBalances looks up one wallet's balances.
func (c *Client) UserBalances(ctx context.Context, sess session.Session, wallet string) (UserWithBalances, error) {
	q := url.Values{}
	q.Set("wallet", wallet)
	var resp struct {
		Data UserWithBalances `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodGet, pathAdminBalances, q, nil, &sess, &resp); err != nil {
		return UserWithBalances{}, err
	}
	return resp.Data, nil
}

// ListAudits returns the audit trail, paginated.
func (c *Client) ListAudits(ctx context.Context, sess session.Session, page Page) ([]Activity, error) {
	var resp struct {
		Data []Activity `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodGet, pathAdminAudits, page.values(), nil, &sess, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// FundPreset credits a wallet with a preset fiat amount.
func (c *Client) FundPreset(ctx context.Context, sess session.Session, wallet string, amountMYR float64) error {
	body := map[string]any{"wallet": wallet, "amountMyr": amountMYR}
	return c.doJSON(ctx, http.MethodPost, pathAdminFundPreset, nil, body, &sess, nil)
}
