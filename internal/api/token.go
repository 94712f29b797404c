package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/oumg-gold/oumg-console/internal/session"
)

// ContractStatus reports whether the token contract is paused.
func (c *Client) ContractStatus(ctx context.Context) (paused bool, err error) {
	var resp struct {
		Paused bool `json:"paused"`
	}
	if err := c.doJSON(ctx, http.MethodGet, pathTokenOpsStatus, nil, nil, nil, &resp); err != nil {
		return false, err
	}
	return resp.Paused, nil
}

func (c *Client) PauseContract(ctx context.Context, sess session.Session) (TokenOpResult, error) {
	var resp TokenOpResult
	err := c.doJSON(ctx, http.MethodPost, pathTokenOpsPause, nil, nil, &sess, &resp)
	return resp, err
}

func (c *Client) ResumeContract(ctx context.Context, sess session.Session) (TokenOpResult, error) {
	var resp TokenOpResult
	err := c.doJSON(ctx, http.MethodPost, pathTokenOpsResume, nil, nil, &sess, &resp)
	return resp, err
}

// TokenOpsLogQuery filters the pause/resume audit log.
type TokenOpsLogQuery struct {
	Page
	Action   string
	Operator string
}

func (q TokenOpsLogQuery) values() url.Values {
	v := q.Page.values()
	if q.Action != "" {
		v.Set("action", q.Action)
	}
	if q.Operator != "" {
		v.Set("operator", q.Operator)
	}
	return v
}

func (c *Client) ListTokenOpsLogs(ctx context.Context, sess session.Session, q TokenOpsLogQuery) ([]TokenOpsLog, error) {
	var resp struct {
		Data []TokenOpsLog `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodGet, pathTokenOpsLogs, q.values(), nil, &sess, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// BuyMint mints grams of token against a user's fiat credit.
func (c *Client) BuyMint(ctx context.Context, sess session.Session, wallet string, grams float64) (TokenOpResult, error) {
	var resp TokenOpResult
	body := map[string]any{"wallet": wallet, "grams": grams}
	err := c.doJSON(ctx, http.MethodPost, pathTokenBuyMint, nil, body, &sess, &resp)
	return resp, err
}

// SellBurn burns grams of token and credits the proceeds back.
func (c *Client) SellBurn(ctx context.Context, sess session.Session, wallet string, grams float64) (TokenOpResult, error) {
	var resp TokenOpResult
	body := map[string]any{"wallet": wallet, "grams": grams}
	err := c.doJSON(ctx, http.MethodPost, pathTokenSellBurn, nil, body, &sess, &resp)
	return resp, err
}
