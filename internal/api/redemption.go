package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/oumg-gold/oumg-console/internal/session"
)

// RedemptionQuery filters the redemption queue.
type RedemptionQuery struct {
	Page
	Status string // one of the Redemption* constants, or empty for all
}

func (q RedemptionQuery) values() url.Values {
	v := q.Page.values()
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	return v
}

func (c *Client) ListRedemptions(ctx context.Context, sess session.Session, q RedemptionQuery) ([]Redemption, error) {
	var resp struct {
		Data []Redemption `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodGet, pathRedemption, q.values(), nil, &sess, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// UpdateRedemption moves a redemption through its workflow
// (PENDING -> APPROVED/REJECTED -> COMPLETED).
func (c *Client) UpdateRedemption(ctx context.Context, sess session.Session, id string, patch RedemptionPatch) error {
	return c.doJSON(ctx, http.MethodPatch, pathRedemption+"/"+url.PathEscape(id), nil, patch, &sess, nil)
}
