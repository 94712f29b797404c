package api

import (
	"context"
	"net/http"
	"time"

	"github.com/oumg-gold/oumg-console/internal/pricing"
	"github.com/oumg-gold/oumg-console/internal/session"
)

// CurrentPrice returns the normalized current price snapshot. Results are
// cached briefly; concurrent menu renders and scheduler ticks share a fetch.
func (c *Client) CurrentPrice(ctx context.Context) (pricing.Snapshot, error) {
	c.mu.Lock()
	if time.Since(c.cachedPriceAt) < currentPriceTTL {
		snap := c.cachedPrice
		c.mu.Unlock()
		return snap, nil
	}
	c.mu.Unlock()

	var resp struct {
		Data map[string]any `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodGet, pathPriceCurrent, nil, nil, nil, &resp); err != nil {
		return pricing.Snapshot{}, err
	}
	snap := pricing.Normalize(resp.Data)

	c.mu.Lock()
	c.cachedPrice = snap
	c.cachedPriceAt = time.Now()
	c.mu.Unlock()
	return snap, nil
}

// InvalidatePrice drops the cached snapshot, e.g. right after a manual
// update so the next render shows the new sheet.
func (c *Client) InvalidatePrice() {
	c.mu.Lock()
	c.cachedPriceAt = time.Time{}
	c.mu.Unlock()
}

// ListSnapshots returns historical price snapshots, latest first, each run
// through the normalizer so mixed-vintage rows render uniformly.
func (c *Client) ListSnapshots(ctx context.Context, sess session.Session, page Page) ([]pricing.Snapshot, error) {
	var resp struct {
		Data []map[string]any `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodGet, pathPriceSnapshots, page.values(), nil, &sess, &resp); err != nil {
		return nil, err
	}
	out := make([]pricing.Snapshot, 0, len(resp.Data))
	for _, raw := range resp.Data {
		out = append(out, pricing.Normalize(raw))
	}
	return out, nil
}

// SetManualPrice posts a new pricing sheet and invalidates the cache.
func (c *Client) SetManualPrice(ctx context.Context, sess session.Session, upd ManualPriceUpdate) error {
	if err := c.doJSON(ctx, http.MethodPost, pathPriceManualUpdate, nil, upd, &sess, nil); err != nil {
		return err
	}
	c.InvalidatePrice()
	return nil
}
