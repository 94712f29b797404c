package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oumg-gold/oumg-console/internal/pricing"
	"github.com/oumg-gold/oumg-console/internal/session"
)

// Backend routes, matching the console backend as deployed.
const (
	pathPriceCurrent      = "/api/price/current"       // GET (public)
	pathPriceManualUpdate = "/api/price/manual-update" // POST (admin)
	pathPriceSnapshots    = "/api/price/snapshots"     // GET (admin, paginated)

	pathTokenOpsStatus = "/api/token-ops/status" // GET (public)
	pathTokenOpsPause  = "/api/token-ops/pause"  // POST (admin)
	pathTokenOpsResume = "/api/token-ops/resume" // POST (admin)
	pathTokenOpsLogs   = "/api/token-ops/logs"   // GET (admin, paginated)

	pathTokenBuyMint  = "/api/token/buy-mint"  // POST (admin)
	pathTokenSellBurn = "/api/token/sell-burn" // POST (admin)

	pathAdminUsers      = "/api/admin/users"       // GET (admin, paginated)
	pathAdminBalances   = "/api/admin/balances"    // GET (admin, ?wallet=)
	pathAdminAudits     = "/api/admin/audits"      // GET (admin, paginated)
	pathAdminFundPreset = "/api/admin/fund-preset" // POST (admin)

	pathLedgerGold = "/api/ledger/gold" // GET/POST (admin)
	pathRedemption = "/api/redemption"  // GET (admin) / PATCH (admin, :id)
)

// currentPriceTTL keeps several near-simultaneous callers (a menu render plus
// a scheduler tick) from hammering the public price endpoint.
const currentPriceTTL = 20 * time.Second

// Error is a backend failure mapped into a predictable shape.
type Error struct {
	Message string
	Status  int
	Code    string
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
	}
	return e.Message
}

// IsAuth reports whether the backend rejected the admin wallet.
func (e *Error) IsAuth() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// Client talks to the OUMG console backend. Admin-scope calls take an
// explicit session; there is no ambient credential state.
type Client struct {
	base string
	http *http.Client

	mu            sync.Mutex
	cachedPrice   pricing.Snapshot
	cachedPriceAt time.Time
}

func NewClient(baseURL string) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: 15 * time.Second},
	}
}

// doJSON performs one JSON round trip. The body is parsed tolerantly: an
// empty response is fine, plain text becomes the error message, and non-2xx
// statuses map to *Error with whatever error/message field the backend sent.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body any, sess *session.Session, out any) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if sess != nil {
		if !sess.Valid() {
			return &Error{Message: "admin session is missing or expired", Code: "session"}
		}
		req.Header.Set("X-Admin-Wallet", sess.Wallet)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return err
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &Error{Message: errorMessage(data, res.StatusCode), Status: res.StatusCode}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorMessage digs error/message out of a failure body, falling back to the
// raw text and finally to the bare status.
func errorMessage(data []byte, status int) string {
	var shape struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &shape); err == nil {
		if shape.Error != "" {
			return shape.Error
		}
		if shape.Message != "" {
			return shape.Message
		}
	}
	if txt := strings.TrimSpace(string(data)); txt != "" && len(txt) <= 200 {
		return txt
	}
	return fmt.Sprintf("HTTP %d", status)
}
