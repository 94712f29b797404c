package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/oumg-gold/oumg-console/internal/session"
)

const testWallet = "0x52908400098527886e0f7030069857d2e4169ee7"

func testSession() session.Session {
	return session.Session{Wallet: testWallet, Verified: true, IssuedAt: time.Now()}
}

func TestCurrentPriceUnwrapsAndNormalizes(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Path != "/api/price/current" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-Admin-Wallet") != "" {
			t.Error("public route must not carry the admin wallet")
		}
		if r.Header.Get("X-Request-Id") == "" {
			t.Error("missing request id")
		}
		w.Write([]byte(`{"data":{"price_myr_per_g":500,"spread_bps":100,"source":"cron"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	snap, err := c.CurrentPrice(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if snap.Base == nil || *snap.Base != 500 {
		t.Fatalf("base: got %v", snap.Base)
	}
	if snap.Buy == nil || *snap.Buy != 502.50 {
		t.Fatalf("derived buy: got %v", snap.Buy)
	}
	if snap.Source != "cron" {
		t.Fatalf("source: got %q", snap.Source)
	}

	// Second call inside the TTL must be served from cache.
	if _, err := c.CurrentPrice(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("expected 1 backend hit, got %d", n)
	}

	c.InvalidatePrice()
	if _, err := c.CurrentPrice(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n := atomic.LoadInt32(&hits); n != 2 {
		t.Fatalf("expected refetch after invalidate, got %d hits", n)
	}
}

func TestListSnapshotsPaginationAndHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Admin-Wallet"); got != testWallet {
			t.Errorf("admin wallet header: got %q", got)
		}
		if r.URL.Query().Get("limit") != "20" || r.URL.Query().Get("offset") != "40" {
			t.Errorf("pagination: got %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"data":[{"buy_myr_per_g":520,"sell_myr_per_g":515},{"myrPerG":"501"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	snaps, err := c.ListSnapshots(context.Background(), testSession(), Page{Limit: 20, Offset: 40})
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snaps))
	}
	if snaps[0].SpreadMYR == nil || *snaps[0].SpreadMYR != 5 {
		t.Fatalf("row 0 spread not derived: %v", snaps[0].SpreadMYR)
	}
	if snaps[1].Base == nil || *snaps[1].Base != 501 {
		t.Fatalf("row 1 base not parsed from string alias: %v", snaps[1].Base)
	}
}

func TestErrorMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/price/manual-update":
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error":"wallet not whitelisted"}`))
		case "/api/admin/fund-preset":
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte(`upstream timed out`)) // plain text body
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	base := 500.0
	err := c.SetManualPrice(context.Background(), testSession(), ManualPriceUpdate{MyrPerG: &base})
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.Status != http.StatusForbidden || apiErr.Message != "wallet not whitelisted" {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
	if !apiErr.IsAuth() {
		t.Fatal("403 should classify as auth failure")
	}

	err = c.FundPreset(context.Background(), testSession(), testWallet, 100)
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.Message != "upstream timed out" || apiErr.IsAuth() {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
}

func TestInvalidSessionRejectedClientSide(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should reach the backend")
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.ListUsers(context.Background(), session.Session{}, Page{})
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Code != "session" {
		t.Fatalf("expected session error, got %v", err)
	}
}

func TestVerifyAdmin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("limit") != "1" {
			t.Errorf("probe should ask for a single row, got %s", r.URL.RawQuery)
		}
		switch r.Header.Get("X-Admin-Wallet") {
		case testWallet:
			w.Write([]byte(`{"data":[]}`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	ok, err := c.VerifyAdmin(context.Background(), testWallet)
	if err != nil || !ok {
		t.Fatalf("whitelisted wallet: ok=%v err=%v", ok, err)
	}
	ok, err = c.VerifyAdmin(context.Background(), "0x1111111111111111111111111111111111111111")
	if err != nil || ok {
		t.Fatalf("unknown wallet: ok=%v err=%v", ok, err)
	}
	// Malformed addresses never hit the network.
	ok, err = c.VerifyAdmin(context.Background(), "nope")
	if err != nil || ok {
		t.Fatalf("malformed wallet: ok=%v err=%v", ok, err)
	}
}

func TestManualPriceUpdatePayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if body["myrPerG_buy"] != 505.0 || body["myrPerG_sell"] != 495.0 || body["note"] != "weekly sheet" {
			t.Errorf("unexpected payload: %v", body)
		}
		if _, present := body["myrPerG"]; present {
			t.Error("unset base must be omitted, not sent as zero")
		}
	}))
	defer srv.Close()

	buy, sell := 505.0, 495.0
	c := NewClient(srv.URL)
	err := c.SetManualPrice(context.Background(), testSession(), ManualPriceUpdate{
		MyrPerGBuy:  &buy,
		MyrPerGSell: &sell,
		Note:        "weekly sheet",
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestUpdateRedemptionPathAndMethod(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("method: got %s", r.Method)
		}
		if r.URL.Path != "/api/redemption/rdm_42" {
			t.Errorf("path: got %s", r.URL.Path)
		}
		var patch RedemptionPatch
		json.NewDecoder(r.Body).Decode(&patch)
		if patch.Status != RedemptionApproved {
			t.Errorf("status: got %q", patch.Status)
		}
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	err := c.UpdateRedemption(context.Background(), testSession(), "rdm_42", RedemptionPatch{Status: RedemptionApproved})
	if err != nil {
		t.Fatal(err)
	}
}
