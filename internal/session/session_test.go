package session

import (
	"testing"
	"time"
)

func TestNormalizeAddress(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0x52908400098527886e0f7030069857d2e4169ee7", "0x52908400098527886e0f7030069857d2e4169ee7"},
		{"0x52908400098527886E0F7030069857D2E4169EE7", "0x52908400098527886e0f7030069857d2e4169ee7"},
		{"  0x52908400098527886e0f7030069857d2e4169ee7 ", "0x52908400098527886e0f7030069857d2e4169ee7"},
		{"52908400098527886e0f7030069857d2e4169ee7", ""},
		{"0x5290840", ""},
		{"0x52908400098527886e0f7030069857d2e4169ezz", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := NormalizeAddress(c.in); got != c.want {
			t.Errorf("NormalizeAddress(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSessionValidity(t *testing.T) {
	s, ok := New("0x52908400098527886E0F7030069857D2E4169EE7")
	if !ok {
		t.Fatal("expected session for a valid address")
	}
	if !s.Valid() {
		t.Fatal("fresh session should be valid")
	}
	if s.Wallet != "0x52908400098527886e0f7030069857d2e4169ee7" {
		t.Fatalf("wallet not normalized: %q", s.Wallet)
	}

	if _, ok := New("not-a-wallet"); ok {
		t.Fatal("expected no session for an invalid address")
	}

	expired := s
	expired.IssuedAt = time.Now().Add(-TTL - time.Minute)
	if expired.Valid() {
		t.Fatal("expired session should be invalid")
	}

	unverified := s
	unverified.Verified = false
	if unverified.Valid() {
		t.Fatal("unverified session should be invalid")
	}
}
