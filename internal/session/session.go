package session

import (
	"regexp"
	"strings"
	"time"
)

// TTL matches the validity the web console gave its sign-in cookie.
const TTL = 7 * 24 * time.Hour

var addrRe = regexp.MustCompile(`^0x[a-f0-9]{40}$`)

// NormalizeAddress lowercases and validates an EVM address.
// Returns "" when the input is not a 0x-prefixed 40-hex-char address.
func NormalizeAddress(addr string) string {
	a := strings.ToLower(strings.TrimSpace(addr))
	if !addrRe.MatchString(a) {
		return ""
	}
	return a
}

// Session is an operator's admin sign-in: a wallet the backend has confirmed
// against its whitelist. It is an explicit value passed to every admin-scope
// API call; nothing reads it from ambient state.
type Session struct {
	Wallet   string
	Verified bool
	IssuedAt time.Time
}

func New(wallet string) (Session, bool) {
	w := NormalizeAddress(wallet)
	if w == "" {
		return Session{}, false
	}
	return Session{Wallet: w, Verified: true, IssuedAt: time.Now()}, true
}

// Valid reports whether the session can authorize admin calls.
func (s Session) Valid() bool {
	if !s.Verified || NormalizeAddress(s.Wallet) == "" {
		return false
	}
	return time.Since(s.IssuedAt) < TTL
}
