package tokens

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/insightboard/insightboard/internal/config"
)

var base = time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

func seg(b []byte) string { return base64.RawURLEncoding.EncodeToString(b) }

func newManagerAt(t *testing.T, secret string, now *time.Time) *Manager {
	t.Helper()
	m, err := NewManager(secret, DefaultTTL)
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}
	m.now = func() time.Time { return *now }
	return m
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	now := base
	m := newManagerAt(t, "test-secret-32-bytes-should-be-long-enough", &now)

	tok, err := m.Issue(42, "alice")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	id, err := m.Verify(tok)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if id.UserID != 42 || id.Username != "alice" {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestVerify_ExpiryBoundary(t *testing.T) {
	now := base
	m := newManagerAt(t, "another-secret-32-bytes-longgggg", &now)
	tok, err := m.Issue(7, "bob")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	now = base.Add(DefaultTTL - time.Second)
	if _, err := m.Verify(tok); err != nil {
		t.Fatalf("token should still be valid just before expiry: %v", err)
	}

	now = base.Add(DefaultTTL + time.Second)
	if _, err := m.Verify(tok); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken after expiry, got %v", err)
	}
}

func TestVerify_WrongSecretFails(t *testing.T) {
	now := base
	tok, err := newManagerAt(t, "secret-one-32-bytes-xxxxxxxxxxxxxxxx", &now).Issue(3, "carol")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if _, err := newManagerAt(t, "different-secret-xxxxxxxxxxxxxxxx", &now).Verify(tok); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken with wrong secret, got %v", err)
	}
}

func TestVerify_Malformed(t *testing.T) {
	now := base
	m := newManagerAt(t, "x-secret", &now)
	for _, raw := range []string{"", "not.a.jwt", "abc"} {
		if _, err := m.Verify(raw); err != ErrInvalidToken {
			t.Fatalf("expected ErrInvalidToken for %q, got %v", raw, err)
		}
	}
}

// Rejected when alg=none (unsigned token)
func TestVerify_AlgNoneRejected(t *testing.T) {
	now := base
	m := newManagerAt(t, "x-secret", &now)
	payload := `{"userId":1,"username":"mallory","exp":9999999999}`
	tok := seg([]byte(`{"alg":"none"}`)) + "." + seg([]byte(payload)) + "."
	if _, err := m.Verify(tok); err != ErrInvalidToken {
		t.Fatalf("expected alg=none token to be rejected, got %v", err)
	}
}

func TestVerify_MissingExpiryRejected(t *testing.T) {
	now := base
	m := newManagerAt(t, "no-exp-secret", &now)
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"userId": 1, "username": "dave"})
	tok, err := jt.SignedString([]byte("no-exp-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := m.Verify(tok); err != ErrInvalidToken {
		t.Fatalf("expected token without exp to be rejected, got %v", err)
	}
}

// Tampering with payload must fail signature verification
func TestVerify_TamperedPayload(t *testing.T) {
	now := base
	m := newManagerAt(t, "tamper-test-secret-32-bytes-xxxxxxx", &now)
	tok, err := m.Issue(5, "tamper")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token parts")
	}
	payloadBytes, _ := base64.RawURLEncoding.DecodeString(parts[1])
	payload := strings.Replace(string(payloadBytes), `"userId":5`, `"userId":1`, 1)
	parts[1] = seg([]byte(payload))
	if _, err := m.Verify(strings.Join(parts, ".")); err != ErrInvalidToken {
		t.Fatalf("expected signature verification to fail for tampered token, got %v", err)
	}
}

func TestNewManagerFromConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Session.SigningKey = "cfg-secret"
	m, err := NewManagerFromConfig(cfg)
	if err != nil {
		t.Fatalf("NewManagerFromConfig error: %v", err)
	}
	if m.TTL() != DefaultTTL {
		t.Fatalf("expected default ttl, got %s", m.TTL())
	}
	if _, err := NewManager("", time.Hour); err == nil {
		t.Fatalf("expected error for empty key")
	}
}
