package security

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Mahmoud3mmar/brewly/internal/core/domain"
)

const testSecret = "abcdefghijklmnopqrstuvwxyz123456"

func fixedClock(t time.Time) (func() time.Time, func(time.Duration)) {
	now := t
	return func() time.Time { return now }, func(d time.Duration) { now = now.Add(d) }
}

func TestTokenManager_IssueAndVerify(t *testing.T) {
	mgr := NewTokenManager(testSecret, time.Hour, WithIssuer("brewly"))

	token, err := mgr.Issue(domain.UserPayload{ID: 42, Email: "a@x.com"}, 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	payload, err := mgr.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if payload.Type() != domain.TokenTypeUser {
		t.Fatalf("expected user token, got %s", payload.Type())
	}
	id, email := payload.Subject()
	if id != 42 || email != "a@x.com" {
		t.Fatalf("unexpected subject: %d %s", id, email)
	}
}

func TestTokenManager_AdminPayloadRoundTrip(t *testing.T) {
	mgr := NewTokenManager(testSecret, time.Hour)

	token, err := mgr.Issue(domain.AdminPayload{ID: 7, Email: "root@x.com"}, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	payload, err := mgr.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if _, ok := payload.(domain.AdminPayload); !ok {
		t.Fatalf("expected AdminPayload, got %T", payload)
	}
}

func TestTokenManager_Expired(t *testing.T) {
	clock, advance := fixedClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	mgr := NewTokenManager(testSecret, time.Hour, WithClock(clock))

	token, err := mgr.Issue(domain.UserPayload{ID: 1, Email: "a@x.com"}, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	advance(2 * time.Minute)

	if _, err := mgr.Verify(token); !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenManager_NotYetValid(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	future, _ := fixedClock(t0.Add(time.Hour))
	present, _ := fixedClock(t0)

	token, err := NewTokenManager(testSecret, time.Hour, WithClock(future)).
		Issue(domain.UserPayload{ID: 1, Email: "a@x.com"}, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, err = NewTokenManager(testSecret, time.Hour, WithClock(present)).Verify(token)
	if !errors.Is(err, domain.ErrTokenNotYetValid) {
		t.Fatalf("expected ErrTokenNotYetValid, got %v", err)
	}
}

func TestTokenManager_WrongKey(t *testing.T) {
	other := NewTokenManager("another-secret-another-secret-00", time.Hour)
	token, err := other.Issue(domain.UserPayload{ID: 1, Email: "a@x.com"}, 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, err = NewTokenManager(testSecret, time.Hour).Verify(token)
	if !errors.Is(err, domain.ErrTokenInvalidSignature) {
		t.Fatalf("expected ErrTokenInvalidSignature, got %v", err)
	}
}

func TestTokenManager_RejectsNoneAlgorithm(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"id":        1,
		"email":     "a@x.com",
		"tokenType": "user",
		"exp":       time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	_, err = NewTokenManager(testSecret, time.Hour).Verify(signed)
	if !errors.Is(err, domain.ErrTokenInvalidSignature) {
		t.Fatalf("expected ErrTokenInvalidSignature, got %v", err)
	}
}

func TestTokenManager_MissingPayloadFields(t *testing.T) {
	cases := map[string]jwt.MapClaims{
		"no tokenType":      {"id": 1, "email": "a@x.com"},
		"no id":             {"email": "a@x.com", "tokenType": "user"},
		"no email":          {"id": 1, "tokenType": "user"},
		"unknown tokenType": {"id": 1, "email": "a@x.com", "tokenType": "root"},
	}

	mgr := NewTokenManager(testSecret, time.Hour)
	for name, mc := range cases {
		t.Run(name, func(t *testing.T) {
			mc["exp"] = time.Now().Add(time.Hour).Unix()
			signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, mc).SignedString([]byte(testSecret))
			if err != nil {
				t.Fatalf("sign: %v", err)
			}
			if _, err := mgr.Verify(signed); !errors.Is(err, domain.ErrTokenMalformedPayload) {
				t.Fatalf("expected ErrTokenMalformedPayload, got %v", err)
			}
		})
	}
}

func TestTokenManager_Garbage(t *testing.T) {
	mgr := NewTokenManager(testSecret, time.Hour)
	for _, raw := range []string{"", "not-a-jwt", "a.b.c", strings.Repeat("x", 512)} {
		_, err := mgr.Verify(raw)
		if err == nil {
			t.Fatalf("expected error for %q", raw)
		}
		if domain.KindOf(err) != domain.KindUnauthorized {
			t.Fatalf("expected unauthorized kind for %q, got %v", raw, domain.KindOf(err))
		}
	}
}

func TestTokenManager_IssuerMismatch(t *testing.T) {
	token, err := NewTokenManager(testSecret, time.Hour, WithIssuer("someone-else")).
		Issue(domain.UserPayload{ID: 1, Email: "a@x.com"}, 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, err = NewTokenManager(testSecret, time.Hour, WithIssuer("brewly")).Verify(token)
	if !errors.Is(err, domain.ErrTokenInvalidSignature) {
		t.Fatalf("expected ErrTokenInvalidSignature, got %v", err)
	}
}
