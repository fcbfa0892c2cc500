package auth

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestTokens(t *testing.T) (*Issuer, *Validator, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	cfg := TokenConfig{
		Secret: []byte("test-signing-secret"),
		Issuer: "recipe-box-test",
		TTL:    time.Hour,
		Now:    clock.Now,
	}
	issuer, err := NewIssuer(cfg)
	if err != nil {
		t.Fatalf("NewIssuer returned error: %v", err)
	}
	validator, err := NewValidator(cfg)
	if err != nil {
		t.Fatalf("NewValidator returned error: %v", err)
	}
	return issuer, validator, clock
}

func testIdentity(role Role) *Identity {
	return &Identity{
		ID:    "user-123",
		Name:  "Thandi",
		Email: "thandi@example.com",
		Role:  role,
	}
}

func TestNewIssuerRequiresSecret(t *testing.T) {
	if _, err := NewIssuer(TokenConfig{}); !errors.Is(err, ErrMissingSigningSecret) {
		t.Fatalf("NewIssuer error = %v, want ErrMissingSigningSecret", err)
	}
	if _, err := NewValidator(TokenConfig{}); !errors.Is(err, ErrMissingSigningSecret) {
		t.Fatalf("NewValidator error = %v, want ErrMissingSigningSecret", err)
	}
}

func TestIssueAndValidateRoundTrip(t *testing.T) {
	issuer, validator, clock := newTestTokens(t)

	for _, role := range Roles() {
		grant, err := issuer.Issue(testIdentity(role))
		if err != nil {
			t.Fatalf("Issue returned error: %v", err)
		}
		if !grant.ExpiresAt.Equal(clock.now.Add(time.Hour)) {
			t.Fatalf("unexpected expiry: %v", grant.ExpiresAt)
		}
		if grant.Profile.Role != role || grant.Profile.Email != "thandi@example.com" {
			t.Fatalf("unexpected profile: %#v", grant.Profile)
		}

		principal, err := validator.Validate(grant.Token)
		if err != nil {
			t.Fatalf("Validate returned error: %v", err)
		}
		if principal.SubjectID != "user-123" || principal.Role != role {
			t.Fatalf("unexpected principal: %#v", principal)
		}
		if !principal.IssuedAt.Equal(clock.now) {
			t.Fatalf("unexpected issuedAt: %v", principal.IssuedAt)
		}
	}
}

func TestValidateIsIdempotent(t *testing.T) {
	issuer, validator, _ := newTestTokens(t)
	grant, err := issuer.Issue(testIdentity(RoleUser))
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	first, err := validator.Validate(grant.Token)
	if err != nil {
		t.Fatalf("first Validate returned error: %v", err)
	}
	second, err := validator.Validate(grant.Token)
	if err != nil {
		t.Fatalf("second Validate returned error: %v", err)
	}
	if *first != *second {
		t.Fatalf("principals differ: %#v vs %#v", first, second)
	}
}

func TestValidateExpired(t *testing.T) {
	issuer, validator, clock := newTestTokens(t)
	grant, err := issuer.Issue(testIdentity(RoleUser))
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	clock.Advance(time.Hour - time.Second)
	if _, err := validator.Validate(grant.Token); err != nil {
		t.Fatalf("token should still be valid one second before expiry: %v", err)
	}

	clock.Advance(time.Second)
	if _, err := validator.Validate(grant.Token); !errors.Is(err, ErrExpired) {
		t.Fatalf("Validate error = %v, want ErrExpired at expiresAt", err)
	}
}

func TestValidateExpiredRegardlessOfSignature(t *testing.T) {
	issuer, validator, clock := newTestTokens(t)
	grant, err := issuer.Issue(testIdentity(RoleAdmin))
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	clock.Advance(2 * time.Hour)

	parts := strings.Split(grant.Token, ".")
	forged := parts[0] + "." + parts[1] + "." + flipBit(t, parts[2], 0)
	if _, err := validator.Validate(forged); !errors.Is(err, ErrExpired) {
		t.Fatalf("Validate error = %v, want ErrExpired", err)
	}
}

func TestValidateRejectsSignatureBitFlips(t *testing.T) {
	issuer, validator, _ := newTestTokens(t)
	grant, err := issuer.Issue(testIdentity(RoleUser))
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	parts := strings.Split(grant.Token, ".")
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		t.Fatalf("decode signature: %v", err)
	}
	for bit := 0; bit < len(sig)*8; bit++ {
		forged := parts[0] + "." + parts[1] + "." + flipBit(t, parts[2], bit)
		if _, err := validator.Validate(forged); !errors.Is(err, ErrInvalidSignature) {
			t.Fatalf("bit %d: Validate error = %v, want ErrInvalidSignature", bit, err)
		}
	}
}

func TestValidateRejectsTamperedPayload(t *testing.T) {
	issuer, validator, _ := newTestTokens(t)
	grant, err := issuer.Issue(testIdentity(RoleUser))
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	parts := strings.Split(grant.Token, ".")
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	escalated := strings.Replace(string(payload), `"role":"user"`, `"role":"admin"`, 1)
	if escalated == string(payload) {
		t.Fatalf("payload did not contain role claim: %s", payload)
	}
	forged := parts[0] + "." + base64.RawURLEncoding.EncodeToString([]byte(escalated)) + "." + parts[2]

	if _, err := validator.Validate(forged); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("Validate error = %v, want ErrInvalidSignature", err)
	}
}

func TestValidateRejectsForeignSecretAndAlgorithm(t *testing.T) {
	_, validator, clock := newTestTokens(t)
	claims := Claims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			Issuer:    "recipe-box-test",
			IssuedAt:  jwt.NewNumericDate(clock.now),
			ExpiresAt: jwt.NewNumericDate(clock.now.Add(time.Hour)),
		},
	}

	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := validator.Validate(foreign); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("foreign secret: Validate error = %v, want ErrInvalidSignature", err)
	}

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := validator.Validate(unsigned); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("alg none: Validate error = %v, want ErrInvalidSignature", err)
	}
}

func TestValidateRejectsUnknownRoleClaim(t *testing.T) {
	_, validator, clock := newTestTokens(t)
	claims := Claims{
		Role: "root",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			Issuer:    "recipe-box-test",
			ExpiresAt: jwt.NewNumericDate(clock.now.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-signing-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := validator.Validate(token); !errors.Is(err, ErrMalformedToken) {
		t.Fatalf("Validate error = %v, want ErrMalformedToken", err)
	}
}

func TestValidateMalformed(t *testing.T) {
	_, validator, _ := newTestTokens(t)

	if _, err := validator.Validate(""); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("empty: Validate error = %v, want ErrMissingToken", err)
	}
	for _, raw := range []string{"abc", "a.b", "a.b.c", "!!!.???.###"} {
		if _, err := validator.Validate(raw); !errors.Is(err, ErrMalformedToken) {
			t.Fatalf("%q: Validate error = %v, want ErrMalformedToken", raw, err)
		}
	}
}

func TestIssueRejectsInvalidRole(t *testing.T) {
	issuer, _, _ := newTestTokens(t)
	if _, err := issuer.Issue(testIdentity(Role("root"))); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("Issue error = %v, want ErrInvalidRole", err)
	}
}

func flipBit(t *testing.T, segment string, bit int) string {
	t.Helper()
	raw, err := base64.RawURLEncoding.DecodeString(segment)
	if err != nil {
		t.Fatalf("decode segment: %v", err)
	}
	raw[bit/8] ^= 1 << (bit % 8)
	return base64.RawURLEncoding.EncodeToString(raw)
}
