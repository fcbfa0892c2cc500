package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL はトークンの既定の有効期間です。
const DefaultTokenTTL = time.Hour

// TokenConfig はトークンの発行と検証の設定です。
type TokenConfig struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
	// Now はテスト用の時刻関数です。nil の場合は time.Now を使います。
	Now func() time.Time
}

func (c TokenConfig) normalize() (TokenConfig, error) {
	if len(c.Secret) == 0 {
		return c, ErrMissingSigningSecret
	}
	if c.TTL <= 0 {
		c.TTL = DefaultTokenTTL
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c, nil
}

// Claims はトークンに埋め込むクレームです。
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Principal は検証済みトークンから復元した呼び出し元です。
type Principal struct {
	SubjectID string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Profile はログイン応答に含める公開プロフィールです。
type Profile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Grant は発行したトークンと公開プロフィールの組です。
type Grant struct {
	Token     string
	ExpiresAt time.Time
	Profile   Profile
}

// Issuer は署名付きトークンを発行します。
type Issuer struct {
	cfg TokenConfig
}

// NewIssuer は Issuer を作成します。署名鍵が空の場合は ErrMissingSigningSecret を返します。
func NewIssuer(cfg TokenConfig) (*Issuer, error) {
	cfg, err := cfg.normalize()
	if err != nil {
		return nil, err
	}
	return &Issuer{cfg: cfg}, nil
}

// Issue は identity の ID とロールを埋め込んだトークンを発行します。
func (i *Issuer) Issue(identity *Identity) (*Grant, error) {
	if identity == nil {
		return nil, errors.New("identity is nil")
	}
	if !identity.Role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, identity.Role)
	}

	issuedAt := i.cfg.Now().Truncate(time.Second)
	expiresAt := issuedAt.Add(i.cfg.TTL)
	claims := Claims{
		Role: identity.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			Issuer:    i.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.cfg.Secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &Grant{
		Token:     signed,
		ExpiresAt: expiresAt,
		Profile: Profile{
			Name:  identity.Name,
			Email: identity.Email,
			Role:  identity.Role,
		},
	}, nil
}

// Validator はトークンの署名と有効期限を検証します。
type Validator struct {
	cfg    TokenConfig
	parser *jwt.Parser
}

// NewValidator は Validator を作成します。
func NewValidator(cfg TokenConfig) (*Validator, error) {
	cfg, err := cfg.normalize()
	if err != nil {
		return nil, err
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(cfg.Now),
	}
	if cfg.Issuer != "" {
		options = append(options, jwt.WithIssuer(cfg.Issuer))
	}

	return &Validator{cfg: cfg, parser: jwt.NewParser(options...)}, nil
}

// Validate は raw を検証して Principal を返します。
// 期限切れは署名より先に判定するため、署名の正否に関係なく ErrExpired になります。
func (v *Validator) Validate(raw string) (*Principal, error) {
	if raw == "" {
		return nil, ErrMissingToken
	}

	var unverified Claims
	if _, _, err := v.parser.ParseUnverified(raw, &unverified); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if unverified.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing exp", ErrMalformedToken)
	}
	if !v.cfg.Now().Before(unverified.ExpiresAt.Time) {
		return nil, ErrExpired
	}

	var claims Claims
	_, err := v.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return v.cfg.Secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrSignatureInvalid):
			return nil, ErrInvalidSignature
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		default:
			return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
		}
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrMalformedToken)
	}
	role, err := ParseRole(claims.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	principal := &Principal{
		SubjectID: claims.Subject,
		Role:      role,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		principal.IssuedAt = claims.IssuedAt.Time
	}
	return principal, nil
}
