package auth

import "errors"

// 認証・認可のエラー分類。
// ハンドラーは errors.Is でこれらを判定し、レスポンスに変換します。
var (
	// ログイン時の資格情報エラー
	ErrIdentityNotFound   = errors.New("auth: identity not found")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// トークン検証エラー（呼び出し側には一律「認証失敗」として返す）
	ErrMissingToken     = errors.New("auth: missing token")
	ErrMalformedToken   = errors.New("auth: malformed token")
	ErrInvalidSignature = errors.New("auth: invalid token signature")
	ErrExpired          = errors.New("auth: token expired")

	// 認可エラー
	ErrForbidden = errors.New("auth: insufficient permission")

	// 入力検証エラー
	ErrInvalidRole = errors.New("auth: invalid role")

	// 起動時の設定エラー
	ErrMissingSigningSecret = errors.New("auth: signing secret is not configured")
)

// IsCredentialError はログイン時の資格情報エラーかどうかを返します。
func IsCredentialError(err error) bool {
	return errors.Is(err, ErrIdentityNotFound) || errors.Is(err, ErrInvalidCredentials)
}

// IsAuthenticationError はトークン検証エラーかどうかを返します。
func IsAuthenticationError(err error) bool {
	return errors.Is(err, ErrMissingToken) ||
		errors.Is(err, ErrMalformedToken) ||
		errors.Is(err, ErrInvalidSignature) ||
		errors.Is(err, ErrExpired)
}

// reason はメトリクスとログ用の短い理由ラベルを返します。
func reason(err error) string {
	switch {
	case err == nil:
		return "authorized"
	case errors.Is(err, ErrMissingToken):
		return "missing_token"
	case errors.Is(err, ErrMalformedToken):
		return "malformed_token"
	case errors.Is(err, ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	default:
		return "error"
	}
}
