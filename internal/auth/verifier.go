package auth

import (
	"context"
	"errors"
	"fmt"
)

// Identity は認証済みユーザーの情報です。パスワードハッシュは含みません。
type Identity struct {
	ID       string
	Name     string
	Surname  string
	IDNumber string
	Email    string
	Role     Role
}

// StoredIdentity はストアから取得したハッシュ付きのレコードです。
type StoredIdentity struct {
	Identity
	PasswordHash string
}

// IdentityStore はメールアドレスでユーザーを1件取得します。
// 見つからない場合は ErrIdentityNotFound を返してください。
type IdentityStore interface {
	FindByEmail(ctx context.Context, email string) (*StoredIdentity, error)
}

// Verifier はログイン時の資格情報を検証します。
type Verifier struct {
	store  IdentityStore
	hasher Hasher
}

// NewVerifier は Verifier を作成します。
func NewVerifier(store IdentityStore, hasher Hasher) *Verifier {
	return &Verifier{store: store, hasher: hasher}
}

// Verify は email と password を照合し、成功時はハッシュを除いた Identity を返します。
func (v *Verifier) Verify(ctx context.Context, email, password string) (*Identity, error) {
	record, err := v.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return nil, ErrIdentityNotFound
		}
		return nil, fmt.Errorf("lookup identity: %w", err)
	}
	if record == nil {
		return nil, ErrIdentityNotFound
	}

	if err := v.hasher.Compare(record.PasswordHash, password); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("compare password hash: %w", err)
	}

	identity := record.Identity
	return &identity, nil
}
