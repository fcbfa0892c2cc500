package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Hasher はパスワードの一方向ハッシュと照合を行います。
type Hasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// BcryptHasher は bcrypt による Hasher 実装です。
type BcryptHasher struct {
	Cost int
}

// NewBcryptHasher は BcryptHasher を作成します。cost が範囲外の場合は既定値を使います。
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{Cost: cost}
}

// Hash はパスワードのハッシュを返します。
func (h *BcryptHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Compare は一致しない場合 ErrInvalidCredentials を返します。
func (h *BcryptHasher) Compare(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrInvalidCredentials
	}
	return err
}
