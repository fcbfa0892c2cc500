package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/recipe-box/internal/auth"
)

// ErrInvalidInput は必須項目が欠けている場合のエラーです。
var ErrInvalidInput = errors.New("users: invalid input")

// CreateInput はユーザー作成の入力です。
type CreateInput struct {
	Name     string `json:"name" binding:"required"`
	Surname  string `json:"surname"`
	IDNumber string `json:"idNumber"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

// UpdateInput は部分更新の入力です。空文字の項目は変更しません。
type UpdateInput struct {
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	IDNumber string `json:"idNumber"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Service はユーザー管理の業務ルールをまとめます。
type Service struct {
	store  *Store
	hasher auth.Hasher
	now    func() time.Time
}

// NewService は Service を作成します。
func NewService(store *Store, hasher auth.Hasher) *Service {
	return &Service{store: store, hasher: hasher, now: time.Now}
}

// Create はロールを検証し、パスワードをハッシュ化して保存します。
func (s *Service) Create(ctx context.Context, in CreateInput) (*User, error) {
	role, err := auth.ParseRole(in.Role)
	if err != nil {
		return nil, err
	}
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := &User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(in.Name),
		Surname:      strings.TrimSpace(in.Surname),
		IDNumber:     strings.TrimSpace(in.IDNumber),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Get は ID でユーザーを取得します。
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.store.Get(ctx, id)
}

// List は全ユーザーを返します。
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.store.List(ctx)
}

// Update は部分更新します。ロールを指定した場合は作成時と同じく検証します。
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*User, error) {
	var role auth.Role
	if strings.TrimSpace(in.Role) != "" {
		parsed, err := auth.ParseRole(in.Role)
		if err != nil {
			return nil, err
		}
		role = parsed
	}

	var hash string
	if in.Password != "" {
		h, err := s.hasher.Hash(in.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		hash = h
	}

	now := s.now().UTC()
	return s.store.Update(ctx, id, func(u *User) error {
		u.Name = keep(u.Name, in.Name)
		u.Surname = keep(u.Surname, in.Surname)
		u.IDNumber = keep(u.IDNumber, in.IDNumber)
		u.Email = keep(u.Email, in.Email)
		if hash != "" {
			u.PasswordHash = hash
		}
		if role != "" {
			u.Role = role
		}
		u.UpdatedAt = now
		return nil
	})
}

// Delete はユーザーを削除します。
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

func keep(current, next string) string {
	if v := strings.TrimSpace(next); v != "" {
		return v
	}
	return current
}
