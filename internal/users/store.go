package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yourusername/recipe-box/internal/auth"
	"github.com/yourusername/recipe-box/internal/storage"
)

const (
	userKeyPrefix  = "user"
	emailKeyPrefix = "user_email:"
)

// ErrNotFound はユーザーが存在しない場合のエラーです。
var ErrNotFound = errors.New("users: user not found")

// ErrEmailTaken はメールアドレスが既に登録済みの場合のエラーです。
var ErrEmailTaken = errors.New("users: email already registered")

// Store はユーザーを Redis に保存します。
// メールアドレスは "user_email:<email>" に ID を SETNX して一意性を保ちます。
type Store struct {
	rdb  *redis.Client
	docs *storage.Collection[User]
}

// NewStore は Store を作成します。
func NewStore(rdb *redis.Client) *Store {
	return &Store{
		rdb:  rdb,
		docs: storage.NewCollection[User](rdb, userKeyPrefix),
	}
}

// Create は新しいユーザーを保存します。
func (s *Store) Create(ctx context.Context, user *User) error {
	if err := s.claimEmail(ctx, user.Email, user.ID); err != nil {
		return err
	}
	if err := s.docs.Put(ctx, user.ID, user); err != nil {
		_ = s.rdb.Del(ctx, emailKey(user.Email)).Err()
		return err
	}
	return nil
}

// Get は ID でユーザーを取得します。
func (s *Store) Get(ctx context.Context, id string) (*User, error) {
	user, err := s.docs.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	return user, err
}

// List は全ユーザーを返します。
func (s *Store) List(ctx context.Context) ([]User, error) {
	return s.docs.List(ctx)
}

// Update は mutate を適用して保存します。メールアドレスが変わった場合は索引も付け替えます。
// 変更前のアドレスはトランザクション内で読むため、競合して再試行した場合も直前の値を解放します。
func (s *Store) Update(ctx context.Context, id string, mutate func(*User) error) (*User, error) {
	var previousEmail, claimed string
	updated, err := s.docs.Update(ctx, id, func(u *User) error {
		previousEmail = u.Email
		if err := mutate(u); err != nil {
			return err
		}

		target := ""
		if normalizeEmail(u.Email) != normalizeEmail(previousEmail) {
			target = u.Email
		}
		// 再試行で不要になった前回の確保は返す
		if claimed != "" && normalizeEmail(claimed) != normalizeEmail(target) {
			if err := s.rdb.Del(ctx, emailKey(claimed)).Err(); err != nil {
				return err
			}
			claimed = ""
		}
		if target != "" && claimed == "" {
			if err := s.claimEmail(ctx, target, u.ID); err != nil {
				return err
			}
			claimed = target
		}
		return nil
	})
	if err != nil {
		if claimed != "" {
			_ = s.rdb.Del(ctx, emailKey(claimed)).Err()
		}
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if claimed != "" {
		if err := s.rdb.Del(ctx, emailKey(previousEmail)).Err(); err != nil {
			return nil, fmt.Errorf("release previous email: %w", err)
		}
	}
	return updated, nil
}

// Delete はユーザーとメール索引を削除します。
func (s *Store) Delete(ctx context.Context, id string) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.docs.Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return s.rdb.Del(ctx, emailKey(user.Email)).Err()
}

// FindByEmail は auth.IdentityStore の実装です。
func (s *Store) FindByEmail(ctx context.Context, email string) (*auth.StoredIdentity, error) {
	id, err := s.rdb.Get(ctx, emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, auth.ErrIdentityNotFound
		}
		return nil, err
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, auth.ErrIdentityNotFound
		}
		return nil, err
	}
	return user.identity(), nil
}

// TouchLogin は最終ログイン日時を更新します。
func (s *Store) TouchLogin(ctx context.Context, id string, at time.Time) error {
	_, err := s.docs.Update(ctx, id, func(u *User) error {
		if u.LastLoginAt != nil && u.LastLoginAt.After(at) {
			return nil
		}
		t := at.UTC()
		u.LastLoginAt = &t
		return nil
	})
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *Store) claimEmail(ctx context.Context, email, id string) error {
	ok, err := s.rdb.SetNX(ctx, emailKey(email), id, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrEmailTaken
	}
	return nil
}

func emailKey(email string) string {
	return emailKeyPrefix + normalizeEmail(email)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
