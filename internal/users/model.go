// Package users はユーザーレコードの管理と、ログイン時の参照先となるストアを提供します。
package users

import (
	"time"

	"github.com/yourusername/recipe-box/internal/auth"
)

// User は保存されるユーザーレコードです。
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Surname      string     `json:"surname"`
	IDNumber     string     `json:"idNumber"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"passwordHash"`
	Role         auth.Role  `json:"role"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
}

// View はレスポンス用の表現です。パスワードハッシュは含みません。
type View struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Surname     string     `json:"surname"`
	IDNumber    string     `json:"idNumber"`
	Email       string     `json:"email"`
	Role        auth.Role  `json:"role"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

// View は User を View に変換します。
func (u *User) View() View {
	return View{
		ID:          u.ID,
		Name:        u.Name,
		Surname:     u.Surname,
		IDNumber:    u.IDNumber,
		Email:       u.Email,
		Role:        u.Role,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
		LastLoginAt: u.LastLoginAt,
	}
}

func (u *User) identity() *auth.StoredIdentity {
	return &auth.StoredIdentity{
		Identity: auth.Identity{
			ID:       u.ID,
			Name:     u.Name,
			Surname:  u.Surname,
			IDNumber: u.IDNumber,
			Email:    u.Email,
			Role:     u.Role,
		},
		PasswordHash: u.PasswordHash,
	}
}
