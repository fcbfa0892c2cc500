package auth

import (
	"fmt"
	"strings"
)

// Role はユーザーに付与されるロールです。値は RoleAdmin と RoleUser のみ有効です。
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Roles は有効なロールの一覧を返します。
func Roles() []Role {
	return []Role{RoleAdmin, RoleUser}
}

// ParseRole は文字列をロールに変換します。前後の空白と大文字小文字は無視します。
// 一覧にない値は ErrInvalidRole になります。
func ParseRole(value string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	if !role.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, value)
	}
	return role, nil
}

// Valid はロールが有効な値かどうかを返します。
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}
