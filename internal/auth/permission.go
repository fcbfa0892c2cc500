package auth

import "sort"

// Permission はルートが要求する操作名です。
type Permission string

const (
	PermCreateRecipes Permission = "create_recipes"
	PermEditRecipes   Permission = "edit_recipes"
	PermDeleteRecipes Permission = "delete_recipes"
	PermViewRecipes   Permission = "view_recipes"
	PermViewUsers     Permission = "view_users"
	PermPostUser      Permission = "post_user"
	PermEditUsers     Permission = "edit_users"
	PermDeleteUsers   Permission = "delete_users"
)

// PermissionTable はロールから許可された操作集合への対応表です。
// 生成後は変更できないため、複数のリクエストからロックなしで参照できます。
type PermissionTable struct {
	grants map[Role]map[Permission]struct{}
	known  map[Permission]struct{}
}

// NewPermissionTable は対応表を作成します。入力のマップはコピーされます。
func NewPermissionTable(grants map[Role][]Permission) *PermissionTable {
	t := &PermissionTable{
		grants: make(map[Role]map[Permission]struct{}, len(grants)),
		known:  make(map[Permission]struct{}),
	}
	for role, perms := range grants {
		set := make(map[Permission]struct{}, len(perms))
		for _, p := range perms {
			set[p] = struct{}{}
			t.known[p] = struct{}{}
		}
		t.grants[role] = set
	}
	return t
}

// DefaultPermissionTable はアプリケーション既定の対応表を返します。
func DefaultPermissionTable() *PermissionTable {
	return NewPermissionTable(map[Role][]Permission{
		RoleAdmin: {
			PermCreateRecipes,
			PermEditRecipes,
			PermDeleteRecipes,
			PermViewUsers,
			PermPostUser,
			PermEditUsers,
			PermDeleteUsers,
		},
		RoleUser: {
			PermCreateRecipes,
			PermViewRecipes,
			PermPostUser,
		},
	})
}

// Allows は role が action を実行できるかを返します。
// 表にないロールは空集合として扱います。
func (t *PermissionTable) Allows(role Role, action Permission) bool {
	if t == nil {
		return false
	}
	set, ok := t.grants[role]
	if !ok {
		return false
	}
	_, ok = set[action]
	return ok
}

// Declared はいずれかのロールに action が定義されているかを返します。
func (t *PermissionTable) Declared(action Permission) bool {
	if t == nil {
		return false
	}
	_, ok := t.known[action]
	return ok
}

// Permissions は role に許可された操作をソート済みのコピーで返します。
func (t *PermissionTable) Permissions(role Role) []Permission {
	if t == nil {
		return nil
	}
	set := t.grants[role]
	out := make([]Permission, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
