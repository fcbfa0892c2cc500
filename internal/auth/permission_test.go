package auth

import (
	"errors"
	"testing"
)

var allPermissions = []Permission{
	PermCreateRecipes,
	PermEditRecipes,
	PermDeleteRecipes,
	PermViewRecipes,
	PermViewUsers,
	PermPostUser,
	PermEditUsers,
	PermDeleteUsers,
}

func TestDefaultPermissionTable(t *testing.T) {
	table := DefaultPermissionTable()

	want := map[Role][]Permission{
		RoleAdmin: {PermCreateRecipes, PermEditRecipes, PermDeleteRecipes, PermViewUsers, PermPostUser, PermEditUsers, PermDeleteUsers},
		RoleUser:  {PermCreateRecipes, PermViewRecipes, PermPostUser},
	}
	for role, perms := range want {
		granted := make(map[Permission]bool, len(perms))
		for _, p := range perms {
			granted[p] = true
		}
		for _, p := range allPermissions {
			if got := table.Allows(role, p); got != granted[p] {
				t.Fatalf("Allows(%s, %s) = %v, want %v", role, p, got, granted[p])
			}
		}
	}
}

func TestGateMatchesTableMembership(t *testing.T) {
	table := DefaultPermissionTable()
	gate := NewGate(table)

	roles := append(Roles(), Role("root"), Role(""))
	for _, role := range roles {
		for _, p := range allPermissions {
			err := gate.Authorize(role, p)
			if table.Allows(role, p) {
				if err != nil {
					t.Fatalf("Authorize(%s, %s) = %v, want nil", role, p, err)
				}
				continue
			}
			if !errors.Is(err, ErrForbidden) {
				t.Fatalf("Authorize(%s, %s) = %v, want ErrForbidden", role, p, err)
			}
		}
	}
}

func TestGateDeniesUnknownRole(t *testing.T) {
	gate := NewGate(DefaultPermissionTable())
	for _, p := range allPermissions {
		if err := gate.Authorize(Role("superuser"), p); !errors.Is(err, ErrForbidden) {
			t.Fatalf("unknown role allowed %s: %v", p, err)
		}
	}
}

func TestUserCannotDeleteRecipes(t *testing.T) {
	gate := NewGate(DefaultPermissionTable())
	if err := gate.Authorize(RoleUser, PermDeleteRecipes); !errors.Is(err, ErrForbidden) {
		t.Fatalf("Authorize error = %v, want ErrForbidden", err)
	}
}

func TestPermissionTableIsImmutable(t *testing.T) {
	input := map[Role][]Permission{RoleUser: {PermViewRecipes}}
	table := NewPermissionTable(input)

	input[RoleUser][0] = PermDeleteRecipes
	input[RoleAdmin] = []Permission{PermDeleteRecipes}
	if table.Allows(RoleUser, PermDeleteRecipes) || table.Allows(RoleAdmin, PermDeleteRecipes) {
		t.Fatal("table changed after mutating its input")
	}

	perms := table.Permissions(RoleUser)
	perms[0] = PermDeleteUsers
	if !table.Allows(RoleUser, PermViewRecipes) || table.Allows(RoleUser, PermDeleteUsers) {
		t.Fatal("table changed after mutating Permissions result")
	}
}

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"admin":  RoleAdmin,
		" USER ": RoleUser,
		"Admin":  RoleAdmin,
	}
	for in, want := range cases {
		got, err := ParseRole(in)
		if err != nil || got != want {
			t.Fatalf("ParseRole(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	for _, in := range []string{"", "root", "administrator"} {
		if _, err := ParseRole(in); !errors.Is(err, ErrInvalidRole) {
			t.Fatalf("ParseRole(%q) error = %v, want ErrInvalidRole", in, err)
		}
	}
}
