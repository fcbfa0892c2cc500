package auth

import "fmt"

// Gate はロールとルートが宣言した操作から可否を判定します。I/O は行いません。
type Gate struct {
	table *PermissionTable
}

// NewGate は Gate を作成します。
func NewGate(table *PermissionTable) *Gate {
	return &Gate{table: table}
}

// Authorize は許可されていれば nil、そうでなければ ErrForbidden を返します。
func (g *Gate) Authorize(role Role, action Permission) error {
	if g.table.Allows(role, action) {
		return nil
	}
	return fmt.Errorf("%w: role %q cannot %s", ErrForbidden, role, action)
}

// Table は判定に使う対応表を返します。
func (g *Gate) Table() *PermissionTable {
	return g.table
}
