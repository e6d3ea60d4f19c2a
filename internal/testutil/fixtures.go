package testutil

import (
	"github.com/leapstack-labs/leapdiff/pkg/core"
)

// UsersTable returns public.users with id (primary key), name and email
// (unique) plus an index on name.
func UsersTable() core.Table {
	return core.Table{
		Schema: "public",
		Name:   "users",
		Columns: []core.Column{
			{Name: "id", Type: "integer", Position: 1},
			{Name: "name", Type: "text", Nullable: true, Position: 2},
			{Name: "email", Type: "text", Position: 3},
		},
		Indexes: []core.Index{
			{Name: "users_name_idx", Columns: []string{"name"}},
		},
		Constraints: []core.Constraint{
			{Name: "users_pkey", Kind: core.ConstraintPrimaryKey, Columns: []string{"id"}},
			{Name: "users_email_key", Kind: core.ConstraintUnique, Columns: []string{"email"}},
		},
	}
}

// OrdersTable returns public.orders referencing public.users.
func OrdersTable() core.Table {
	return core.Table{
		Schema: "public",
		Name:   "orders",
		Columns: []core.Column{
			{Name: "id", Type: "integer", Position: 1},
			{Name: "user_id", Type: "integer", Position: 2},
			{Name: "total", Type: "numeric", Position: 3},
		},
		Constraints: []core.Constraint{
			{Name: "orders_pkey", Kind: core.ConstraintPrimaryKey, Columns: []string{"id"}},
			{Name: "orders_user_id_fkey", Kind: core.ConstraintForeignKey, Columns: []string{"user_id"}, References: "public.users(id)"},
			{Name: "orders_id_user_key", Kind: core.ConstraintUnique, Columns: []string{"id", "user_id"}},
		},
	}
}
