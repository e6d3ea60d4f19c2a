package core

// Entity roles used in schema snapshots.
const (
	RoleTable      = "table"
	RoleColumn     = "column"
	RoleIndex      = "index"
	RoleConstraint = "constraint"
)

// ConstraintKind is the kind of a table constraint.
type ConstraintKind string

// Constraint kinds.
const (
	ConstraintPrimaryKey ConstraintKind = "primary_key"
	ConstraintUnique     ConstraintKind = "unique"
	ConstraintForeignKey ConstraintKind = "foreign_key"
	ConstraintCheck      ConstraintKind = "check"
)

// Table is one table of a catalog.
type Table struct {
	Schema      string
	Name        string
	Columns     []Column
	Indexes     []Index
	Constraints []Constraint
}

// QualifiedName returns "schema.name", or just the name without a schema.
func (t *Table) QualifiedName() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// Column represents a column in a database table.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	Position int
	// Default is the column default expression; nil when there is none.
	Default *string
}

// Index is a secondary index.
type Index struct {
	Name    string
	Columns []string
	Unique  bool
}

// Constraint is a table constraint.
type Constraint struct {
	Name    string
	Kind    ConstraintKind
	Columns []string
	// References is "table(col,...)" for foreign keys.
	References string
}
