// Package schema defines the table model consumed by the dbx compilers:
// columns, indices, relations and constraints, plus the freshness tracking
// of generated schemas against their source definitions.
//
// Schema values are immutable inputs to the compile functions in
// dialect/sql. They are built directly, loaded from YAML definitions
// (see Load), or produced by an external generator.
package schema

import (
	"github.com/go-openapi/inflect"
)

// Type is an abstract column type, mapped to a physical SQL type by the
// dialect profile.
type Type string

// Column types supported by the compilers.
const (
	TypeBoolean Type = "boolean"
	TypeInteger Type = "integer"
	TypeNumber  Type = "number"
	TypeString  Type = "string"
	TypeDate    Type = "date"
	TypeObject  Type = "object"
	TypeArray   Type = "array"
)

// Valid reports whether t is a supported column type.
func (t Type) Valid() bool {
	switch t {
	case TypeBoolean, TypeInteger, TypeNumber, TypeString, TypeDate, TypeObject, TypeArray:
		return true
	}
	return false
}

// DateOn values trigger automatic timestamping of a date column.
const (
	// OnInsert forces CURRENT_TIMESTAMP as the column default.
	OnInsert = "insert"
	// OnUpdate additionally refreshes the column on every update, for
	// dialects that support an ON UPDATE clause. Other dialects keep the
	// insert-time default and leave refreshing to the application.
	OnUpdate = "update"
)

// Relation multiplicities. Informational only: the generated DDL enforces
// nothing beyond the foreign key itself.
const (
	ManyToOne  = "many-to-one"
	ManyToMany = "many-to-many"
)

// Schema describes one table.
type Schema struct {
	// Table is the table name. When empty, it defaults from the name of the
	// type the schema was generated for (see TableName).
	Table string

	// Properties are the columns in declaration order. Order is significant:
	// it drives column ordering and name padding in the generated DDL.
	Properties []*Column

	// Required lists columns rendered NOT NULL.
	Required []string

	// FullText lists columns combined into a single full-text index.
	FullText []string

	// Indices are the secondary indexes, in addition to any synthesized from
	// per-column Index attributes.
	Indices []*Index

	// Relations are the foreign keys of the table.
	Relations []*Relation

	// Constraints are table-level CHECK constraints.
	Constraints []*Constraint

	// ID locates the source definition the schema was generated from. It is
	// a URL whose fragment carries the generation timestamp in Unix
	// milliseconds, e.g. "users.yaml#1712345678901".
	ID string

	// ETag is the content tag of the source definition at generation time.
	ETag string
}

// Column describes one table column.
type Column struct {
	// Name is the column name.
	Name string

	// Type is the abstract column type.
	Type Type

	// MaxLength bounds string columns. Beyond the dialect threshold the
	// physical type is promoted to the dialect's unbounded text type.
	MaxLength int

	// Minimum and Maximum bound numeric columns with CHECK constraints.
	Minimum *float64
	Maximum *float64

	// PrimaryKey marks the column PRIMARY KEY. On an integer column it
	// implies auto-increment.
	PrimaryKey bool

	// Unique marks the column UNIQUE.
	Unique bool

	// Default is the column default: a literal, an object or slice
	// (serialized to a quoted JSON literal), or a pre-quoted SQL fragment
	// (an already-parenthesized expression is passed through verbatim).
	Default any

	// DateOn, on a date column, is one of OnInsert or OnUpdate.
	DateOn string

	// As makes this a generated column. A generated column never receives a
	// default.
	As GeneratedAs

	// Constraint is an inline boolean expression enforced as a CHECK.
	Constraint string

	// Index declares a composite index anchored at this column, listing its
	// member columns. One member may be an array column (see Index.Array).
	Index []string

	// Description becomes a column comment where the dialect supports one.
	Description string
}

// GeneratedAs is a generated-column expression: either a single
// dialect-neutral expression under the empty key, or one expression per
// dialect.
type GeneratedAs map[string]string

// Expr returns the expression for the given dialect, falling back to the
// dialect-neutral one. An empty result means the column is not generated
// for that dialect.
func (g GeneratedAs) Expr(dialect string) string {
	if e, ok := g[dialect]; ok {
		return e
	}
	return g[""]
}

// Index describes a secondary index.
type Index struct {
	// Properties are the member columns in order.
	Properties []string

	// Array is the 0-based position within Properties of a column holding a
	// JSON array. That member is rewritten as a CAST expression so
	// membership queries can be indexed. Nil when no member is an array.
	Array *int

	// Unique marks the index UNIQUE.
	Unique bool
}

// Pos returns a pointer to i, for use as an Index.Array literal.
func Pos(i int) *int { return &i }

// Relation describes a foreign key. The referenced column is always "id".
type Relation struct {
	// Name names the relation; the constraint is named "<table>_<name>".
	Name string

	// Join is the local column holding the reference.
	Join string

	// Target is the referenced table.
	Target string

	// Type is ManyToOne or ManyToMany. Informational only.
	Type string

	// OnDelete and OnUpdate are referential action keywords (CASCADE,
	// SET NULL, RESTRICT, ...). Empty means no clause.
	OnDelete string
	OnUpdate string
}

// Constraint describes a table-level CHECK constraint.
type Constraint struct {
	// Name names the constraint. Empty names fall back to "<table>_check_<n>".
	Name string

	// Check is the boolean expression.
	Check string

	// Enforced, when false, renders the constraint NOT ENFORCED.
	Enforced *bool

	// Provider restricts the constraint to a single dialect. Empty applies
	// everywhere.
	Provider string
}

// Column returns the column with the given name, or nil.
func (s *Schema) Column(name string) *Column {
	for _, c := range s.Properties {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// HasColumn reports whether the schema declares the named column.
func (s *Schema) HasColumn(name string) bool {
	return s.Column(name) != nil
}

// IsRequired reports whether the named column is in the Required set.
func (s *Schema) IsRequired(name string) bool {
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

// TableName derives a table name from a Go type name: snake_cased and
// pluralized, e.g. "UserProfile" becomes "user_profiles".
func TableName(typeName string) string {
	return inflect.Pluralize(inflect.Underscore(typeName))
}

// Name resolves the effective table name: an explicit Table, else the
// inflected typeName, else typeName itself.
func (s *Schema) Name(typeName string) string {
	switch {
	case s.Table != "":
		return s.Table
	case typeName != "":
		return TableName(typeName)
	}
	return ""
}
