// Package sql compiles abstract table schemas and filter conditions into
// dialect-specific SQL for the MySQL family, PostgreSQL and SQLite.
//
// # Compilers
//
// The package exposes three pure compile surfaces:
//
//   - CreateTable: renders a schema.Schema as executable DDL
//   - CompileWhere / CompileFilter: render a condition tree as a
//     parameterized WHERE fragment plus its ordered argument list
//   - Named / Positional: rewrite named-parameter templates into
//     positional placeholder form
//
// # Conditions
//
// Conditions are built from predicate functions and combinators:
//
//	sql.EQ("status", "active")          // status = ?
//	sql.EQ("deleted_at", nil)           // deleted_at IS ?
//	sql.In("id", 1, 2, 3)               // id IN (?, ?, ?)
//	sql.Contains("tags", "go")          // dialect-specific containment
//	sql.Match("name", "ada")            // full text, or LIKE fallback
//	sql.Or(sql.EQ("x", "X"), sql.LTE("d", now))
//
// and compiled against a target dialect:
//
//	where, args, err := sql.CompileWhere(dialect.MySQL, s.FullText, p)
//
// CompileFilter accepts the equivalent map shape as decoded from JSON:
//
//	sql.Filter{"a": 1, "b": map[string]any{"gte": 10}}
//
// # Parameter binding
//
// Named rewrites :name templates into positional form, exploding
// array-valued arguments into one placeholder per element. Positional
// renumbers ? placeholders to the $1..$n style PostgreSQL expects.
//
// # Drivers
//
// Driver and Conn adapt database/sql connections to the dialect.Driver
// interface, and Instrument wraps any driver with slog-based query
// statistics. Raw SQL escapes (Raw conditions, inline check expressions)
// are passed through unsanitized; they are trusted caller input.
package sql
