package schema

import (
	"fmt"
	"strings"

	"github.com/acrodrig/dbx"
)

// ValidationError reports one problem found in a schema definition.
type ValidationError struct {
	Table   string
	Column  string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s.%s: %s", e.Table, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Message)
}

// ValidationResult holds the results of schema validation.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	var sb strings.Builder
	if len(r.Errors) > 0 {
		sb.WriteString("Errors:\n")
		for _, e := range r.Errors {
			sb.WriteString("  - ")
			sb.WriteString(e.Error())
			sb.WriteString("\n")
		}
	}
	if len(r.Warnings) > 0 {
		sb.WriteString("Warnings:\n")
		for _, w := range r.Warnings {
			sb.WriteString("  - ")
			sb.WriteString(w.Error())
			sb.WriteString("\n")
		}
	}
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}
	return sb.String()
}

// Validate checks the structural invariants of a schema: every name
// referenced by Required, FullText, Indices and Relations must be declared
// in Properties, column types must be known, and generated columns must not
// carry defaults. Suspicious but renderable definitions become warnings.
func Validate(s *Schema) *ValidationResult {
	result := &ValidationResult{}
	table := s.Table
	if table == "" {
		table = "<unnamed>"
	}
	fail := func(column, format string, args ...any) {
		result.Errors = append(result.Errors, &ValidationError{
			Table:   table,
			Column:  column,
			Message: fmt.Sprintf(format, args...),
		})
	}
	warn := func(column, format string, args ...any) {
		result.Warnings = append(result.Warnings, &ValidationError{
			Table:   table,
			Column:  column,
			Message: fmt.Sprintf(format, args...),
		})
	}

	// Check for duplicate column names and per-column attributes.
	names := make(map[string]bool, len(s.Properties))
	for _, c := range s.Properties {
		if names[c.Name] {
			fail(c.Name, "duplicate column name")
		}
		names[c.Name] = true
		if !c.Type.Valid() {
			fail(c.Name, "unknown column type %q", c.Type)
		}
		if len(c.As) > 0 && c.Default != nil {
			fail(c.Name, "generated column cannot have a default")
		}
		if c.DateOn != "" && c.DateOn != OnInsert && c.DateOn != OnUpdate {
			fail(c.Name, "dateOn must be %q or %q, got %q", OnInsert, OnUpdate, c.DateOn)
		}
		if c.DateOn != "" && c.Type != TypeDate {
			warn(c.Name, "dateOn on a non-date column")
		}
		for _, m := range c.Index {
			if !names[m] && s.Column(m) == nil {
				fail(c.Name, "index references non-existent column %q", m)
			}
		}
	}

	for _, r := range s.Required {
		if !names[r] {
			fail(r, "required column is not declared")
		}
	}
	for _, f := range s.FullText {
		if !names[f] {
			fail(f, "full-text column is not declared")
		}
	}
	for _, idx := range s.Indices {
		if len(idx.Properties) == 0 {
			fail("", "index with no columns")
		}
		for _, m := range idx.Properties {
			if !names[m] {
				fail("", "index references non-existent column %q", m)
			}
		}
		if idx.Array != nil && (*idx.Array < 0 || *idx.Array >= len(idx.Properties)) {
			fail("", "index array position %d out of range", *idx.Array)
		}
	}
	for _, rel := range s.Relations {
		if rel.Name == "" {
			fail("", "relation with no name")
		}
		if !names[rel.Join] {
			fail(rel.Join, "relation %q joins on non-existent column", rel.Name)
		}
		if rel.Target == "" {
			fail("", "relation %q has no target table", rel.Name)
		}
	}
	for _, con := range s.Constraints {
		if con.Check == "" {
			fail("", "constraint %q has no check expression", con.Name)
		}
	}
	return result
}

// Validate returns the first structural problem of the schema as an error,
// or nil. An unknown column type additionally matches dbx.ErrUnknownType.
// Callers that want the full report should use the package-level Validate
// function.
func (s *Schema) Validate() error {
	result := Validate(s)
	if !result.HasErrors() {
		return nil
	}
	for _, c := range s.Properties {
		if !c.Type.Valid() {
			return fmt.Errorf("%w: %w", dbx.ErrUnknownType,
				dbx.NewSchemaError(s.Table, c.Name, fmt.Sprintf("unknown column type %q", c.Type)))
		}
	}
	first := result.Errors[0]
	return dbx.NewSchemaError(first.Table, first.Column, first.Message)
}
