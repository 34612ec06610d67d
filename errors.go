// Package dbx defines the shared error taxonomy for the schema and query
// compilers. The compilers themselves live in the dialect/sql and schema
// sub-packages; this package carries only the values they report with.
package dbx

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for common failure classes.
var (
	// ErrUnknownDialect is returned when a compile call names a dialect
	// outside the supported set.
	ErrUnknownDialect = errors.New("dbx: unknown dialect")

	// ErrUnknownType is returned when a column declares a type outside the
	// supported scalar set.
	ErrUnknownType = errors.New("dbx: unknown column type")

	// ErrInvalidSchema is returned when a schema references columns it does
	// not declare, or is otherwise malformed.
	ErrInvalidSchema = errors.New("dbx: invalid schema")

	// ErrInvalidCondition is returned when a filter condition is malformed,
	// including predicate objects carrying more than one operator key.
	ErrInvalidCondition = errors.New("dbx: invalid condition")

	// ErrMissingParam is returned by the named-parameter binder when the
	// template references a name absent from the argument map.
	ErrMissingParam = errors.New("dbx: missing bound parameter")

	// ErrMissingID is returned by the freshness tracker when a schema lacks
	// the identifier needed to locate its source definition.
	ErrMissingID = errors.New("dbx: schema has no source identifier")
)

// SchemaError reports a structural problem in a schema definition.
type SchemaError struct {
	Table  string
	Column string // Optional: the offending column, if one is known.
	Msg    string
}

// Error returns the error string.
func (e *SchemaError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("dbx: schema %s.%s: %s", e.Table, e.Column, e.Msg)
	}
	return fmt.Sprintf("dbx: schema %s: %s", e.Table, e.Msg)
}

// Is reports whether the target error matches SchemaError.
// This allows errors.Is(schemaErr, ErrInvalidSchema) to return true.
func (e *SchemaError) Is(err error) bool {
	return err == ErrInvalidSchema
}

// NewSchemaError returns a new SchemaError for the given table.
func NewSchemaError(table, column, msg string) *SchemaError {
	return &SchemaError{Table: table, Column: column, Msg: msg}
}

// IsInvalidSchema returns true if the error is a SchemaError.
func IsInvalidSchema(err error) bool {
	if err == nil {
		return false
	}
	var e *SchemaError
	return errors.As(err, &e) || errors.Is(err, ErrInvalidSchema)
}

// ConditionError reports a malformed filter condition.
type ConditionError struct {
	Column string // Optional: the predicate column, if one is known.
	Msg    string
}

// Error returns the error string.
func (e *ConditionError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("dbx: condition on %q: %s", e.Column, e.Msg)
	}
	return fmt.Sprintf("dbx: condition: %s", e.Msg)
}

// Is reports whether the target error matches ConditionError.
func (e *ConditionError) Is(err error) bool {
	return err == ErrInvalidCondition
}

// NewConditionError returns a new ConditionError.
func NewConditionError(column, msg string) *ConditionError {
	return &ConditionError{Column: column, Msg: msg}
}

// IsInvalidCondition returns true if the error is a ConditionError.
func IsInvalidCondition(err error) bool {
	if err == nil {
		return false
	}
	var e *ConditionError
	return errors.As(err, &e) || errors.Is(err, ErrInvalidCondition)
}

// BindError reports a named parameter referenced by a SQL template but
// absent from the argument map.
type BindError struct {
	Name string
}

// Error returns the error string.
func (e *BindError) Error() string {
	return fmt.Sprintf("dbx: missing bound parameter %q", e.Name)
}

// Is reports whether the target error matches BindError.
func (e *BindError) Is(err error) bool {
	return err == ErrMissingParam
}

// NewBindError returns a new BindError for the given parameter name.
func NewBindError(name string) *BindError {
	return &BindError{Name: name}
}

// IsMissingParam returns true if the error is a BindError.
func IsMissingParam(err error) bool {
	if err == nil {
		return false
	}
	var e *BindError
	return errors.As(err, &e) || errors.Is(err, ErrMissingParam)
}
