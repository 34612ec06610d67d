package sql

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/acrodrig/dbx"
	"github.com/acrodrig/dbx/dialect"
)

// Predicate is one node of a condition tree. Predicates render themselves
// into a where context; a predicate may render nothing at all (an optional
// full-text term with no value), in which case it contributes neither SQL
// nor arguments.
type Predicate func(*where)

// where carries the compile context of one CompileWhere call.
type where struct {
	*Builder
	fullText []string
}

func (w *where) fork() *where {
	return &where{Builder: w.clone(), fullText: w.fullText}
}

// CompileWhere compiles a condition tree into a parameterized boolean
// expression and its ordered argument list. Multiple predicates are joined
// with AND without extra parentheses; no predicates (or only skipped ones)
// compile to the literal TRUE. fullText names the columns covered by the
// schema's full-text index, used by Match.
func CompileWhere(dialectName string, fullText []string, ps ...Predicate) (string, []any, error) {
	p, ok := dialect.Lookup(dialectName)
	if !ok {
		return "", nil, fmt.Errorf("%w: %q", dbx.ErrUnknownDialect, dialectName)
	}
	w := &where{Builder: NewBuilder(p), fullText: fullText}
	frags := make([]*Builder, 0, len(ps))
	for _, pred := range ps {
		f := w.fork()
		pred(f)
		if f.Len() > 0 {
			frags = append(frags, f.Builder)
		}
	}
	if len(frags) == 0 {
		return "TRUE", []any{}, nil
	}
	w.Join(" AND ", frags...)
	sql, args := w.Query()
	if args == nil {
		args = []any{}
	}
	return sql, args, nil
}

// EQ returns an equality predicate. A nil value renders IS instead of =,
// since SQL equality with NULL is never true.
func EQ(col string, v any) Predicate {
	return func(w *where) {
		w.Ident(col)
		if v == nil {
			w.WriteString(" IS ").Arg(nil)
			return
		}
		w.WriteString(" = ").Arg(v)
	}
}

// NEQ returns an inequality predicate. A nil value renders IS NOT.
func NEQ(col string, v any) Predicate {
	return func(w *where) {
		w.Ident(col)
		if v == nil {
			w.WriteString(" IS NOT ").Arg(nil)
			return
		}
		w.WriteString(" <> ").Arg(v)
	}
}

// GT returns a col > value predicate.
func GT(col string, v any) Predicate {
	return func(w *where) { w.Ident(col).WriteString(" > ").Arg(v) }
}

// GTE returns a col >= value predicate.
func GTE(col string, v any) Predicate {
	return func(w *where) { w.Ident(col).WriteString(" >= ").Arg(v) }
}

// LT returns a col < value predicate.
func LT(col string, v any) Predicate {
	return func(w *where) { w.Ident(col).WriteString(" < ").Arg(v) }
}

// LTE returns a col <= value predicate.
func LTE(col string, v any) Predicate {
	return func(w *where) { w.Ident(col).WriteString(" <= ").Arg(v) }
}

// In returns a membership predicate, exploding the values into one
// placeholder per element. An empty list compiles to FALSE.
func In(col string, vs ...any) Predicate {
	return func(w *where) {
		if len(vs) == 0 {
			w.WriteString("FALSE")
			return
		}
		w.Ident(col).WriteString(" IN ").Wrap(func(b *Builder) {
			b.Args(vs...)
		})
	}
}

// NotIn returns a negated membership predicate. An empty list compiles to
// TRUE.
func NotIn(col string, vs ...any) Predicate {
	return func(w *where) {
		if len(vs) == 0 {
			w.WriteString("TRUE")
			return
		}
		w.Ident(col).WriteString(" NOT IN ").Wrap(func(b *Builder) {
			b.Args(vs...)
		})
	}
}

// Contains returns a JSON/array membership predicate. The MySQL family uses
// MEMBER OF, PostgreSQL casts the column to JSONB and uses JSONB_EXISTS, and
// SQLite degrades to a LIKE over the serialized value, which is approximate
// containment.
func Contains(col string, v any) Predicate {
	return func(w *where) {
		switch w.Profile().Name {
		case dialect.MySQL:
			w.Arg(v).WriteString(" MEMBER OF (").Ident(col).WriteString(")")
		case dialect.Postgres:
			w.WriteString("JSONB_EXISTS(CAST(").Ident(col).WriteString(" AS JSONB), ").Arg(v).WriteString(")")
		default:
			w.Ident(col).WriteString(" LIKE ").Arg(fmt.Sprintf("%%%v%%", v))
		}
	}
}

// Match returns a full-text predicate over the schema's full-text columns.
// A falsy term (nil, empty string, false) skips the predicate entirely, so
// optional search terms need no conditional call sites. Dialects without a
// full-text index over the columns, and SQLite always, fall back to a LIKE
// over the named column; an empty column falls back to the first full-text
// column, and with neither the predicate is skipped.
func Match(col string, term any) Predicate {
	return func(w *where) {
		switch term {
		case nil, "", false:
			return
		}
		t := fmt.Sprintf("%v", term)
		p := w.Profile()
		if len(w.fullText) > 0 && p.FullText {
			switch p.Name {
			case dialect.MySQL:
				w.WriteString("MATCH(")
				for i, c := range w.fullText {
					if i > 0 {
						w.Comma()
					}
					w.Ident(c)
				}
				// Trailing * enables prefix matching in boolean mode.
				w.WriteString(") AGAINST (").Arg(t + "*").WriteString(" IN BOOLEAN MODE)")
				return
			case dialect.Postgres:
				w.WriteString("TO_TSVECTOR('english', ").WriteString(coalesced(w.fullText)).WriteString(") @@ TO_TSQUERY(").Arg(t).WriteString(")")
				return
			}
		}
		if col == "" {
			if len(w.fullText) == 0 {
				return
			}
			col = w.fullText[0]
		}
		w.Ident(col).WriteString(" LIKE ").Arg("%" + t + "%")
	}
}

// And combines predicates with AND, parenthesized as a unit. Skipped
// children are dropped; no remaining children compiles to TRUE.
func And(ps ...Predicate) Predicate {
	return combine(" AND ", ps)
}

// Or combines predicates with OR, parenthesized as a unit.
func Or(ps ...Predicate) Predicate {
	return combine(" OR ", ps)
}

func combine(sep string, ps []Predicate) Predicate {
	return func(w *where) {
		frags := make([]*Builder, 0, len(ps))
		for _, p := range ps {
			f := w.fork()
			p(f)
			if f.Len() > 0 {
				frags = append(frags, f.Builder)
			}
		}
		if len(frags) == 0 {
			w.WriteString("TRUE")
			return
		}
		w.Wrap(func(b *Builder) {
			b.Join(sep, frags...)
		})
	}
}

// Raw returns a predicate that renders the expression verbatim as one
// conjunct, contributing no arguments. The expression is trusted caller
// input, equivalent to string-concatenated SQL.
func Raw(expr string) Predicate {
	return func(w *where) { w.WriteString(expr) }
}

// coalesced renders the NULL-coalesced concatenation of the given columns,
// matching the expression the DDL compiler indexes with GIN.
func coalesced(cols []string) string {
	out := ""
	for i, c := range cols {
		if i > 0 {
			out += " || ' ' || "
		}
		out += "COALESCE(" + c + ", '')"
	}
	return out
}

// Filter is the map shape of a condition tree, as decoded from JSON:
// predicates are {column: {operator: value}} with a bare value as shorthand
// for eq, combinators are {"and": [...]} or {"or": [...]}, and {"$sql": s}
// injects a verbatim conjunct. A top-level {"match": term} with a scalar
// term searches the configured full-text columns; a column named "match"
// stays reachable through the operator-object form. Filter columns compile
// in sorted name order so output is deterministic.
type Filter map[string]any

// Operators recognized in filter predicate objects.
var operators = map[string]func(col string, v any) (Predicate, error){
	"eq":  func(col string, v any) (Predicate, error) { return EQ(col, v), nil },
	"neq": func(col string, v any) (Predicate, error) { return NEQ(col, v), nil },
	"gt":  func(col string, v any) (Predicate, error) { return GT(col, v), nil },
	"gte": func(col string, v any) (Predicate, error) { return GTE(col, v), nil },
	"lt":  func(col string, v any) (Predicate, error) { return LT(col, v), nil },
	"lte": func(col string, v any) (Predicate, error) { return LTE(col, v), nil },
	"in": func(col string, v any) (Predicate, error) {
		vs, err := toSlice(col, v)
		if err != nil {
			return nil, err
		}
		return In(col, vs...), nil
	},
	"nin": func(col string, v any) (Predicate, error) {
		vs, err := toSlice(col, v)
		if err != nil {
			return nil, err
		}
		return NotIn(col, vs...), nil
	},
	"contains": func(col string, v any) (Predicate, error) { return Contains(col, v), nil },
	"match":    func(col string, v any) (Predicate, error) { return Match(col, v), nil },
}

// Predicate converts the filter into a predicate tree.
func (f Filter) Predicate() (Predicate, error) {
	ps, err := f.predicates()
	if err != nil {
		return nil, err
	}
	if len(ps) == 1 {
		return ps[0], nil
	}
	return And(ps...), nil
}

func (f Filter) predicates() ([]Predicate, error) {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ps := make([]Predicate, 0, len(keys))
	for _, k := range keys {
		v := f[k]
		switch k {
		case "and", "or":
			children, err := childFilters(k, v)
			if err != nil {
				return nil, err
			}
			if k == "and" {
				ps = append(ps, And(children...))
			} else {
				ps = append(ps, Or(children...))
			}
		case "$sql":
			expr, ok := v.(string)
			if !ok {
				return nil, dbx.NewConditionError(k, "$sql expects a string")
			}
			ps = append(ps, Raw(expr))
		default:
			if _, ok := toFilter(v); k == "match" && !ok {
				ps = append(ps, Match("", v))
				continue
			}
			p, err := columnPredicate(k, v)
			if err != nil {
				return nil, err
			}
			ps = append(ps, p)
		}
	}
	return ps, nil
}

// columnPredicate compiles one {column: value} entry. An operator object
// must carry exactly one operator key: multi-operator objects are rejected
// as invalid input rather than silently collapsed.
func columnPredicate(col string, v any) (Predicate, error) {
	ops, ok := toFilter(v)
	if !ok {
		// Bare shorthand value: sugar for eq.
		return EQ(col, v), nil
	}
	if len(ops) != 1 {
		return nil, dbx.NewConditionError(col, fmt.Sprintf("expected exactly one operator, got %d", len(ops)))
	}
	for op, val := range ops {
		fn, ok := operators[op]
		if !ok {
			return nil, dbx.NewConditionError(col, fmt.Sprintf("unknown operator %q", op))
		}
		return fn(col, val)
	}
	panic("unreachable")
}

func childFilters(key string, v any) ([]Predicate, error) {
	rv := reflect.ValueOf(v)
	if v == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, dbx.NewConditionError(key, "combinator expects a list of conditions")
	}
	ps := make([]Predicate, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		child, ok := toFilter(rv.Index(i).Interface())
		if !ok {
			return nil, dbx.NewConditionError(key, fmt.Sprintf("condition %d is not an object", i))
		}
		p, err := child.Predicate()
		if err != nil {
			return nil, err
		}
		ps = append(ps, p)
	}
	return ps, nil
}

func toFilter(v any) (Filter, bool) {
	switch m := v.(type) {
	case Filter:
		return m, true
	case map[string]any:
		return Filter(m), true
	}
	return nil, false
}

func toSlice(col string, v any) ([]any, error) {
	rv := reflect.ValueOf(v)
	if v == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, dbx.NewConditionError(col, "in/nin expect an array value")
	}
	vs := make([]any, rv.Len())
	for i := range vs {
		vs[i] = rv.Index(i).Interface()
	}
	return vs, nil
}

// CompileFilter compiles the map shape of a condition tree. It is
// equivalent to converting the filter with Filter.Predicate and calling
// CompileWhere. An empty filter compiles to TRUE.
func CompileFilter(dialectName string, fullText []string, f Filter) (string, []any, error) {
	if len(f) == 0 {
		return CompileWhere(dialectName, fullText)
	}
	ps, err := f.predicates()
	if err != nil {
		return "", nil, err
	}
	return CompileWhere(dialectName, fullText, ps...)
}
