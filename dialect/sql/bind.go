package sql

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/acrodrig/dbx"
)

// BindOption configures the named-parameter binder.
type BindOption func(*bindConfig)

type bindConfig struct {
	permissive bool
}

// Permissive makes Named substitute nil for parameters absent from the
// argument map instead of failing.
func Permissive() BindOption {
	return func(c *bindConfig) { c.permissive = true }
}

// Named rewrites a SQL template referencing named parameters (:name) into
// one referencing positional placeholders, and returns the arguments in
// left-to-right occurrence order. Array-valued parameters are exploded into
// one placeholder per element; repeated occurrences of a name re-emit its
// value. A name absent from args fails with dbx.ErrMissingParam unless the
// Permissive option is given. Postgres ::type casts are left untouched.
func Named(query string, args map[string]any, opts ...BindOption) (string, []any, error) {
	var cfg bindConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	var (
		sb  strings.Builder
		out []any
	)
	out = []any{}
	for i := 0; i < len(query); i++ {
		c := query[i]
		if c != ':' {
			sb.WriteByte(c)
			continue
		}
		// "::" is a cast, not a parameter.
		if i+1 < len(query) && query[i+1] == ':' {
			sb.WriteString("::")
			i++
			continue
		}
		j := i + 1
		for j < len(query) && identByte(query[j]) {
			j++
		}
		if j == i+1 {
			sb.WriteByte(c)
			continue
		}
		name := query[i+1 : j]
		i = j - 1
		v, ok := args[name]
		if !ok {
			if !cfg.permissive {
				return "", nil, dbx.NewBindError(name)
			}
			v = nil
		}
		if vs, ok := asSlice(v); ok {
			for k, e := range vs {
				if k > 0 {
					sb.WriteString(", ")
				}
				sb.WriteByte('?')
				out = append(out, e)
			}
			continue
		}
		sb.WriteByte('?')
		out = append(out, v)
	}
	return sb.String(), out, nil
}

// Positional rewrites each ? placeholder to the $1..$n style PostgreSQL
// expects, in order, and strips the MySQL-only "ORDER BY NULL" idiom, which
// is invalid elsewhere.
func Positional(query string) string {
	query = strings.ReplaceAll(query, " ORDER BY NULL", "")
	var sb strings.Builder
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] != '?' {
			sb.WriteByte(query[i])
			continue
		}
		n++
		sb.WriteByte('$')
		sb.WriteString(strconv.Itoa(n))
	}
	return sb.String()
}

func identByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// asSlice reports whether v is an array value to be exploded. Strings and
// byte slices bind as single values.
func asSlice(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if _, ok := v.([]byte); ok {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	vs := make([]any, rv.Len())
	for i := range vs {
		vs[i] = rv.Index(i).Interface()
	}
	return vs, true
}
