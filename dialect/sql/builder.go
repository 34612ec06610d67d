package sql

import (
	"strings"

	"github.com/acrodrig/dbx/dialect"
)

// Builder is the low-level fragment builder shared by the DDL and condition
// compilers. It accumulates SQL text and the arguments referenced by its
// placeholders, so quoting and placeholder bookkeeping live in one place
// instead of at every call site.
type Builder struct {
	profile *dialect.Profile
	sb      strings.Builder
	args    []any
}

// NewBuilder returns a fragment builder for the given dialect profile.
func NewBuilder(p *dialect.Profile) *Builder {
	return &Builder{profile: p}
}

// Profile returns the dialect profile the builder renders for.
func (b *Builder) Profile() *dialect.Profile {
	return b.profile
}

// WriteString appends raw SQL text.
func (b *Builder) WriteString(s string) *Builder {
	b.sb.WriteString(s)
	return b
}

// Ident appends an identifier, quoting it with the dialect quote character
// when it is not a plain lower-case identifier.
func (b *Builder) Ident(name string) *Builder {
	b.sb.WriteString(identString(b.profile, name))
	return b
}

// Pad appends a single space.
func (b *Builder) Pad() *Builder {
	b.sb.WriteByte(' ')
	return b
}

// Comma appends a comma separator.
func (b *Builder) Comma() *Builder {
	b.sb.WriteString(", ")
	return b
}

// Arg appends one placeholder and records its value.
func (b *Builder) Arg(v any) *Builder {
	b.sb.WriteByte('?')
	b.args = append(b.args, v)
	return b
}

// Args appends len(vs) comma-joined placeholders and records their values.
func (b *Builder) Args(vs ...any) *Builder {
	for i, v := range vs {
		if i > 0 {
			b.Comma()
		}
		b.Arg(v)
	}
	return b
}

// Wrap runs fn inside parentheses.
func (b *Builder) Wrap(fn func(*Builder)) *Builder {
	b.sb.WriteByte('(')
	fn(b)
	b.sb.WriteByte(')')
	return b
}

// Join appends the given fragments separated by sep, merging their
// arguments in order.
func (b *Builder) Join(sep string, frags ...*Builder) *Builder {
	for i, f := range frags {
		if i > 0 {
			b.sb.WriteString(sep)
		}
		b.sb.WriteString(f.sb.String())
		b.args = append(b.args, f.args...)
	}
	return b
}

// Len returns the length of the accumulated SQL text.
func (b *Builder) Len() int {
	return b.sb.Len()
}

// String returns the accumulated SQL text.
func (b *Builder) String() string {
	return b.sb.String()
}

// Query returns the accumulated SQL text and its ordered arguments.
func (b *Builder) Query() (string, []any) {
	return b.sb.String(), b.args
}

// clone returns an empty builder with the same profile, for rendering
// sub-fragments that may be discarded.
func (b *Builder) clone() *Builder {
	return NewBuilder(b.profile)
}

// identString renders an identifier, quoted with the profile quote
// character when it is not a plain identifier. Both the condition and the
// DDL compiler quote through it, so the spellings match.
func identString(p *dialect.Profile, name string) string {
	if plainIdent(name) {
		return name
	}
	q := string(p.Quote)
	return q + name + q
}

// plainIdent reports whether s needs no quoting: a bare lower-case
// identifier, optionally dotted.
func plainIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c == '_', c == '.':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// quoteLiteral renders a string as a single-quoted SQL literal, doubling
// embedded quotes.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
