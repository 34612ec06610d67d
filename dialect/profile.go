package dialect

import "strings"

// Profile is the feature table of a single dialect. The DDL and condition
// compilers never branch on the dialect name directly; everything
// dialect-specific they need is a lookup on the profile, except a small
// fixed set of structural differences (SQLite has no foreign keys, no named
// checks and no full-text indexes, and only MySQL renders index clauses
// inside the table body).
//
// Profiles are constructed once at package init and never mutated.
type Profile struct {
	// Name is the dialect identifier (one of the package constants).
	Name string

	// Types maps abstract column types (boolean, integer, number, string,
	// date, object, array) to their physical SQL spelling.
	Types map[string]string

	// MaxVarchar is the largest length a VARCHAR column may declare inline.
	// A column whose MaxLength exceeds it is promoted to LongText.
	MaxVarchar int

	// LongText is the unbounded text type used past the MaxVarchar threshold.
	LongText string

	// AutoIncrement is the clause appended to an integer primary key.
	// Postgres leaves it empty; the SERIAL rewrite happens in a post-pass.
	AutoIncrement string

	// Generated is the format clause for generated columns, with one %s verb
	// for the expression.
	Generated string

	// Comments reports whether column comments are supported in the body.
	Comments bool

	// OnUpdate reports whether ON UPDATE CURRENT_TIMESTAMP is supported.
	OnUpdate bool

	// FullText reports whether a full-text index can be generated at all.
	FullText bool

	// InlineIndexes reports whether secondary indexes are rendered inside
	// the CREATE TABLE body rather than as standalone statements.
	InlineIndexes bool

	// ForeignKeys reports whether FOREIGN KEY clauses are emitted.
	ForeignKeys bool

	// NamedChecks reports whether CHECK constraints may carry a name.
	NamedChecks bool

	// RegexOp is the regular-expression match operator spelling.
	RegexOp string

	// ArrayCast is the element type used when rewriting an array index
	// member as a CAST expression.
	ArrayCast string

	// MultiValued reports whether the array CAST takes an ARRAY suffix,
	// producing a native multi-valued index.
	MultiValued bool

	// Quote is the identifier quote character.
	Quote byte
}

var profiles = map[string]*Profile{
	MySQL: {
		Name: MySQL,
		Types: map[string]string{
			"boolean": "BOOLEAN",
			"integer": "INTEGER",
			"number":  "DOUBLE",
			"string":  "VARCHAR",
			"date":    "DATETIME",
			"object":  "JSON",
			"array":   "JSON",
		},
		MaxVarchar:    16383,
		LongText:      "TEXT",
		AutoIncrement: "AUTO_INCREMENT",
		Generated:     "AS (%s)",
		Comments:      true,
		OnUpdate:      true,
		FullText:      true,
		InlineIndexes: true,
		ForeignKeys:   true,
		NamedChecks:   true,
		RegexOp:       "RLIKE",
		ArrayCast:     "CHAR(64)",
		MultiValued:   true,
		Quote:         '`',
	},
	Postgres: {
		Name: Postgres,
		Types: map[string]string{
			"boolean": "BOOLEAN",
			"integer": "INTEGER",
			"number":  "DOUBLE PRECISION",
			"string":  "VARCHAR",
			"date":    "DATETIME", // renamed to TIMESTAMP in the post-pass
			"object":  "JSONB",
			"array":   "JSONB",
		},
		MaxVarchar:  65535,
		LongText:    "TEXT",
		Generated:   "GENERATED ALWAYS AS (%s) STORED",
		FullText:    true,
		ForeignKeys: true,
		NamedChecks: true,
		RegexOp:     "~*",
		ArrayCast:   "CHAR(64)",
		Quote:       '"',
	},
	SQLite: {
		Name: SQLite,
		Types: map[string]string{
			"boolean": "BOOLEAN",
			"integer": "INTEGER",
			"number":  "DOUBLE",
			"string":  "VARCHAR",
			"date":    "DATETIME",
			"object":  "JSON",
			"array":   "JSON",
		},
		MaxVarchar:    65535,
		LongText:      "TEXT",
		AutoIncrement: "AUTOINCREMENT",
		Generated:     "AS (%s)",
		RegexOp:       "REGEXP",
		ArrayCast:     "CHAR(64)",
		Quote:         '"',
	},
}

// Lookup returns the profile of the named dialect. Driver names carrying a
// suffix resolve to their base dialect profile.
func Lookup(name string) (*Profile, bool) {
	if p, ok := profiles[name]; ok {
		return p, true
	}
	for _, d := range All {
		if strings.HasPrefix(name, d) {
			return profiles[d], true
		}
	}
	return nil, false
}
