package sql

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/acrodrig/dbx"
	"github.com/acrodrig/dbx/dialect"
	"github.com/acrodrig/dbx/schema"
)

// CreateTable compiles a schema into the DDL that creates its table on the
// given dialect: the CREATE TABLE statement itself plus any standalone
// index statements the dialect requires. The optional tableName overrides
// the schema's own table name.
//
// The output is deterministic and whitespace-stable for identical input:
// compiling the same schema twice yields byte-identical text. Table and
// column identifiers quote with the same rules the condition compiler uses;
// derived constraint and index names, built from those identifiers, stay
// bare. Unknown dialects, unknown column types and dangling column
// references fail before any output is produced.
func CreateTable(s *schema.Schema, dialectName string, tableName ...string) (string, error) {
	p, ok := dialect.Lookup(dialectName)
	if !ok {
		return "", fmt.Errorf("%w: %q", dbx.ErrUnknownDialect, dialectName)
	}
	if err := s.Validate(); err != nil {
		return "", err
	}
	table := s.Table
	if len(tableName) > 0 && tableName[0] != "" {
		table = tableName[0]
	}
	if table == "" {
		return "", dbx.NewSchemaError("", "", "no table name")
	}

	var body []string

	// Column clauses, in declaration order, names padded to equal width.
	width := 0
	for _, c := range s.Properties {
		if n := len(identString(p, c.Name)); n > width {
			width = n
		}
	}
	for _, c := range s.Properties {
		clause, err := columnClause(s, c, p, width)
		if err != nil {
			return "", err
		}
		body = append(body, clause)
	}

	// Foreign keys. SQLite is created without them; its references stay
	// application-enforced.
	if p.ForeignKeys {
		for _, r := range s.Relations {
			body = append(body, foreignKeyClause(table, r, p))
		}
	}

	body = append(body, checkClauses(s, table, p)...)

	indices := collectIndices(s, table)
	if p.InlineIndexes {
		for _, ix := range indices {
			body = append(body, inlineIndexClause(ix, p))
		}
		if len(s.FullText) > 0 && p.FullText {
			body = append(body, fmt.Sprintf("FULLTEXT INDEX %s_fulltext (%s)", table, identList(s.FullText, p)))
		}
	}

	var sb strings.Builder
	sb.WriteString("CREATE TABLE ")
	sb.WriteString(identString(p, table))
	sb.WriteString(" (\n  ")
	sb.WriteString(strings.Join(body, ",\n  "))
	sb.WriteString("\n);")
	out := strings.ReplaceAll(sb.String(), ",\n)", "\n)")

	if !p.InlineIndexes {
		for _, ix := range indices {
			out += "\n" + standaloneIndexStatement(table, ix, p)
		}
		if len(s.FullText) > 0 && p.FullText {
			out += fmt.Sprintf("\nCREATE INDEX %s_fulltext ON %s USING GIN (TO_TSVECTOR('english', %s));",
				table, identString(p, table), coalesced(s.FullText))
		}
	}

	if p.Name == dialect.Postgres {
		out = postgresPass(out)
	}
	return out, nil
}

// columnClause renders one column definition.
func columnClause(s *schema.Schema, c *schema.Column, p *dialect.Profile, width int) (string, error) {
	parts := []string{fmt.Sprintf("%-*s", width, identString(p, c.Name)), physicalType(c, p)}

	if expr := c.As.Expr(p.Name); expr != "" {
		parts = append(parts, fmt.Sprintf(p.Generated, expr))
	}
	if c.PrimaryKey || s.IsRequired(c.Name) {
		parts = append(parts, "NOT NULL")
	}
	// Auto-timestamp defaults take precedence over literal defaults; a
	// generated column takes no default at all.
	if len(c.As) == 0 {
		def, err := defaultClause(c, p)
		if err != nil {
			return "", err
		}
		if def != "" {
			parts = append(parts, "DEFAULT "+def)
		}
	}
	switch {
	case c.PrimaryKey:
		parts = append(parts, "PRIMARY KEY")
		if c.Type == schema.TypeInteger && p.AutoIncrement != "" {
			parts = append(parts, p.AutoIncrement)
		}
	case c.Unique:
		parts = append(parts, "UNIQUE")
	}
	if c.Description != "" && p.Comments {
		parts = append(parts, "COMMENT "+quoteLiteral(c.Description))
	}
	return strings.Join(parts, " "), nil
}

// physicalType maps the abstract column type to its dialect spelling,
// promoting over-long strings to the unbounded text type.
func physicalType(c *schema.Column, p *dialect.Profile) string {
	t := p.Types[string(c.Type)]
	if c.Type != schema.TypeString {
		return t
	}
	length := c.MaxLength
	if length == 0 {
		length = 255
	}
	if length > p.MaxVarchar {
		return p.LongText
	}
	return fmt.Sprintf("%s(%d)", t, length)
}

// defaultClause renders the DEFAULT value of a column, or "".
func defaultClause(c *schema.Column, p *dialect.Profile) (string, error) {
	if c.DateOn != "" {
		def := "CURRENT_TIMESTAMP"
		if c.DateOn == schema.OnUpdate && p.OnUpdate {
			def += " ON UPDATE CURRENT_TIMESTAMP"
		}
		return def, nil
	}
	switch v := c.Default.(type) {
	case nil:
		return "", nil
	case string:
		// An already-parenthesized expression passes through verbatim.
		if strings.HasPrefix(v, "(") {
			return v, nil
		}
		return quoteLiteral(v), nil
	case bool:
		if v {
			return "TRUE", nil
		}
		return "FALSE", nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprintf("%v", v), nil
	default:
		// Objects and arrays become a quoted JSON literal wrapped in
		// parentheses, so the engine treats it as an expression rather than
		// a plain string.
		data, err := json.Marshal(v)
		if err != nil {
			return "", dbx.NewSchemaError("", c.Name, fmt.Sprintf("unserializable default: %v", err))
		}
		return "(" + quoteLiteral(string(data)) + ")", nil
	}
}

func foreignKeyClause(table string, r *schema.Relation, p *dialect.Profile) string {
	clause := fmt.Sprintf("CONSTRAINT %s_%s FOREIGN KEY (%s) REFERENCES %s (id)",
		table, r.Name, identString(p, r.Join), identString(p, r.Target))
	if r.OnDelete != "" {
		clause += " ON DELETE " + r.OnDelete
	}
	if r.OnUpdate != "" {
		clause += " ON UPDATE " + r.OnUpdate
	}
	return clause
}

// checkClauses collects the CHECK constraints of the schema: per-column
// inline constraints and bounds, then table-level constraints whose
// provider matches the dialect. The combined list is sorted so output is
// diffable.
func checkClauses(s *schema.Schema, table string, p *dialect.Profile) []string {
	var checks []string
	named := func(name, expr string) string {
		if !p.NamedChecks {
			return fmt.Sprintf("CHECK (%s)", expr)
		}
		return fmt.Sprintf("CONSTRAINT %s CHECK (%s)", name, expr)
	}
	for _, c := range s.Properties {
		if c.Constraint != "" {
			checks = append(checks, named(table+"_"+c.Name, c.Constraint))
		}
		if expr := boundsExpr(c, p); expr != "" {
			checks = append(checks, named(table+"_"+c.Name+"_range", expr))
		}
	}
	for i, con := range s.Constraints {
		if con.Provider != "" && con.Provider != p.Name {
			continue
		}
		name := con.Name
		if name == "" {
			name = fmt.Sprintf("%s_check_%d", table, i)
		}
		clause := named(name, con.Check)
		// NOT ENFORCED is a MySQL-family notion; elsewhere the flag is
		// dropped and the constraint enforced.
		if con.Enforced != nil && !*con.Enforced && p.Name == dialect.MySQL {
			clause += " NOT ENFORCED"
		}
		checks = append(checks, clause)
	}
	sort.Strings(checks)
	return checks
}

func boundsExpr(c *schema.Column, p *dialect.Profile) string {
	name := identString(p, c.Name)
	switch {
	case c.Minimum != nil && c.Maximum != nil:
		return fmt.Sprintf("%s >= %v AND %s <= %v", name, *c.Minimum, name, *c.Maximum)
	case c.Minimum != nil:
		return fmt.Sprintf("%s >= %v", name, *c.Minimum)
	case c.Maximum != nil:
		return fmt.Sprintf("%s <= %v", name, *c.Maximum)
	}
	return ""
}

// namedIndex pairs a synthesized or declared index with its derived name.
type namedIndex struct {
	name  string
	index *schema.Index
}

// collectIndices unions the schema's declared indices with one synthesized
// per column that carries an index attribute. Indices are named after their
// constituent columns and sorted by name; duplicates collapse onto the
// first occurrence.
func collectIndices(s *schema.Schema, table string) []namedIndex {
	var all []*schema.Index
	all = append(all, s.Indices...)
	for _, c := range s.Properties {
		if len(c.Index) == 0 {
			continue
		}
		ix := &schema.Index{Properties: c.Index}
		// Detect the array member of a synthesized index from the column
		// types themselves.
		for i, m := range c.Index {
			if mc := s.Column(m); mc != nil && mc.Type == schema.TypeArray {
				ix.Array = schema.Pos(i)
				break
			}
		}
		all = append(all, ix)
	}
	seen := make(map[string]bool, len(all))
	out := make([]namedIndex, 0, len(all))
	for _, ix := range all {
		name := table + "_" + strings.Join(ix.Properties, "_")
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, namedIndex{name: name, index: ix})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// indexColumns renders the column list of an index, rewriting the array
// member as a CAST expression. The ARRAY suffix, which makes the index
// natively multi-valued, exists only in the MySQL family; other dialects
// index the cast value itself.
func indexColumns(ix *schema.Index, p *dialect.Profile) string {
	cols := make([]string, len(ix.Properties))
	for i, m := range ix.Properties {
		if ix.Array != nil && *ix.Array == i {
			cast := p.ArrayCast
			if p.MultiValued {
				cast += " ARRAY"
			}
			cols[i] = fmt.Sprintf("(CAST(%s AS %s))", identString(p, m), cast)
			continue
		}
		cols[i] = identString(p, m)
	}
	return strings.Join(cols, ", ")
}

// identList renders a comma-joined list of quoted identifiers.
func identList(names []string, p *dialect.Profile) string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = identString(p, n)
	}
	return strings.Join(out, ", ")
}

func inlineIndexClause(ix namedIndex, p *dialect.Profile) string {
	kind := "INDEX"
	if ix.index.Unique {
		kind = "UNIQUE INDEX"
	}
	return fmt.Sprintf("%s %s (%s)", kind, ix.name, indexColumns(ix.index, p))
}

func standaloneIndexStatement(table string, ix namedIndex, p *dialect.Profile) string {
	kind := "CREATE INDEX"
	if ix.index.Unique {
		kind = "CREATE UNIQUE INDEX"
	}
	return fmt.Sprintf("%s %s ON %s (%s);", kind, ix.name, identString(p, table), indexColumns(ix.index, p))
}

// postgresPass renames the MySQL-flavored spellings the compiler emits into
// their PostgreSQL equivalents: DATETIME becomes TIMESTAMP, JSON_EXTRACT
// becomes JSONB_EXTRACT_PATH, regex operators become ~*, and an
// auto-increment integer primary key becomes SERIAL.
func postgresPass(sql string) string {
	lines := strings.Split(sql, "\n")
	for i, line := range lines {
		if strings.Contains(line, "INTEGER") && strings.Contains(line, "PRIMARY KEY") {
			lines[i] = strings.Replace(line, "INTEGER", "SERIAL", 1)
		}
	}
	sql = strings.Join(lines, "\n")
	sql = strings.ReplaceAll(sql, "DATETIME", "TIMESTAMP")
	sql = strings.ReplaceAll(sql, "JSON_EXTRACT(", "JSONB_EXTRACT_PATH(")
	sql = strings.ReplaceAll(sql, " RLIKE ", " ~* ")
	sql = strings.ReplaceAll(sql, " REGEXP ", " ~* ")
	return sql
}
