package sql

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/acrodrig/dbx"
	"github.com/acrodrig/dbx/dialect"
	"github.com/acrodrig/dbx/schema"
)

func f64(v float64) *float64 { return &v }

// userSchema exercises most column attributes at once: auto-increment key,
// required and unique strings, numeric bounds, JSON columns, an array index
// member, timestamps, a foreign key and table checks.
func userSchema() *schema.Schema {
	return &schema.Schema{
		Table: "users",
		Properties: []*schema.Column{
			{Name: "id", Type: schema.TypeInteger, PrimaryKey: true},
			{Name: "email", Type: schema.TypeString, Unique: true},
			{Name: "name", Type: schema.TypeString},
			{Name: "age", Type: schema.TypeInteger, Minimum: f64(0), Maximum: f64(150)},
			{Name: "tags", Type: schema.TypeArray},
			{Name: "profile", Type: schema.TypeObject},
			{Name: "owner_id", Type: schema.TypeInteger},
			{Name: "created", Type: schema.TypeDate, DateOn: schema.OnInsert},
			{Name: "modified", Type: schema.TypeDate, DateOn: schema.OnUpdate},
		},
		Required: []string{"email"},
		FullText: []string{"name", "email"},
		Indices: []*schema.Index{
			{Properties: []string{"email", "tags"}, Array: schema.Pos(1)},
		},
		Relations: []*schema.Relation{
			{Name: "owner", Join: "owner_id", Target: "users", Type: schema.ManyToOne, OnDelete: "CASCADE"},
		},
		Constraints: []*schema.Constraint{
			{Name: "users_email_at", Check: "email LIKE '%@%'"},
			{Check: "TRUE", Provider: "mysql"},
		},
	}
}

func TestCreateTable_MySQL(t *testing.T) {
	t.Parallel()

	out, err := CreateTable(userSchema(), dialect.MySQL)
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"CREATE TABLE users (",
		"  id       INTEGER NOT NULL PRIMARY KEY AUTO_INCREMENT,",
		"  email    VARCHAR(255) NOT NULL UNIQUE,",
		"  name     VARCHAR(255),",
		"  age      INTEGER,",
		"  tags     JSON,",
		"  profile  JSON,",
		"  owner_id INTEGER,",
		"  created  DATETIME DEFAULT CURRENT_TIMESTAMP,",
		"  modified DATETIME DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,",
		"  CONSTRAINT users_owner FOREIGN KEY (owner_id) REFERENCES users (id) ON DELETE CASCADE,",
		"  CONSTRAINT users_age_range CHECK (age >= 0 AND age <= 150),",
		"  CONSTRAINT users_check_1 CHECK (TRUE),",
		"  CONSTRAINT users_email_at CHECK (email LIKE '%@%'),",
		"  INDEX users_email_tags (email, (CAST(tags AS CHAR(64) ARRAY))),",
		"  FULLTEXT INDEX users_fulltext (name, email)",
		");",
	}, "\n"), out)
}

func TestCreateTable_Postgres(t *testing.T) {
	t.Parallel()

	out, err := CreateTable(userSchema(), dialect.Postgres)
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"CREATE TABLE users (",
		"  id       SERIAL NOT NULL PRIMARY KEY,",
		"  email    VARCHAR(255) NOT NULL UNIQUE,",
		"  name     VARCHAR(255),",
		"  age      INTEGER,",
		"  tags     JSONB,",
		"  profile  JSONB,",
		"  owner_id INTEGER,",
		"  created  TIMESTAMP DEFAULT CURRENT_TIMESTAMP,",
		"  modified TIMESTAMP DEFAULT CURRENT_TIMESTAMP,",
		"  CONSTRAINT users_owner FOREIGN KEY (owner_id) REFERENCES users (id) ON DELETE CASCADE,",
		"  CONSTRAINT users_age_range CHECK (age >= 0 AND age <= 150),",
		"  CONSTRAINT users_email_at CHECK (email LIKE '%@%')",
		");",
		"CREATE INDEX users_email_tags ON users (email, (CAST(tags AS CHAR(64))));",
		"CREATE INDEX users_fulltext ON users USING GIN (TO_TSVECTOR('english', COALESCE(name, '') || ' ' || COALESCE(email, '')));",
	}, "\n"), out)
}

func TestCreateTable_SQLite(t *testing.T) {
	t.Parallel()

	out, err := CreateTable(userSchema(), dialect.SQLite)
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"CREATE TABLE users (",
		"  id       INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,",
		"  email    VARCHAR(255) NOT NULL UNIQUE,",
		"  name     VARCHAR(255),",
		"  age      INTEGER,",
		"  tags     JSON,",
		"  profile  JSON,",
		"  owner_id INTEGER,",
		"  created  DATETIME DEFAULT CURRENT_TIMESTAMP,",
		"  modified DATETIME DEFAULT CURRENT_TIMESTAMP,",
		"  CHECK (age >= 0 AND age <= 150),",
		"  CHECK (email LIKE '%@%')",
		");",
		"CREATE INDEX users_email_tags ON users (email, (CAST(tags AS CHAR(64))));",
	}, "\n"), out)
}

func TestCreateTable_Deterministic(t *testing.T) {
	t.Parallel()

	for _, d := range dialect.All {
		t.Run(d, func(t *testing.T) {
			first, err := CreateTable(userSchema(), d)
			require.NoError(t, err)
			second, err := CreateTable(userSchema(), d)
			require.NoError(t, err)
			assert.Equal(t, first, second)
		})
	}
}

func TestCreateTable_SQLiteExec(t *testing.T) {
	t.Parallel()

	out, err := CreateTable(userSchema(), dialect.SQLite)
	require.NoError(t, err)

	drv, err := Open("sqlite", "file:create?mode=memory&cache=shared")
	require.NoError(t, err)
	defer drv.Close()

	ctx := context.Background()
	n, err := drv.ExecScript(ctx, out)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// The generated constraints must be live: a NOT NULL violation and a
	// bounds violation both have to fail, a conforming row has to insert.
	err = drv.Exec(ctx, "INSERT INTO users (email, age) VALUES (?, ?)", []any{"ada@dbx.dev", 36}, nil)
	require.NoError(t, err)
	err = drv.Exec(ctx, "INSERT INTO users (age) VALUES (?)", []any{36}, nil)
	require.Error(t, err)
	err = drv.Exec(ctx, "INSERT INTO users (email, age) VALUES (?, ?)", []any{"bob@dbx.dev", 200}, nil)
	require.Error(t, err)
}

func TestCreateTable_TableNameOverride(t *testing.T) {
	t.Parallel()

	out, err := CreateTable(userSchema(), dialect.SQLite, "people")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "CREATE TABLE people (\n"))
	assert.Contains(t, out, "CREATE INDEX people_email_tags ON people")
	assert.NotContains(t, out, "users")
}

func TestCreateTable_LongStrings(t *testing.T) {
	t.Parallel()

	s := &schema.Schema{
		Table: "docs",
		Properties: []*schema.Column{
			{Name: "summary", Type: schema.TypeString, MaxLength: 20000},
			{Name: "body", Type: schema.TypeString, MaxLength: 70000},
		},
	}

	// 20000 fits a MySQL-era VARCHAR nowhere near: only 16383 is inlined.
	out, err := CreateTable(s, dialect.MySQL)
	require.NoError(t, err)
	assert.Contains(t, out, "summary TEXT")
	assert.Contains(t, out, "body    TEXT")

	out, err = CreateTable(s, dialect.Postgres)
	require.NoError(t, err)
	assert.Contains(t, out, "summary VARCHAR(20000)")
	assert.Contains(t, out, "body    TEXT")
}

func TestCreateTable_GeneratedColumns(t *testing.T) {
	t.Parallel()

	s := &schema.Schema{
		Table: "files",
		Properties: []*schema.Column{
			{Name: "name", Type: schema.TypeString},
			{Name: "upper", Type: schema.TypeString, As: schema.GeneratedAs{"": "UPPER(name)"}},
		},
	}

	out, err := CreateTable(s, dialect.MySQL)
	require.NoError(t, err)
	assert.Contains(t, out, "upper VARCHAR(255) AS (UPPER(name))")

	out, err = CreateTable(s, dialect.Postgres)
	require.NoError(t, err)
	assert.Contains(t, out, "upper VARCHAR(255) GENERATED ALWAYS AS (UPPER(name)) STORED")

	t.Run("per-dialect expression wins", func(t *testing.T) {
		s.Properties[1].As = schema.GeneratedAs{
			"":         "UPPER(name)",
			"postgres": "LOWER(name)",
		}
		out, err := CreateTable(s, dialect.Postgres)
		require.NoError(t, err)
		assert.Contains(t, out, "GENERATED ALWAYS AS (LOWER(name)) STORED")
	})

	t.Run("generated column with a default is invalid", func(t *testing.T) {
		bad := &schema.Schema{
			Table: "files",
			Properties: []*schema.Column{
				{Name: "upper", Type: schema.TypeString, As: schema.GeneratedAs{"": "UPPER(name)"}, Default: "x"},
			},
		}
		_, err := CreateTable(bad, dialect.MySQL)
		require.Error(t, err)
		assert.True(t, dbx.IsInvalidSchema(err))
	})
}

func TestCreateTable_Defaults(t *testing.T) {
	t.Parallel()

	s := &schema.Schema{
		Table: "settings",
		Properties: []*schema.Column{
			{Name: "active", Type: schema.TypeBoolean, Default: true},
			{Name: "retries", Type: schema.TypeInteger, Default: 3},
			{Name: "label", Type: schema.TypeString, Default: "it's on"},
			{Name: "expires", Type: schema.TypeDate, Default: "(DATETIME('now'))"},
			{Name: "flags", Type: schema.TypeObject, Default: map[string]any{"a": 1}},
		},
	}
	out, err := CreateTable(s, dialect.SQLite)
	require.NoError(t, err)
	assert.Contains(t, out, "active  BOOLEAN DEFAULT TRUE")
	assert.Contains(t, out, "retries INTEGER DEFAULT 3")
	assert.Contains(t, out, `label   VARCHAR(255) DEFAULT 'it''s on'`)
	assert.Contains(t, out, "expires DATETIME DEFAULT (DATETIME('now'))")
	assert.Contains(t, out, `flags   JSON DEFAULT ('{"a":1}')`)
}

func TestCreateTable_SynthesizedIndices(t *testing.T) {
	t.Parallel()

	s := &schema.Schema{
		Table: "posts",
		Properties: []*schema.Column{
			{Name: "id", Type: schema.TypeInteger, PrimaryKey: true},
			{Name: "slug", Type: schema.TypeString, Index: []string{"slug"}},
			{Name: "labels", Type: schema.TypeArray, Index: []string{"slug", "labels"}},
		},
		// Declared duplicate of the synthesized composite collapses.
		Indices: []*schema.Index{{Properties: []string{"slug", "labels"}, Array: schema.Pos(1)}},
	}
	out, err := CreateTable(s, dialect.MySQL)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "INDEX posts_slug_labels"))
	assert.Contains(t, out, "INDEX posts_slug (slug)")
	assert.Contains(t, out, "INDEX posts_slug_labels (slug, (CAST(labels AS CHAR(64) ARRAY)))")
}

func TestCreateTable_QuotedIdentifiers(t *testing.T) {
	t.Parallel()

	// Non-plain column names quote with the same rules the condition
	// compiler uses, everywhere they appear: definitions, checks, indexes
	// and foreign keys.
	s := &schema.Schema{
		Table: "files",
		Properties: []*schema.Column{
			{Name: "id", Type: schema.TypeInteger, PrimaryKey: true},
			{Name: "ownerId", Type: schema.TypeInteger, Minimum: f64(0)},
		},
		Indices:   []*schema.Index{{Properties: []string{"ownerId"}}},
		Relations: []*schema.Relation{{Name: "owner", Join: "ownerId", Target: "users"}},
	}

	out, err := CreateTable(s, dialect.MySQL)
	require.NoError(t, err)
	assert.Contains(t, out, "`ownerId` INTEGER")
	assert.Contains(t, out, "CHECK (`ownerId` >= 0)")
	assert.Contains(t, out, "INDEX files_ownerId (`ownerId`)")
	assert.Contains(t, out, "FOREIGN KEY (`ownerId`) REFERENCES users (id)")

	out, err = CreateTable(s, dialect.SQLite)
	require.NoError(t, err)
	assert.Contains(t, out, `"ownerId" INTEGER`)
	assert.Contains(t, out, `CREATE INDEX files_ownerId ON files ("ownerId");`)

	// Plain names stay unquoted on every dialect.
	out, err = CreateTable(userSchema(), dialect.MySQL)
	require.NoError(t, err)
	assert.NotContains(t, out, "`")
}

func TestCreateTable_Comments(t *testing.T) {
	t.Parallel()

	s := &schema.Schema{
		Table: "notes",
		Properties: []*schema.Column{
			{Name: "body", Type: schema.TypeString, Description: "the note text"},
		},
	}
	out, err := CreateTable(s, dialect.MySQL)
	require.NoError(t, err)
	assert.Contains(t, out, "COMMENT 'the note text'")

	// Dialects without body comments drop the description.
	for _, d := range []string{dialect.Postgres, dialect.SQLite} {
		out, err := CreateTable(s, d)
		require.NoError(t, err)
		assert.NotContains(t, out, "COMMENT")
	}
}

func TestCreateTable_Errors(t *testing.T) {
	t.Parallel()

	t.Run("unknown dialect", func(t *testing.T) {
		_, err := CreateTable(userSchema(), "oracle")
		require.ErrorIs(t, err, dbx.ErrUnknownDialect)
	})

	t.Run("no table name", func(t *testing.T) {
		_, err := CreateTable(&schema.Schema{
			Properties: []*schema.Column{{Name: "id", Type: schema.TypeInteger}},
		}, dialect.SQLite)
		require.Error(t, err)
		assert.True(t, dbx.IsInvalidSchema(err))
	})

	t.Run("dangling required column", func(t *testing.T) {
		_, err := CreateTable(&schema.Schema{
			Table:      "t",
			Properties: []*schema.Column{{Name: "id", Type: schema.TypeInteger}},
			Required:   []string{"nope"},
		}, dialect.SQLite)
		require.ErrorIs(t, err, dbx.ErrInvalidSchema)
	})

	t.Run("unknown column type", func(t *testing.T) {
		_, err := CreateTable(&schema.Schema{
			Table:      "t",
			Properties: []*schema.Column{{Name: "id", Type: "uuid"}},
		}, dialect.SQLite)
		require.ErrorIs(t, err, dbx.ErrInvalidSchema)
		require.ErrorIs(t, err, dbx.ErrUnknownType)
	})
}
