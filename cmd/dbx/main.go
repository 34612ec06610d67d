// Command dbx compiles YAML table definitions into dialect-specific DDL,
// checks generated schemas for staleness, and executes generated DDL
// against a database.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dbx",
	Short: "Cross-dialect schema and query compiler",
	Long: `dbx compiles abstract table definitions into DDL for MySQL,
PostgreSQL and SQLite.

Examples:

  dbx generate -f schema.yaml -d postgres
  dbx check -f schema.yaml
  dbx exec -f schema.yaml -d sqlite --dsn file:app.db
`,
}

func init() {
	// DSNs commonly live in a .env file; absence is fine.
	_ = godotenv.Load()
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(execCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
