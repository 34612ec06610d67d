package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	// Database drivers for the three supported dialects.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/acrodrig/dbx/dialect/sql"
	"github.com/acrodrig/dbx/schema"
)

var dsn string

func init() {
	execCmd.Flags().StringSliceVarP(&schemaFiles, "file", "f", []string{"schema.yaml"}, "Schema YAML file(s) to execute")
	execCmd.Flags().StringVarP(&dialectName, "dialect", "d", "sqlite", "Target dialect (mysql, postgres, sqlite)")
	execCmd.Flags().StringVar(&dsn, "dsn", "", "Connection string (defaults to $DATABASE_URL)")
}

var execCmd = &cobra.Command{
	Use:   "exec",
	Short: "Compile schema definitions and execute the DDL",
	RunE: func(cmd *cobra.Command, args []string) error {
		source := dsn
		if source == "" {
			source = os.Getenv("DATABASE_URL")
		}
		if source == "" {
			return fmt.Errorf("no DSN: pass --dsn or set DATABASE_URL")
		}
		drv, err := sql.Open(dialectName, source)
		if err != nil {
			return err
		}
		defer drv.Close()

		// Each invocation is one run, identified in the output so DDL
		// applied across several databases can be correlated.
		run := uuid.NewString()[:8]
		for _, file := range schemaFiles {
			s, err := schema.Load(file)
			if err != nil {
				return err
			}
			ddl, err := sql.CreateTable(s, dialectName)
			if err != nil {
				return err
			}
			n, err := drv.ExecScript(cmd.Context(), ddl)
			if err != nil {
				return fmt.Errorf("run %s: table %s: %w", run, s.Table, err)
			}
			color.Green("[%s] %s: %d statements executed", run, s.Table, n)
		}
		return nil
	},
}
