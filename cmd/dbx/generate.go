package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/acrodrig/dbx/dialect"
	"github.com/acrodrig/dbx/dialect/sql"
	"github.com/acrodrig/dbx/schema"
)

var (
	schemaFiles []string
	dialectName string
	cacheDir    string
)

func init() {
	generateCmd.Flags().StringSliceVarP(&schemaFiles, "file", "f", []string{"schema.yaml"}, "Schema YAML file(s) to compile")
	generateCmd.Flags().StringVarP(&dialectName, "dialect", "d", dialect.SQLite, "Target dialect (mysql, postgres, sqlite)")
	generateCmd.Flags().StringVar(&cacheDir, "cache", "", "Cache directory for compiled DDL (disabled when empty)")
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Compile schema definitions into DDL",
	RunE: func(cmd *cobra.Command, args []string) error {
		var cache *schema.Cache
		if cacheDir != "" {
			var err error
			if cache, err = schema.NewCache(cacheDir); err != nil {
				return err
			}
		}
		for _, file := range schemaFiles {
			s, err := schema.Load(file)
			if err != nil {
				return err
			}
			ddl, err := compile(s, cache)
			if err != nil {
				return err
			}
			color.Green("-- %s (%s)", s.Table, dialectName)
			fmt.Fprintln(os.Stdout, ddl)
		}
		return nil
	},
}

func compile(s *schema.Schema, cache *schema.Cache) (string, error) {
	if cache != nil {
		if ddl, ok, err := cache.Get(s.Table, dialectName, s.ETag); err != nil {
			return "", err
		} else if ok {
			return ddl, nil
		}
	}
	ddl, err := sql.CreateTable(s, dialectName)
	if err != nil {
		return "", err
	}
	if cache != nil {
		if err := cache.Put(s.Table, dialectName, s.ETag, ddl); err != nil {
			return "", err
		}
	}
	return ddl, nil
}
