package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/acrodrig/dbx/schema"
)

var basePath string

func init() {
	checkCmd.Flags().StringSliceVarP(&schemaFiles, "file", "f", []string{"schema.yaml"}, "Schema YAML file(s) to check")
	checkCmd.Flags().StringVar(&basePath, "base", "", "Base path for resolving schema sources")
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report schemas that are stale relative to their sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		schemas := make([]*schema.Schema, 0, len(schemaFiles))
		for _, file := range schemaFiles {
			s, err := schema.Load(file)
			if err != nil {
				return err
			}
			schemas = append(schemas, s)
		}
		outdated, err := schema.CheckAll(cmd.Context(), basePath, schemas...)
		if err != nil {
			return err
		}
		if len(outdated) == 0 {
			color.Green("all %d schemas up to date", len(schemas))
			return nil
		}
		for _, name := range outdated {
			color.Yellow("outdated: %s", name)
		}
		return nil
	},
}
