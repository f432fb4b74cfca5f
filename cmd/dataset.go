package main

import "github.com/spf13/cobra"

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Manage the store dataset",
	Long:  "Generate mock data, import GeoJSON into Postgres or SQLite, apply schema migrations and check data quality.",
}

func init() { rootCmd.AddCommand(datasetCmd) }
