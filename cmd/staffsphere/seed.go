package main

import (
	"fmt"
	"time"

	"github.com/dori/staffsphere/internal/app"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill an empty database with demo employees, projects and tasks",
	Long: `Fill an empty database with demo data.

With the sqlite driver this opens the database file directly, so run it
while the server is stopped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New(cmd.Context(), cfg.Database)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := app.Seed(cmd.Context(), a.Store, time.Now())
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Created %d employees, %d projects, %d tasks\n", len(res.Employees), len(res.Projects), len(res.Tasks))
		for _, p := range res.Projects {
			fmt.Fprintf(out, "  %s  %s\n", p.ID, p.Title)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
