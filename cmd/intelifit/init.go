package intelifit

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bthaas/intelifit/internal/db"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize local intelifit database",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTracker(cmd, func(e *env) error {
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized intelifit database at %s (schema v%d)\n", e.dbPath, db.LatestVersion())
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
