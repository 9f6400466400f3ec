package intelifit

import (
	"fmt"

	"github.com/spf13/cobra"
)

var doctorFix bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check stored day totals against logged foods",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTracker(cmd, func(e *env) error {
			report, err := e.store.RunDoctor(cmd.Context(), doctorFix)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if report.Healthy() {
				fmt.Fprintln(out, "No issues found")
				return nil
			}
			for _, d := range report.DriftedDays {
				fmt.Fprintf(out, "Day %s (%s): stored %.0f kcal, logged foods sum to %.0f kcal\n",
					d.Date, d.UserID, d.Stored.Calories, d.Computed.Calories)
			}
			if report.EmptyMeals > 0 {
				fmt.Fprintf(out, "Empty meals: %d\n", report.EmptyMeals)
			}
			if !doctorFix {
				fmt.Fprintln(out, "Run with --fix to repair")
				return nil
			}
			fmt.Fprintf(out, "Fixed %d day(s), removed %d empty meal(s)\n", report.FixedDays, report.RemovedMeals)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Repair drifted totals and empty meals")
}
