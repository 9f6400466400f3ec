package intelifit

import (
	"fmt"

	"github.com/spf13/cobra"
)

var weekDate string

var weekCmd = &cobra.Command{
	Use:   "week",
	Short: "Show the Monday-first week with daily totals and averages",
	RunE: func(cmd *cobra.Command, args []string) error {
		if weekDate != "" {
			if _, err := parseDate("date", weekDate); err != nil {
				return err
			}
		}
		return withProfile(cmd, func(e *env) error {
			if weekDate != "" {
				if err := e.tracker.SetDate(cmd.Context(), weekDate); err != nil {
					return err
				}
			}
			s, err := e.tracker.WeeklySummary(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "DATE\tKCAL\tGOAL\tP\tC\tF\tFIBER\tWATER")
			for _, d := range s.Days {
				if !d.Logged {
					fmt.Fprintf(out, "%s\t-\t%d\t-\t-\t-\t-\t-\n", d.Date, d.CalorieGoal)
					continue
				}
				fmt.Fprintf(out, "%s\t%.0f\t%d\t%.1f\t%.1f\t%.1f\t%.1f\t%d\n", d.Date, d.Total.Calories, d.CalorieGoal,
					d.Total.ProteinG, d.Total.CarbsG, d.Total.FatG, d.Total.FiberG, d.WaterMl)
			}
			a := s.Averages
			fmt.Fprintf(out, "Average over %d logged day(s): %.0f kcal | P %.1fg | C %.1fg | F %.1fg | Fiber %.1fg\n",
				s.LoggedDays, a.Calories, a.ProteinG, a.CarbsG, a.FatG, a.FiberG)
			fmt.Fprintf(out, "Logging streak: %d day(s)\n", s.Streak)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(weekCmd)
	weekCmd.Flags().StringVar(&weekDate, "date", "", "Any day of the week YYYY-MM-DD (default today)")
}
