package intelifit

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var todayDate string

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show the day's intake, exercise and goal progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		if todayDate != "" {
			if _, err := parseDate("date", todayDate); err != nil {
				return err
			}
		}
		return withProfile(cmd, func(e *env) error {
			if todayDate != "" {
				if err := e.tracker.SetDate(cmd.Context(), todayDate); err != nil {
					return err
				}
			}
			p, err := e.tracker.DayProgress(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Date: %s\n", p.Date)
			fmt.Fprintf(out, "Goal: %d kcal | Remaining: %d kcal | Burned: %d kcal\n", p.CalorieGoal, p.Remaining, p.Burned)
			fmt.Fprintf(out, "Water: %d ml\n", p.WaterMl)
			fmt.Fprintln(out, "NUTRIENT\tCONSUMED\tGOAL\tPROGRESS")
			for _, n := range p.Nutrients {
				mark := ""
				if n.OnTarget {
					mark = " *"
				}
				fmt.Fprintf(out, "%s\t%.1f %s\t%.0f %s\t%s %d%%%s\n", n.Name, n.Consumed, n.Unit, n.Goal, n.Unit, progressBar(n.Percent), n.Percent, mark)
			}
			return nil
		})
	},
}

func progressBar(percent int) string {
	const width = 10
	filled := percent * width / 100
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}

func init() {
	rootCmd.AddCommand(todayCmd)
	todayCmd.Flags().StringVar(&todayDate, "date", "", "Date YYYY-MM-DD (default today)")
}
