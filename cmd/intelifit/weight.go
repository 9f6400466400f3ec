package intelifit

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bthaas/intelifit/internal/nutrition"
)

var weightCmd = &cobra.Command{
	Use:   "weight",
	Short: "Track body weight",
}

var (
	weightUnitFlag string
	weightDate     string
	weightTime     string
	weightNotes    string
	weightLimit    int
)

// resolveUnit returns --unit when given, else the profile's display unit.
func resolveUnit(e *env) string {
	if weightUnitFlag != "" {
		return weightUnitFlag
	}
	return weightUnit(e.tracker.State().User)
}

var weightAddCmd = &cobra.Command{
	Use:   "add <weight>",
	Short: "Record a weight measurement",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := parseFloatArg("weight", args[0])
		if err != nil {
			return err
		}
		measuredAt, err := parseDateTimeOrNow(weightDate, weightTime)
		if err != nil {
			return err
		}
		return withProfile(cmd, func(e *env) error {
			unit := resolveUnit(e)
			kg, err := nutrition.ConvertWeight(v, unit, "kg")
			if err != nil {
				return err
			}
			entry, err := e.tracker.LogWeight(cmd.Context(), kg, measuredAt, weightNotes)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %.1f %s (entry %d)\n", displayWeight(entry.WeightKg, unit), unit, entry.ID)
			return nil
		})
	},
}

var weightListCmd = &cobra.Command{
	Use:   "list",
	Short: "List weight measurements, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProfile(cmd, func(e *env) error {
			unit := resolveUnit(e)
			if _, err := nutrition.ConvertWeight(0, "kg", unit); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "ID\tDATE\tWEIGHT\tUNIT\tNOTES")
			for i, w := range e.tracker.State().Weights {
				if weightLimit > 0 && i >= weightLimit {
					break
				}
				fmt.Fprintf(out, "%d\t%s\t%.1f\t%s\t%s\n", w.ID, w.MeasuredAt.Local().Format("2006-01-02 15:04"),
					displayWeight(w.WeightKg, unit), unit, w.Notes)
			}
			return nil
		})
	},
}

var weightDeleteCmd = &cobra.Command{
	Use:   "delete <entry-id>",
	Short: "Delete a weight measurement",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64Arg("entry id", args[0])
		if err != nil {
			return err
		}
		return withProfile(cmd, func(e *env) error {
			if err := e.tracker.DeleteWeight(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted weight entry %d\n", id)
			return nil
		})
	},
}

var weightJourneyCmd = &cobra.Command{
	Use:   "journey",
	Short: "Show progress from the first measurement toward the target weight",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProfile(cmd, func(e *env) error {
			j, err := e.tracker.WeightJourney(cmd.Context())
			if err != nil {
				return err
			}
			unit := resolveUnit(e)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Start: %.1f %s\n", displayWeight(j.StartKg, unit), unit)
			fmt.Fprintf(out, "Current: %.1f %s\n", displayWeight(j.CurrentKg, unit), unit)
			fmt.Fprintf(out, "Change: %+.1f %s over %d measurement(s)\n", displayWeight(j.ChangeKg, unit), unit, j.Entries)
			if j.TargetKg != nil {
				fmt.Fprintf(out, "Target: %.1f %s\n", displayWeight(*j.TargetKg, unit), unit)
			} else {
				fmt.Fprintln(out, "Target: not set")
			}
			fmt.Fprintf(out, "Progress: %.1f%%\n", j.Progress)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(weightCmd)
	weightCmd.AddCommand(weightAddCmd, weightListCmd, weightDeleteCmd, weightJourneyCmd)

	for _, c := range []*cobra.Command{weightAddCmd, weightListCmd, weightJourneyCmd} {
		c.Flags().StringVar(&weightUnitFlag, "unit", "", "kg or lbs (default from profile units)")
	}
	weightAddCmd.Flags().StringVar(&weightDate, "date", "", "Date YYYY-MM-DD (default now)")
	weightAddCmd.Flags().StringVar(&weightTime, "time", "", "Time HH:MM")
	weightAddCmd.Flags().StringVar(&weightNotes, "notes", "", "Notes")
	weightListCmd.Flags().IntVar(&weightLimit, "limit", 30, "Maximum entries")
}
