package intelifit

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bthaas/intelifit/internal/model"
	"github.com/bthaas/intelifit/internal/tracker"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Log foods, water and notes for a day",
}

var (
	logDate     string
	logMeal     string
	logQuantity float64
	logServing  int64
	logWaterAdd bool
)

// withDay is withProfile with the tracker moved to --date first.
func withDay(cmd *cobra.Command, run func(*env) error) error {
	return withProfile(cmd, func(e *env) error {
		if strings.TrimSpace(logDate) != "" {
			if _, err := parseDate("date", logDate); err != nil {
				return err
			}
			if err := e.tracker.SetDate(cmd.Context(), strings.TrimSpace(logDate)); err != nil {
				return err
			}
		}
		return run(e)
	})
}

var logAddCmd = &cobra.Command{
	Use:   "add <food-id>",
	Short: "Log a food under a meal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		foodID, err := parseInt64Arg("food id", args[0])
		if err != nil {
			return err
		}
		return withDay(cmd, func(e *env) error {
			cf, err := e.tracker.LogFood(cmd.Context(), tracker.FoodLogInput{
				MealType:      model.MealType(strings.ToLower(logMeal)),
				FoodItemID:    foodID,
				ServingSizeID: logServing,
				Quantity:      logQuantity,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged %s x%g %s (entry %d): %.0f kcal\n",
				cf.FoodName, cf.Quantity, cf.Serving.Name, cf.ID, cf.Consumed.Calories)
			fmt.Fprintf(cmd.OutOrStdout(), "Day total: %.0f kcal\n", e.tracker.State().Day.Total.Calories)
			return nil
		})
	},
}

var logUpdateCmd = &cobra.Command{
	Use:   "update <entry-id>",
	Short: "Change quantity, serving or meal of a logged food",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64Arg("entry id", args[0])
		if err != nil {
			return err
		}
		in := tracker.FoodUpdate{ID: id}
		if cmd.Flags().Changed("quantity") {
			in.Quantity = &logQuantity
		}
		if cmd.Flags().Changed("serving") {
			in.ServingSizeID = &logServing
		}
		if cmd.Flags().Changed("meal") {
			m := model.MealType(strings.ToLower(logMeal))
			in.MealType = &m
		}
		return withDay(cmd, func(e *env) error {
			cf, err := e.tracker.UpdateFood(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated entry %d: %.0f kcal\n", cf.ID, cf.Consumed.Calories)
			fmt.Fprintf(cmd.OutOrStdout(), "Day total: %.0f kcal\n", e.tracker.State().Day.Total.Calories)
			return nil
		})
	},
}

var logDeleteCmd = &cobra.Command{
	Use:   "delete <entry-id>",
	Short: "Remove a logged food",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64Arg("entry id", args[0])
		if err != nil {
			return err
		}
		return withDay(cmd, func(e *env) error {
			if err := e.tracker.DeleteFood(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted entry %d\n", id)
			return nil
		})
	},
}

var logShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the day's meals and totals",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDay(cmd, func(e *env) error {
			printDay(cmd.OutOrStdout(), e.tracker.State().Day)
			return nil
		})
	},
}

var logWaterCmd = &cobra.Command{
	Use:   "water <ml>",
	Short: "Set (or with --add, increase) the day's water intake",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ml, err := strconv.Atoi(strings.TrimSpace(args[0]))
		if err != nil {
			return fmt.Errorf("invalid water amount %q", args[0])
		}
		return withDay(cmd, func(e *env) error {
			if logWaterAdd {
				ml += e.tracker.State().Day.WaterMl
			}
			if err := e.tracker.SetWater(cmd.Context(), ml); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Water on %s: %d ml\n", e.tracker.State().Date, ml)
			return nil
		})
	},
}

var logNotesCmd = &cobra.Command{
	Use:   "notes <text>",
	Short: "Set the day's notes",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDay(cmd, func(e *env) error {
			if err := e.tracker.SetNotes(cmd.Context(), strings.Join(args, " ")); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved notes for %s\n", e.tracker.State().Date)
			return nil
		})
	},
}

func printDay(w io.Writer, day model.DailyNutrition) {
	fmt.Fprintf(w, "Date: %s\n", day.Date)
	if len(day.Meals) == 0 {
		fmt.Fprintln(w, "No foods logged")
	}
	for _, m := range day.Meals {
		fmt.Fprintf(w, "%s\n", strings.ToUpper(string(m.MealType)))
		fmt.Fprintln(w, "ENTRY\tFOOD\tQTY\tSERVING\tKCAL\tP\tC\tF")
		for _, f := range m.Foods {
			fmt.Fprintf(w, "%d\t%s\t%g\t%s\t%.0f\t%.1f\t%.1f\t%.1f\n", f.ID, f.FoodName, f.Quantity, f.Serving.Name,
				f.Consumed.Calories, f.Consumed.ProteinG, f.Consumed.CarbsG, f.Consumed.FatG)
		}
	}
	fmt.Fprintf(w, "Total: %s\n", formatNutrition(day.Total))
	fmt.Fprintf(w, "Water: %d ml\n", day.WaterMl)
	if day.Notes != "" {
		fmt.Fprintf(w, "Notes: %s\n", day.Notes)
	}
}

func init() {
	rootCmd.AddCommand(logCmd)
	logCmd.AddCommand(logAddCmd, logUpdateCmd, logDeleteCmd, logShowCmd, logWaterCmd, logNotesCmd)

	for _, c := range []*cobra.Command{logAddCmd, logUpdateCmd, logDeleteCmd, logShowCmd, logWaterCmd, logNotesCmd} {
		c.Flags().StringVar(&logDate, "date", "", "Date YYYY-MM-DD (default today)")
	}
	for _, c := range []*cobra.Command{logAddCmd, logUpdateCmd} {
		c.Flags().StringVar(&logMeal, "meal", "snack", "breakfast, lunch, dinner or snack")
		c.Flags().Float64Var(&logQuantity, "quantity", 1, "Number of servings")
		c.Flags().Int64Var(&logServing, "serving", 0, "Serving size id (default the food's first serving)")
	}
	logWaterCmd.Flags().BoolVar(&logWaterAdd, "add", false, "Add to the current intake instead of replacing it")
}
