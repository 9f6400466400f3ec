package intelifit

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bthaas/intelifit/internal/model"
	"github.com/bthaas/intelifit/internal/tracker"
)

var exerciseCmd = &cobra.Command{
	Use:   "exercise",
	Short: "Browse the exercise catalog",
}

var exerciseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List exercises with their MET values",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTracker(cmd, func(e *env) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "ID\tNAME\tCATEGORY\tMET\tMUSCLES")
			for _, ex := range e.tracker.State().Exercises {
				met := "-"
				if ex.METValue != nil {
					met = fmt.Sprintf("%.1f", *ex.METValue)
				}
				fmt.Fprintf(out, "%d\t%s\t%s\t%s\t%s\n", ex.ID, ex.Name, ex.Category, met, strings.Join(ex.MuscleGroups, ","))
			}
			return nil
		})
	},
}

var workoutCmd = &cobra.Command{
	Use:   "workout",
	Short: "Log and review workouts",
}

var (
	workoutExercise  int64
	workoutDuration  float64
	workoutIntensity string
	workoutDistance  float64
	workoutSets      []string
	workoutDate      string
	workoutTime      string
	workoutNotes     string
	workoutFrom      string
	workoutTo        string
	workoutLimit     int
)

var workoutAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Log a workout; calories are estimated from MET, body weight and duration",
	RunE: func(cmd *cobra.Command, args []string) error {
		performedAt, err := parseDateTimeOrNow(workoutDate, workoutTime)
		if err != nil {
			return err
		}
		ex := tracker.ExerciseInput{
			ExerciseID:  workoutExercise,
			Intensity:   model.Intensity(strings.ToLower(workoutIntensity)),
			DurationMin: workoutDuration,
		}
		if cmd.Flags().Changed("distance") {
			ex.DistanceKm = &workoutDistance
		}
		for _, raw := range workoutSets {
			s, err := parseStrengthSet(raw)
			if err != nil {
				return err
			}
			ex.Sets = append(ex.Sets, s)
		}
		return withProfile(cmd, func(e *env) error {
			ws, err := e.tracker.LogWorkout(cmd.Context(), tracker.WorkoutLogInput{
				PerformedAt: performedAt,
				Notes:       workoutNotes,
				Exercises:   []tracker.ExerciseInput{ex},
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged workout %d: %s, %.0f min, %d kcal\n",
				ws.ID, ws.Exercises[0].ExerciseName, ws.TotalDuration, ws.CaloriesBurned)
			return nil
		})
	},
}

var workoutListCmd = &cobra.Command{
	Use:   "list",
	Short: "List workouts, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		var from, to time.Time
		if workoutFrom != "" {
			t, err := parseDate("from", workoutFrom)
			if err != nil {
				return err
			}
			from = t
		}
		if workoutTo != "" {
			t, err := parseDate("to", workoutTo)
			if err != nil {
				return err
			}
			to = t.AddDate(0, 0, 1)
		}
		return withProfile(cmd, func(e *env) error {
			items, err := e.tracker.Workouts(cmd.Context(), from, to, workoutLimit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "ID\tDATE\tEXERCISES\tMINUTES\tKCAL\tNOTES")
			for _, ws := range items {
				names := make([]string, 0, len(ws.Exercises))
				for _, ex := range ws.Exercises {
					names = append(names, fmt.Sprintf("%s (%s)", ex.ExerciseName, ex.Intensity))
				}
				fmt.Fprintf(out, "%d\t%s\t%s\t%.0f\t%d\t%s\n", ws.ID, ws.PerformedAt.Local().Format("2006-01-02 15:04"),
					strings.Join(names, ", "), ws.TotalDuration, ws.CaloriesBurned, ws.Notes)
			}
			return nil
		})
	},
}

var workoutDeleteCmd = &cobra.Command{
	Use:   "delete <workout-id>",
	Short: "Delete a workout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64Arg("workout id", args[0])
		if err != nil {
			return err
		}
		return withProfile(cmd, func(e *env) error {
			if err := e.tracker.DeleteWorkout(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted workout %d\n", id)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(exerciseCmd, workoutCmd)
	exerciseCmd.AddCommand(exerciseListCmd)
	workoutCmd.AddCommand(workoutAddCmd, workoutListCmd, workoutDeleteCmd)

	f := workoutAddCmd.Flags()
	f.Int64Var(&workoutExercise, "exercise", 0, "Exercise id (see `intelifit exercise list`)")
	f.Float64Var(&workoutDuration, "duration", 0, "Duration in minutes")
	f.StringVar(&workoutIntensity, "intensity", "moderate", "low, moderate or high")
	f.Float64Var(&workoutDistance, "distance", 0, "Distance in km")
	f.StringArrayVar(&workoutSets, "set", nil, "Strength set REPSxKG (repeatable)")
	f.StringVar(&workoutDate, "date", "", "Date YYYY-MM-DD (default now)")
	f.StringVar(&workoutTime, "time", "", "Time HH:MM")
	f.StringVar(&workoutNotes, "notes", "", "Notes")
	_ = workoutAddCmd.MarkFlagRequired("exercise")
	_ = workoutAddCmd.MarkFlagRequired("duration")

	workoutListCmd.Flags().StringVar(&workoutFrom, "from", "", "First day YYYY-MM-DD")
	workoutListCmd.Flags().StringVar(&workoutTo, "to", "", "Last day YYYY-MM-DD")
	workoutListCmd.Flags().IntVar(&workoutLimit, "limit", 20, "Maximum workouts")
}
