package intelifit

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bthaas/intelifit/internal/model"
	"github.com/bthaas/intelifit/internal/nutrition"
	"github.com/bthaas/intelifit/internal/store"
	"github.com/bthaas/intelifit/internal/tracker"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Create and manage your profile and goals",
}

var (
	profName         string
	profEmail        string
	profDOB          string
	profGender       string
	profHeight       float64
	profHeightUnit   string
	profWeight       float64
	profWeightUnit   string
	profActivity     string
	profGoal         string
	profTarget       float64
	profWeeklyChange float64
	profProtein      int
	profCarbs        int
	profFat          int
	profUnits        string
	profTheme        string
	profCalorieGoal  int
	profSync         bool
	profRecalculate  bool
)

// profileFlags holds the converted value of every profile flag the user set.
type profileFlags struct {
	dob          *time.Time
	heightCm     *float64
	weightKg     *float64
	targetKg     *float64
	weeklyChange *float64
	macros       *model.MacroRatios
}

func readProfileFlags(cmd *cobra.Command) (profileFlags, error) {
	var out profileFlags
	flags := cmd.Flags()
	if flags.Changed("dob") {
		t, err := parseDate("dob", profDOB)
		if err != nil {
			return out, err
		}
		out.dob = &t
	}
	if flags.Changed("height") {
		cm, err := nutrition.ConvertHeight(profHeight, profHeightUnit, "cm")
		if err != nil {
			return out, err
		}
		out.heightCm = &cm
	}
	for _, f := range []struct {
		name string
		v    float64
		dst  **float64
	}{
		{"weight", profWeight, &out.weightKg},
		{"target-weight", profTarget, &out.targetKg},
		{"weekly-change", profWeeklyChange, &out.weeklyChange},
	} {
		if !flags.Changed(f.name) {
			continue
		}
		kg, err := nutrition.ConvertWeight(f.v, profWeightUnit, "kg")
		if err != nil {
			return out, err
		}
		*f.dst = &kg
	}
	if flags.Changed("protein") || flags.Changed("carbs") || flags.Changed("fat") {
		out.macros = &model.MacroRatios{Protein: profProtein, Carbs: profCarbs, Fat: profFat}
	}
	return out, nil
}

var profileCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create your profile and derive a calorie goal",
	RunE: func(cmd *cobra.Command, args []string) error {
		pf, err := readProfileFlags(cmd)
		if err != nil {
			return err
		}
		return withTracker(cmd, func(e *env) error {
			in := tracker.ProfileInput{
				Email:          profEmail,
				Name:           profName,
				Gender:         model.Gender(strings.ToLower(profGender)),
				Activity:       model.ActivityLevel(strings.ToLower(profActivity)),
				GoalType:       model.GoalType(strings.ToLower(profGoal)),
				TargetWeightKg: pf.targetKg,
				WeeklyChangeKg: pf.weeklyChange,
				Macros:         pf.macros,
				Units:          model.UnitSystem(strings.ToLower(profUnits)),
				Theme:          model.ThemeMode(strings.ToLower(profTheme)),
			}
			if pf.dob != nil {
				in.DateOfBirth = *pf.dob
			}
			if pf.heightCm != nil {
				in.HeightCm = *pf.heightCm
			}
			if pf.weightKg != nil {
				in.WeightKg = *pf.weightKg
			}

			claims, ok, err := sessionClaims(cmd.Context(), e.store)
			if err != nil {
				return err
			}
			if ok {
				in.ID = claims.Subject
				if in.Email == "" {
					in.Email = claims.Email
				}
				if in.Name == "" {
					in.Name = claims.Name
				}
			}

			u, err := e.tracker.Onboard(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created profile %s for %s\n", u.ID, u.Name)
			fmt.Fprintf(cmd.OutOrStdout(), "Daily calorie goal: %d kcal\n", u.Goals.CalorieGoal)
			return nil
		})
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the active profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProfile(cmd, func(e *env) error {
			u := e.tracker.State().User
			unit := weightUnit(u)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID: %s\n", u.ID)
			fmt.Fprintf(out, "Name: %s <%s>\n", u.Name, u.Email)
			fmt.Fprintf(out, "Born: %s (%s)\n", u.DateOfBirth.Format(nutrition.DateLayout), u.Gender)
			if unit == "lbs" {
				fmt.Fprintf(out, "Height: %.1f ft\n", nutrition.CmToFt(u.HeightCm))
			} else {
				fmt.Fprintf(out, "Height: %.0f cm\n", u.HeightCm)
			}
			fmt.Fprintf(out, "Weight: %.1f %s\n", displayWeight(u.CurrentWeightKg, unit), unit)
			fmt.Fprintf(out, "Activity: %s\n", u.Goals.ActivityLevel)
			fmt.Fprintf(out, "Goal: %s", u.Goals.GoalType)
			if u.Goals.TargetWeightKg != nil {
				fmt.Fprintf(out, " to %.1f %s", displayWeight(*u.Goals.TargetWeightKg, unit), unit)
			}
			if u.Goals.WeeklyChangeKg != nil {
				fmt.Fprintf(out, " at %.2f %s/week", displayWeight(*u.Goals.WeeklyChangeKg, unit), unit)
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Calorie goal: %d kcal\n", u.Goals.CalorieGoal)
			fmt.Fprintf(out, "Macros: P %d%% | C %d%% | F %d%%\n", u.Goals.Macros.Protein, u.Goals.Macros.Carbs, u.Goals.Macros.Fat)
			fmt.Fprintf(out, "Preferences: %s units, %s theme\n", u.Preferences.Units, u.Preferences.Theme)
			return nil
		})
	},
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update profile fields; the calorie goal follows unless --calorie-goal is set",
	RunE: func(cmd *cobra.Command, args []string) error {
		pf, err := readProfileFlags(cmd)
		if err != nil {
			return err
		}
		if pf.weightKg != nil {
			return fmt.Errorf("use `intelifit weight add` to record a new weight")
		}
		flags := cmd.Flags()
		in := tracker.ProfileUpdate{
			DateOfBirth:    pf.dob,
			HeightCm:       pf.heightCm,
			TargetWeightKg: pf.targetKg,
			WeeklyChangeKg: pf.weeklyChange,
			Macros:         pf.macros,
		}
		if flags.Changed("name") {
			in.Name = &profName
		}
		if flags.Changed("email") {
			in.Email = &profEmail
		}
		if flags.Changed("gender") {
			g := model.Gender(strings.ToLower(profGender))
			in.Gender = &g
		}
		if flags.Changed("activity") {
			a := model.ActivityLevel(strings.ToLower(profActivity))
			in.Activity = &a
		}
		if flags.Changed("goal") {
			g := model.GoalType(strings.ToLower(profGoal))
			in.GoalType = &g
		}
		if flags.Changed("units") {
			u := model.UnitSystem(strings.ToLower(profUnits))
			in.Units = &u
		}
		if flags.Changed("theme") {
			th := model.ThemeMode(strings.ToLower(profTheme))
			in.Theme = &th
		}
		if flags.Changed("calorie-goal") {
			in.CalorieGoal = &profCalorieGoal
		}

		return withProfile(cmd, func(e *env) error {
			if in.Macros != nil {
				cur := e.tracker.State().User.Goals.Macros
				if !flags.Changed("protein") {
					in.Macros.Protein = cur.Protein
				}
				if !flags.Changed("carbs") {
					in.Macros.Carbs = cur.Carbs
				}
				if !flags.Changed("fat") {
					in.Macros.Fat = cur.Fat
				}
			}
			u, err := e.tracker.UpdateProfile(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated profile %s (calorie goal %d kcal)\n", u.ID, u.Goals.CalorieGoal)
			if !profSync {
				return nil
			}
			token, ok, err := e.store.GetConfig(cmd.Context(), store.ConfigAccessToken)
			if err != nil {
				return err
			}
			if !ok || token == "" {
				return fmt.Errorf("not signed in; run `intelifit auth login` before --sync")
			}
			if err := e.identityClient().UpdateAttributes(cmd.Context(), token, profileAttributes(u)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Synced profile to your account")
			return nil
		})
	},
}

var profileGoalsCmd = &cobra.Command{
	Use:   "goals",
	Short: "Show daily nutrient targets",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProfile(cmd, func(e *env) error {
			if profRecalculate {
				goal, err := e.tracker.RecalculateCalorieGoal(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recalculated calorie goal: %d kcal\n", goal)
			}
			g, err := e.tracker.Goals()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "NUTRIENT\tTARGET")
			fmt.Fprintf(out, "calories\t%.0f kcal\n", g.Calories)
			fmt.Fprintf(out, "protein\t%.0f g\n", g.ProteinG)
			fmt.Fprintf(out, "carbs\t%.0f g\n", g.CarbsG)
			fmt.Fprintf(out, "fat\t%.0f g\n", g.FatG)
			fmt.Fprintf(out, "fiber\t%.0f g\n", g.FiberG)
			fmt.Fprintf(out, "sugar\t<= %.0f g\n", g.SugarG)
			fmt.Fprintf(out, "sodium\t<= %.0f mg\n", g.SodiumMg)
			fmt.Fprintf(out, "cholesterol\t<= %.0f mg\n", g.CholesterolMg)
			return nil
		})
	},
}

// profileAttributes maps a profile onto the identity provider's custom
// attributes.
func profileAttributes(u model.UserProfile) map[string]string {
	attrs := map[string]string{
		"name":           u.Name,
		"birthdate":      u.DateOfBirth.Format(nutrition.DateLayout),
		"gender":         string(u.Gender),
		"height":         strconv.FormatFloat(u.HeightCm, 'f', -1, 64),
		"weight":         strconv.FormatFloat(u.CurrentWeightKg, 'f', -1, 64),
		"activity_level": string(u.Goals.ActivityLevel),
		"goal_type":      string(u.Goals.GoalType),
		"calorie_goal":   strconv.Itoa(u.Goals.CalorieGoal),
		"macro_protein":  strconv.Itoa(u.Goals.Macros.Protein),
		"macro_carbs":    strconv.Itoa(u.Goals.Macros.Carbs),
		"macro_fat":      strconv.Itoa(u.Goals.Macros.Fat),
		"units":          string(u.Preferences.Units),
		"theme":          string(u.Preferences.Theme),
	}
	if u.Goals.TargetWeightKg != nil {
		attrs["target_weight"] = strconv.FormatFloat(*u.Goals.TargetWeightKg, 'f', -1, 64)
	}
	if u.Goals.WeeklyChangeKg != nil {
		attrs["weekly_weight_change"] = strconv.FormatFloat(*u.Goals.WeeklyChangeKg, 'f', -1, 64)
	}
	return attrs
}

func addProfileFlags(c *cobra.Command) {
	f := c.Flags()
	f.StringVar(&profName, "name", "", "Display name")
	f.StringVar(&profEmail, "email", "", "Email address")
	f.StringVar(&profDOB, "dob", "", "Date of birth YYYY-MM-DD")
	f.StringVar(&profGender, "gender", "", "male, female or other")
	f.Float64Var(&profHeight, "height", 0, "Height")
	f.StringVar(&profHeightUnit, "height-unit", "cm", "Height unit: cm or ft")
	f.Float64Var(&profWeight, "weight", 0, "Current weight")
	f.StringVar(&profWeightUnit, "weight-unit", "kg", "Weight unit for all weight flags: kg or lbs")
	f.StringVar(&profActivity, "activity", "", "sedentary, light, moderate, active or very_active")
	f.StringVar(&profGoal, "goal", "", "lose_weight, gain_weight, maintain or build_muscle")
	f.Float64Var(&profTarget, "target-weight", 0, "Target weight")
	f.Float64Var(&profWeeklyChange, "weekly-change", 0, "Planned weight change per week")
	f.IntVar(&profProtein, "protein", tracker.DefaultMacros.Protein, "Protein share of calories in percent")
	f.IntVar(&profCarbs, "carbs", tracker.DefaultMacros.Carbs, "Carbs share of calories in percent")
	f.IntVar(&profFat, "fat", tracker.DefaultMacros.Fat, "Fat share of calories in percent")
	f.StringVar(&profUnits, "units", "", "Display units: metric or imperial")
	f.StringVar(&profTheme, "theme", "", "Theme: light, dark or system")
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileCreateCmd, profileShowCmd, profileUpdateCmd, profileGoalsCmd)

	addProfileFlags(profileCreateCmd)
	addProfileFlags(profileUpdateCmd)
	profileCreateCmd.Flags().SortFlags = false
	for _, name := range []string{"dob", "gender", "height", "weight", "activity", "goal"} {
		_ = profileCreateCmd.MarkFlagRequired(name)
	}
	profileUpdateCmd.Flags().IntVar(&profCalorieGoal, "calorie-goal", 0, "Set the calorie goal by hand")
	profileUpdateCmd.Flags().BoolVar(&profSync, "sync", false, "Push the updated profile to your account")
	profileGoalsCmd.Flags().BoolVar(&profRecalculate, "recalculate", false, "Recalculate the calorie goal from the profile first")
}
