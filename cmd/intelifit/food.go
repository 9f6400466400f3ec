package intelifit

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bthaas/intelifit/internal/model"
	"github.com/bthaas/intelifit/internal/tracker"
)

var foodCmd = &cobra.Command{
	Use:   "food",
	Short: "Search the food catalog and manage custom foods and favorites",
}

var foodSearchLimit int

var foodSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search foods by name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTracker(cmd, func(e *env) error {
			items, err := e.tracker.SearchFoods(cmd.Context(), strings.Join(args, " "), foodSearchLimit)
			if err != nil {
				return err
			}
			printFoodTable(cmd.OutOrStdout(), items)
			return nil
		})
	},
}

var foodShowCmd = &cobra.Command{
	Use:   "show <food-id>",
	Short: "Show a food with its serving sizes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64Arg("food id", args[0])
		if err != nil {
			return err
		}
		return withTracker(cmd, func(e *env) error {
			f, err := e.store.GetFoodItem(cmd.Context(), id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d\t%s\n", f.ID, foodLabel(f))
			fmt.Fprintf(out, "Category: %s\n", f.Category)
			if f.Barcode != "" {
				fmt.Fprintf(out, "Barcode: %s\n", f.Barcode)
			}
			fmt.Fprintf(out, "Per 100g: %s\n", formatNutrition(f.Per100g))
			fmt.Fprintln(out, "SERVING_ID\tNAME\tGRAMS\tUNIT")
			for _, s := range f.ServingSizes {
				fmt.Fprintf(out, "%d\t%s\t%.0f\t%s\n", s.ID, s.Name, s.WeightG, s.Unit)
			}
			return nil
		})
	},
}

var (
	foodName        string
	foodBrand       string
	foodBarcode     string
	foodCategory    string
	foodCalories    float64
	foodProtein     float64
	foodCarbs       float64
	foodFat         float64
	foodFiber       float64
	foodSugar       float64
	foodSodium      float64
	foodCholesterol float64
	foodServings    []string
)

var foodAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a custom food with per-100g nutrition",
	RunE: func(cmd *cobra.Command, args []string) error {
		servings := make([]model.ServingSize, 0, len(foodServings))
		for _, raw := range foodServings {
			s, err := parseServing(raw)
			if err != nil {
				return err
			}
			servings = append(servings, s)
		}
		in := tracker.CustomFoodInput{
			Name:     foodName,
			Brand:    foodBrand,
			Barcode:  foodBarcode,
			Category: model.FoodCategory(strings.ToLower(foodCategory)),
			Per100g: model.Nutrition{
				Calories:      foodCalories,
				ProteinG:      foodProtein,
				CarbsG:        foodCarbs,
				FatG:          foodFat,
				FiberG:        foodFiber,
				SugarG:        foodSugar,
				SodiumMg:      foodSodium,
				CholesterolMg: foodCholesterol,
			},
			ServingSizes: servings,
		}
		return withTracker(cmd, func(e *env) error {
			f, err := e.tracker.CreateCustomFood(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added food %d (%s) with %d serving size(s)\n", f.ID, f.Name, len(f.ServingSizes))
			return nil
		})
	},
}

var foodFavoriteCmd = &cobra.Command{
	Use:   "favorite <food-id>",
	Short: "Mark a food as favorite",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64Arg("food id", args[0])
		if err != nil {
			return err
		}
		return withProfile(cmd, func(e *env) error {
			if err := e.tracker.AddFavorite(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added food %d to favorites\n", id)
			return nil
		})
	},
}

var foodUnfavoriteCmd = &cobra.Command{
	Use:   "unfavorite <food-id>",
	Short: "Remove a food from favorites",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64Arg("food id", args[0])
		if err != nil {
			return err
		}
		return withProfile(cmd, func(e *env) error {
			if err := e.tracker.RemoveFavorite(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed food %d from favorites\n", id)
			return nil
		})
	},
}

var foodFavoritesCmd = &cobra.Command{
	Use:   "favorites",
	Short: "List favorite foods",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProfile(cmd, func(e *env) error {
			printFoodTable(cmd.OutOrStdout(), e.tracker.State().Favorites)
			return nil
		})
	},
}

var foodRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List recently logged foods",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProfile(cmd, func(e *env) error {
			printFoodTable(cmd.OutOrStdout(), e.tracker.State().Recent)
			return nil
		})
	},
}

func foodLabel(f model.FoodItem) string {
	label := f.Name
	if f.Brand != "" {
		label += " (" + f.Brand + ")"
	}
	if f.IsCustom {
		label += " [custom]"
	}
	return label
}

func printFoodTable(w io.Writer, items []model.FoodItem) {
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tKCAL/100G\tP\tC\tF\tSERVINGS")
	for _, f := range items {
		servings := make([]string, 0, len(f.ServingSizes))
		for _, s := range f.ServingSizes {
			servings = append(servings, fmt.Sprintf("%d=%s", s.ID, s.Name))
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%.0f\t%.1f\t%.1f\t%.1f\t%s\n", f.ID, foodLabel(f), f.Category,
			f.Per100g.Calories, f.Per100g.ProteinG, f.Per100g.CarbsG, f.Per100g.FatG, strings.Join(servings, ", "))
	}
}

func init() {
	rootCmd.AddCommand(foodCmd)
	foodCmd.AddCommand(foodSearchCmd, foodShowCmd, foodAddCmd, foodFavoriteCmd, foodUnfavoriteCmd, foodFavoritesCmd, foodRecentCmd)

	foodSearchCmd.Flags().IntVar(&foodSearchLimit, "limit", 20, "Maximum results")

	f := foodAddCmd.Flags()
	f.StringVar(&foodName, "name", "", "Food name")
	f.StringVar(&foodBrand, "brand", "", "Brand")
	f.StringVar(&foodBarcode, "barcode", "", "Barcode")
	f.StringVar(&foodCategory, "category", "other", "protein, grain, vegetable, fruit, dairy, fat, beverage, snack or other")
	f.Float64Var(&foodCalories, "calories", 0, "kcal per 100g")
	f.Float64Var(&foodProtein, "protein", 0, "Protein g per 100g")
	f.Float64Var(&foodCarbs, "carbs", 0, "Carbs g per 100g")
	f.Float64Var(&foodFat, "fat", 0, "Fat g per 100g")
	f.Float64Var(&foodFiber, "fiber", 0, "Fiber g per 100g")
	f.Float64Var(&foodSugar, "sugar", 0, "Sugar g per 100g")
	f.Float64Var(&foodSodium, "sodium", 0, "Sodium mg per 100g")
	f.Float64Var(&foodCholesterol, "cholesterol", 0, "Cholesterol mg per 100g")
	f.StringArrayVar(&foodServings, "serving", nil, "Serving size NAME:GRAMS (repeatable; default by category)")
	_ = foodAddCmd.MarkFlagRequired("name")
	_ = foodAddCmd.MarkFlagRequired("calories")
}
