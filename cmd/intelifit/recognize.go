package intelifit

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bthaas/intelifit/internal/model"
	"github.com/bthaas/intelifit/internal/provider/inference"
	"github.com/bthaas/intelifit/internal/tracker"
)

var (
	recognizeText     string
	recognizeImage    string
	recognizeBarcode  string
	recognizeLog      bool
	recognizeMeal     string
	recognizeQuantity float64
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize",
	Short: "Recognize a food from a description, photo or barcode and save it",
	RunE: func(cmd *cobra.Command, args []string) error {
		req := inference.Request{Transcription: recognizeText, Barcode: recognizeBarcode}
		if recognizeImage != "" {
			enc, err := inference.EncodeImageFile(recognizeImage)
			if err != nil {
				return err
			}
			req.Base64Image = enc
		}
		run := withTracker
		if recognizeLog {
			run = withProfile
		}
		return run(cmd, func(e *env) error {
			rec, err := e.tracker.Recognize(cmd.Context(), e.recognizer(req), req)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if rec.Fallback {
				fmt.Fprintf(out, "Could not read the recognition result (%s); saved a placeholder you can edit\n", rec.Reason)
			}
			f := rec.Food
			fmt.Fprintf(out, "Food %d: %s\n", f.ID, foodLabel(f))
			fmt.Fprintf(out, "Per 100g: %s\n", formatNutrition(f.Per100g))
			if !recognizeLog {
				return nil
			}
			cf, err := e.tracker.LogFood(cmd.Context(), tracker.FoodLogInput{
				MealType:   model.MealType(strings.ToLower(recognizeMeal)),
				FoodItemID: f.ID,
				Quantity:   recognizeQuantity,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Logged entry %d under %s: %.0f kcal\n", cf.ID, recognizeMeal, cf.Consumed.Calories)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(recognizeCmd)
	f := recognizeCmd.Flags()
	f.StringVar(&recognizeText, "text", "", "Describe what you ate")
	f.StringVar(&recognizeImage, "image", "", "Path to a photo of the meal")
	f.StringVar(&recognizeBarcode, "barcode", "", "Product barcode")
	f.BoolVar(&recognizeLog, "log", false, "Also log the food for today")
	f.StringVar(&recognizeMeal, "meal", "snack", "Meal for --log")
	f.Float64Var(&recognizeQuantity, "quantity", 1, "Servings for --log")
	recognizeCmd.MarkFlagsOneRequired("text", "image", "barcode")
	recognizeCmd.MarkFlagsMutuallyExclusive("text", "image", "barcode")
}
