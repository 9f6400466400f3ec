package tracker

import (
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/bthaas/intelifit/internal/model"
	"github.com/bthaas/intelifit/internal/nutrition"
)

var barcodePattern = regexp.MustCompile(`^\d{8,14}$`)

// validateBarcode accepts EAN-8 through GTIN-14 digit strings.
func validateBarcode(code string) error {
	if !barcodePattern.MatchString(code) {
		return invalid("barcode", "expected 8-14 digits")
	}
	return nil
}

func validateDate(date string) error {
	if _, err := time.Parse(nutrition.DateLayout, date); err != nil {
		return invalid("date", "expected YYYY-MM-DD")
	}
	return nil
}

func validatePositive(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return invalid(field, "must be a finite number")
	}
	if v <= 0 {
		return invalid(field, "must be greater than 0")
	}
	return nil
}

func validateNonNegative(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return invalid(field, "must be a finite number")
	}
	if v < 0 {
		return invalid(field, "must be 0 or greater")
	}
	return nil
}

func validateOptionalPositive(field string, v *float64) error {
	if v == nil {
		return nil
	}
	return validatePositive(field, *v)
}

func validateRequired(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return invalid(field, "is required")
	}
	return nil
}

func validateMacros(m model.MacroRatios) error {
	for _, p := range []struct {
		name string
		v    int
	}{{"protein", m.Protein}, {"carbs", m.Carbs}, {"fat", m.Fat}} {
		if p.v < 0 || p.v > 100 {
			return invalid("macro "+p.name, "percentage must be between 0 and 100")
		}
	}
	return nil
}

func validateBirthDate(dob, now time.Time) error {
	if dob.IsZero() {
		return invalid("date of birth", "is required")
	}
	if !dob.Before(now) {
		return invalid("date of birth", "must be in the past")
	}
	return nil
}

func validateNutrition(n model.Nutrition) error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"calories", n.Calories}, {"protein", n.ProteinG}, {"carbs", n.CarbsG}, {"fat", n.FatG},
		{"fiber", n.FiberG}, {"sugar", n.SugarG}, {"sodium", n.SodiumMg}, {"cholesterol", n.CholesterolMg},
	} {
		if err := validateNonNegative(f.name, f.v); err != nil {
			return err
		}
	}
	return nil
}
