package nutrition

import "fmt"

const (
	lbsPerKg = 2.20462
	cmPerFt  = 30.48
)

func KgToLbs(kg float64) float64 { return round1(kg * lbsPerKg) }

func LbsToKg(lbs float64) float64 { return round1(lbs / lbsPerKg) }

// CmToFt rounds to one decimal while FtToCm rounds to whole centimetres.
func CmToFt(cm float64) float64 { return round1(cm / cmPerFt) }

func FtToCm(ft float64) float64 { return roundInt(ft * cmPerFt) }

// ConvertWeight converts between "kg" and "lbs". Identical units return v
// unchanged.
func ConvertWeight(v float64, from, to string) (float64, error) {
	f, t := normalizeWeightUnit(from), normalizeWeightUnit(to)
	switch {
	case f == "" || t == "":
		return 0, fmt.Errorf("unsupported weight unit conversion %q -> %q", from, to)
	case f == t:
		return v, nil
	case f == "kg":
		return KgToLbs(v), nil
	default:
		return LbsToKg(v), nil
	}
}

// ConvertHeight converts between "cm" and "ft".
func ConvertHeight(v float64, from, to string) (float64, error) {
	if (from != "cm" && from != "ft") || (to != "cm" && to != "ft") {
		return 0, fmt.Errorf("unsupported height unit conversion %q -> %q", from, to)
	}
	if from == to {
		return v, nil
	}
	if from == "cm" {
		return CmToFt(v), nil
	}
	return FtToCm(v), nil
}

func normalizeWeightUnit(u string) string {
	switch u {
	case "kg", "kgs":
		return "kg"
	case "lb", "lbs":
		return "lbs"
	}
	return ""
}
