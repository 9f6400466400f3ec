package inference

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/bthaas/intelifit/internal/model"
)

// Amount accepts either a JSON number or a string such as "12g" or
// "150 mg". Strings without a leading number decode to zero.
type Amount float64

var leadingNumber = regexp.MustCompile(`^\s*([0-9]+(?:\.[0-9]+)?|\.[0-9]+)`)

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*a = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = Amount(parseLeadingFloat(s))
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*a = Amount(f)
	return nil
}

func parseLeadingFloat(s string) float64 {
	m := leadingNumber.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return f
}

type Item struct {
	Name        string `json:"name"`
	Brand       string `json:"brand"`
	Category    string `json:"category"`
	ServingSize string `json:"serving_size"`
	Calories    Amount `json:"calories"`
	Protein     Amount `json:"protein"`
	Carbs       Amount `json:"carbs"`
	Fat         Amount `json:"fat"`
	Fiber       Amount `json:"fiber"`
	Sugar       Amount `json:"sugar"`
	Sodium      Amount `json:"sodium"`
	Cholesterol Amount `json:"cholesterol"`
}

type envelope struct {
	Items     []Item `json:"items"`
	DebugInfo *struct {
		Error string `json:"error"`
	} `json:"debug_info"`
}

// Placeholder is substituted whenever a response cannot be used.
func Placeholder() Item {
	return Item{
		Name:        "Unknown Food Item",
		Brand:       "Generic",
		Category:    string(model.CategoryOther),
		ServingSize: "1 serving",
		Calories:    100,
		Protein:     2,
		Carbs:       15,
		Fat:         3,
		Fiber:       1,
		Sugar:       2,
		Sodium:      150,
	}
}

var (
	fenceMarkup = strings.NewReplacer("```json", "", "```", "", "`", "", "*", "")
	headerMarks = regexp.MustCompile(`#+`)
	blankLines  = regexp.MustCompile(`\n+`)
	jsonObject  = regexp.MustCompile(`(?s)\{.*\}`)
)

// CleanResponse strips markdown decoration a model may wrap around JSON and
// returns the outermost object if one is present.
func CleanResponse(raw string) string {
	s := fenceMarkup.Replace(raw)
	s = headerMarks.ReplaceAllString(s, "")
	s = blankLines.ReplaceAllString(s, "\n")
	s = strings.TrimSpace(s)
	if m := jsonObject.FindString(s); m != "" {
		return m
	}
	return s
}

// ParseItems decodes recognized items. A non-empty reason means the body was
// unusable and the returned slice holds only the placeholder.
func ParseItems(body []byte) ([]Item, string) {
	var env envelope
	if err := json.Unmarshal([]byte(CleanResponse(string(body))), &env); err != nil {
		return []Item{Placeholder()}, "malformed response: " + err.Error()
	}
	if len(env.Items) == 0 {
		reason := "no items in response"
		if env.DebugInfo != nil && strings.TrimSpace(env.DebugInfo.Error) != "" {
			reason = env.DebugInfo.Error
		}
		return []Item{Placeholder()}, reason
	}
	items := make([]Item, 0, len(env.Items))
	for _, it := range env.Items {
		it.Name = displayName(it.Name)
		items = append(items, it)
	}
	return items, ""
}

var titleCaser = cases.Title(language.English)

func displayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Unknown Food"
	}
	if name == strings.ToLower(name) {
		return titleCaser.String(name)
	}
	return name
}

// ToFoodItem turns a recognized item into a custom food with a single 100 g
// serving named after the reported serving size.
func ToFoodItem(it Item) model.FoodItem {
	category := model.FoodCategory(strings.ToLower(strings.TrimSpace(it.Category)))
	if !category.Valid() {
		category = model.CategoryOther
	}
	brand := strings.TrimSpace(it.Brand)
	if strings.EqualFold(brand, "generic") {
		brand = ""
	}
	serving := strings.TrimSpace(it.ServingSize)
	if serving == "" {
		serving = "1 serving"
	}
	return model.FoodItem{
		Name:     displayName(it.Name),
		Brand:    brand,
		Category: category,
		IsCustom: true,
		Per100g: model.Nutrition{
			Calories:      nonNegative(it.Calories),
			ProteinG:      nonNegative(it.Protein),
			CarbsG:        nonNegative(it.Carbs),
			FatG:          nonNegative(it.Fat),
			FiberG:        nonNegative(it.Fiber),
			SugarG:        nonNegative(it.Sugar),
			SodiumMg:      nonNegative(it.Sodium),
			CholesterolMg: nonNegative(it.Cholesterol),
		},
		ServingSizes: []model.ServingSize{{Name: serving, WeightG: 100, Unit: model.UnitGram}},
	}
}

func nonNegative(a Amount) float64 {
	if a < 0 {
		return 0
	}
	return float64(a)
}
