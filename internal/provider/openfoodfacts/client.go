// Package openfoodfacts looks up packaged products by barcode in the Open
// Food Facts database and reports them as recognition items.
package openfoodfacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bthaas/intelifit/internal/model"
	"github.com/bthaas/intelifit/internal/provider/inference"
)

const (
	defaultBaseURL = "https://world.openfoodfacts.org"
	userAgent      = "intelifit/1.0 (+https://github.com/bthaas/intelifit)"
)

var ErrNotFound = errors.New("product not found")

// Product holds a product's nutrition per 100 g.
type Product struct {
	Barcode  string
	Name     string
	Brand    string
	Category model.FoodCategory
	// ServingGrams is the label's serving weight, 0 when unknown.
	ServingGrams float64
	Per100g      model.Nutrition
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func (c *Client) LookupBarcode(ctx context.Context, barcode string) (Product, []byte, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return Product{}, nil, fmt.Errorf("barcode is required")
	}
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 12 * time.Second}
	}
	endpoint := fmt.Sprintf("%s/api/v2/product/%s.json", base, url.PathEscape(barcode))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Product{}, nil, fmt.Errorf("create openfoodfacts request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := httpClient.Do(req)
	if err != nil {
		return Product{}, nil, fmt.Errorf("execute openfoodfacts request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Product{}, nil, fmt.Errorf("read openfoodfacts response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return Product{}, body, fmt.Errorf("barcode %q: %w", barcode, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Product{}, body, fmt.Errorf("openfoodfacts request failed with status %d", resp.StatusCode)
	}

	var parsed offResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Product{}, body, fmt.Errorf("decode openfoodfacts response: %w", err)
	}
	if parsed.Status != 1 || strings.TrimSpace(parsed.Product.ProductName) == "" {
		return Product{}, body, fmt.Errorf("barcode %q: %w", barcode, ErrNotFound)
	}

	p := parsed.Product
	serving := servingGrams(p)
	return Product{
		Barcode:      barcode,
		Name:         strings.TrimSpace(p.ProductName),
		Brand:        firstBrand(p.Brands),
		Category:     categoryFromTags(p.CategoriesTags),
		ServingGrams: serving,
		Per100g: model.Nutrition{
			Calories:      per100g(p.Nutriments, "energy-kcal", serving),
			ProteinG:      per100g(p.Nutriments, "proteins", serving),
			CarbsG:        per100g(p.Nutriments, "carbohydrates", serving),
			FatG:          per100g(p.Nutriments, "fat", serving),
			FiberG:        per100g(p.Nutriments, "fiber", serving),
			SugarG:        per100g(p.Nutriments, "sugars", serving),
			SodiumMg:      per100g(p.Nutriments, "sodium", serving) * 1000,
			CholesterolMg: per100g(p.Nutriments, "cholesterol", serving) * 1000,
		},
	}, body, nil
}

// Recognize serves barcode requests so the client can sit in front of the
// inference endpoint. Other request kinds are rejected.
func (c *Client) Recognize(ctx context.Context, req inference.Request) (inference.Result, error) {
	if strings.TrimSpace(req.Barcode) == "" {
		return inference.Result{}, fmt.Errorf("openfoodfacts only handles barcode requests")
	}
	p, raw, err := c.LookupBarcode(ctx, req.Barcode)
	if err != nil {
		return inference.Result{Raw: raw}, err
	}
	return inference.Result{Items: []inference.Item{p.Item()}, Raw: raw}, nil
}

// Item reports the product per 100 g, matching what inference returns.
func (p Product) Item() inference.Item {
	return inference.Item{
		Name:        p.Name,
		Brand:       p.Brand,
		Category:    string(p.Category),
		ServingSize: "100g",
		Calories:    inference.Amount(p.Per100g.Calories),
		Protein:     inference.Amount(p.Per100g.ProteinG),
		Carbs:       inference.Amount(p.Per100g.CarbsG),
		Fat:         inference.Amount(p.Per100g.FatG),
		Fiber:       inference.Amount(p.Per100g.FiberG),
		Sugar:       inference.Amount(p.Per100g.SugarG),
		Sodium:      inference.Amount(p.Per100g.SodiumMg),
		Cholesterol: inference.Amount(p.Per100g.CholesterolMg),
	}
}

// per100g prefers the _100g value and scales the _serving value otherwise.
func per100g(n map[string]any, base string, servingGrams float64) float64 {
	if v, ok := parseFloatAny(n[base+"_100g"]); ok {
		return v
	}
	if v, ok := parseFloatAny(n[base+"_serving"]); ok && servingGrams > 0 {
		return v * 100 / servingGrams
	}
	return 0
}

func parseFloatAny(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func servingGrams(p offProduct) float64 {
	if p.ServingQuantity > 0 {
		unit := strings.ToLower(strings.TrimSpace(p.ServingQuantityUnit))
		if unit == "" || unit == "g" || unit == "ml" {
			return p.ServingQuantity
		}
	}
	parts := strings.Fields(strings.TrimSpace(p.ServingSize))
	if len(parts) >= 2 && (strings.EqualFold(parts[1], "g") || strings.EqualFold(parts[1], "ml")) {
		if val, err := strconv.ParseFloat(strings.ReplaceAll(parts[0], ",", "."), 64); err == nil && val > 0 {
			return val
		}
	}
	return 0
}

func firstBrand(brands string) string {
	first, _, _ := strings.Cut(brands, ",")
	return strings.TrimSpace(first)
}

var categoryKeywords = []struct {
	keyword  string
	category model.FoodCategory
}{
	{"beverages", model.CategoryBeverage},
	{"dairies", model.CategoryDairy},
	{"cheeses", model.CategoryDairy},
	{"yogurts", model.CategoryDairy},
	{"fruits", model.CategoryFruit},
	{"vegetables", model.CategoryVegetable},
	{"cereals", model.CategoryGrain},
	{"breads", model.CategoryGrain},
	{"pastas", model.CategoryGrain},
	{"meats", model.CategoryProtein},
	{"fishes", model.CategoryProtein},
	{"eggs", model.CategoryProtein},
	{"fats", model.CategoryFat},
	{"oils", model.CategoryFat},
	{"snacks", model.CategorySnack},
}

// categoryFromTags maps tags like "en:plain-yogurts" onto the catalog's
// categories. Tags are ordered general to specific, so the last match wins.
func categoryFromTags(tags []string) model.FoodCategory {
	out := model.CategoryOther
	for _, tag := range tags {
		_, name, found := strings.Cut(strings.ToLower(tag), ":")
		if !found {
			name = strings.ToLower(tag)
		}
		for _, k := range categoryKeywords {
			if strings.Contains(name, k.keyword) {
				out = k.category
				break
			}
		}
	}
	return out
}

type offResponse struct {
	Status  int        `json:"status"`
	Product offProduct `json:"product"`
}

type offProduct struct {
	ProductName         string         `json:"product_name"`
	Brands              string         `json:"brands"`
	CategoriesTags      []string       `json:"categories_tags"`
	ServingSize         string         `json:"serving_size"`
	ServingQuantity     float64        `json:"serving_quantity"`
	ServingQuantityUnit string         `json:"serving_quantity_unit"`
	Nutriments          map[string]any `json:"nutriments"`
}
