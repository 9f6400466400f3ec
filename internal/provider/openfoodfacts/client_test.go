package openfoodfacts

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bthaas/intelifit/internal/model"
	"github.com/bthaas/intelifit/internal/provider/inference"
)

func TestLookupBarcodeParsesOpenFoodFactsResponse(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/product/12345678.json", r.URL.Path)
		assert.Contains(t, r.Header.Get("User-Agent"), "intelifit")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "status": 1,
  "product": {
    "product_name": "Yogurt Cup",
    "brands": "Brand Co, Other Co",
    "categories_tags": ["en:dairies", "en:fermented-foods", "en:plain-yogurts"],
    "serving_quantity": 170,
    "serving_quantity_unit": "g",
    "nutriments": {
      "energy-kcal_100g": 70,
      "proteins_serving": 17,
      "carbohydrates_100g": "9.5",
      "fat_100g": 1.2,
      "sodium_100g": 0.05
    }
  }
}`))
	}))
	defer ts.Close()

	c := &Client{BaseURL: ts.URL, HTTPClient: ts.Client()}
	p, raw, err := c.LookupBarcode(context.Background(), " 12345678 ")
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
	assert.Equal(t, "12345678", p.Barcode)
	assert.Equal(t, "Yogurt Cup", p.Name)
	assert.Equal(t, "Brand Co", p.Brand)
	assert.Equal(t, model.CategoryDairy, p.Category)
	assert.Equal(t, 170.0, p.ServingGrams)
	assert.Equal(t, 70.0, p.Per100g.Calories)
	assert.InDelta(t, 10.0, p.Per100g.ProteinG, 1e-9)
	assert.Equal(t, 9.5, p.Per100g.CarbsG)
	assert.InDelta(t, 50.0, p.Per100g.SodiumMg, 1e-9)
}

func TestLookupBarcodeNotFound(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": 0, "status_verbose": "product not found"}`))
	}))
	defer ts.Close()

	c := &Client{BaseURL: ts.URL, HTTPClient: ts.Client()}
	_, _, err := c.LookupBarcode(context.Background(), "000")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLookupBarcodeEscapesPathSegment(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/product/..%2F..%2Fadmin%3Fx=1%23.json", r.URL.EscapedPath())
		assert.Empty(t, r.URL.RawQuery)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	c := &Client{BaseURL: ts.URL, HTTPClient: ts.Client()}
	_, _, err := c.LookupBarcode(context.Background(), "../../admin?x=1#")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecognizeReturnsItemPer100g(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":1,"product":{"product_name":"Cola","categories_tags":["en:beverages","en:sodas"],"nutriments":{"energy-kcal_100g":42,"sugars_100g":10.6,"cholesterol_100g":0.25}}}`))
	}))
	defer ts.Close()

	c := &Client{BaseURL: ts.URL, HTTPClient: ts.Client()}
	res, err := c.Recognize(context.Background(), inference.Request{Barcode: "5449000000996"})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	item := res.Items[0]
	assert.Equal(t, "Cola", item.Name)
	assert.Equal(t, "beverage", item.Category)
	assert.Equal(t, "100g", item.ServingSize)
	assert.Equal(t, inference.Amount(42), item.Calories)
	assert.Equal(t, inference.Amount(10.6), item.Sugar)
	assert.Equal(t, inference.Amount(250), item.Cholesterol)

	_, err = c.Recognize(context.Background(), inference.Request{Transcription: "an apple"})
	assert.Error(t, err)
}

func TestCategoryFromTags(t *testing.T) {
	t.Parallel()

	assert.Equal(t, model.CategoryOther, categoryFromTags(nil))
	assert.Equal(t, model.CategoryGrain, categoryFromTags([]string{"en:plant-based-foods", "en:breakfast-cereals"}))
	assert.Equal(t, model.CategorySnack, categoryFromTags([]string{"sweet-snacks"}))
}
