package tracker

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/bthaas/intelifit/internal/model"
	"github.com/bthaas/intelifit/internal/provider/inference"
)

// Recognizer turns a description, photo or barcode into nutrition items.
type Recognizer interface {
	Recognize(ctx context.Context, req inference.Request) (inference.Result, error)
}

type Recognition struct {
	Food     model.FoodItem
	Fallback bool
	Reason   string
}

// Recognize runs inference and stores the first item as a custom food. A
// barcode already in the catalog is returned without calling r.
func (t *Tracker) Recognize(ctx context.Context, r Recognizer, req inference.Request) (Recognition, error) {
	req.Barcode = strings.TrimSpace(req.Barcode)
	if req.Barcode != "" {
		if err := validateBarcode(req.Barcode); err != nil {
			return Recognition{}, err
		}
		if food, err := t.store.FoodByBarcode(ctx, req.Barcode); err == nil {
			return Recognition{Food: food}, nil
		}
	}
	done, err := t.begin()
	if err != nil {
		return Recognition{}, err
	}
	defer done()

	res, err := r.Recognize(ctx, req)
	if err != nil {
		t.log.Error("food recognition failed", zap.Error(err))
		return Recognition{}, err
	}
	items := res.Items
	if len(items) == 0 {
		items = []inference.Item{inference.Placeholder()}
		res.Fallback = true
	}
	if len(items) > 1 {
		t.log.Debug("recognition returned several items, keeping the first", zap.Int("items", len(items)))
	}
	item := inference.ToFoodItem(items[0])
	if !res.Fallback {
		item.Barcode = strings.TrimSpace(req.Barcode)
	}
	food, err := t.createFood(ctx, CustomFoodInput{
		Name:         item.Name,
		Brand:        item.Brand,
		Barcode:      item.Barcode,
		Category:     item.Category,
		Per100g:      item.Per100g,
		ServingSizes: item.ServingSizes,
	})
	if err != nil {
		return Recognition{}, err
	}
	return Recognition{Food: food, Fallback: res.Fallback, Reason: res.Reason}, nil
}

// Chain asks each recognizer in turn and keeps the first result that is not
// a fallback. When every recognizer falls back or fails, the last outcome is
// returned.
type Chain []Recognizer

func (c Chain) Recognize(ctx context.Context, req inference.Request) (inference.Result, error) {
	var (
		res inference.Result
		err error
	)
	for _, r := range c {
		res, err = r.Recognize(ctx, req)
		if err == nil && !res.Fallback && len(res.Items) > 0 {
			return res, nil
		}
		if ctx.Err() != nil {
			return inference.Result{}, ctx.Err()
		}
	}
	if len(c) == 0 {
		return inference.Result{}, errors.New("no recognizer configured")
	}
	return res, err
}
