// Package tracker is the application state controller. It keeps one in-memory
// State for the active profile, routes every mutation through the store, and
// reloads the affected parts of the state once the write succeeds.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bthaas/intelifit/internal/logging"
	"github.com/bthaas/intelifit/internal/model"
	"github.com/bthaas/intelifit/internal/nutrition"
	"github.com/bthaas/intelifit/internal/store"
)

var (
	ErrBusy   = errors.New("another change is still in progress")
	ErrNoUser = errors.New("no active profile; run `intelifit profile create` first")
)

// ValidationError reports input rejected before any storage call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// State is the snapshot callers render from. Day always belongs to Date.
type State struct {
	User      *model.UserProfile
	Date      string
	Day       model.DailyNutrition
	Favorites []model.FoodItem
	Recent    []model.FoodItem
	Exercises []model.Exercise
	Weights   []model.WeightEntry
}

type Options struct {
	Logger *zap.Logger
	Now    func() time.Time
}

type Tracker struct {
	store *store.Store
	log   *zap.Logger
	now   func() time.Time

	inflight sync.Mutex

	mu    sync.RWMutex
	state State
}

func New(s *store.Store, opts Options) *Tracker {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Tracker{store: s, log: logging.OrNop(opts.Logger), now: now}
}

// Store exposes the underlying store for read paths the tracker does not wrap.
func (t *Tracker) Store() *store.Store {
	return t.store
}

// State returns a copy of the current snapshot.
func (t *Tracker) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	st := t.state
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	return st
}

// begin claims the in-flight slot. A second mutation issued before the first
// returns gets ErrBusy instead of racing it.
func (t *Tracker) begin() (func(), error) {
	if !t.inflight.TryLock() {
		return nil, ErrBusy
	}
	return t.inflight.Unlock, nil
}

// Load initializes the store and reads the active profile, if any, along with
// today's log.
func (t *Tracker) Load(ctx context.Context) error {
	done, err := t.begin()
	if err != nil {
		return err
	}
	defer done()

	if err := t.store.Initialize(ctx); err != nil {
		return err
	}
	exercises, err := t.store.ListExercises(ctx)
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.state.Exercises = exercises
	if t.state.Date == "" {
		t.state.Date = t.today()
	}
	t.mu.Unlock()

	id, ok, err := t.store.GetConfig(ctx, store.ConfigActiveUser)
	if err != nil {
		return err
	}
	if !ok || id == "" {
		return nil
	}
	u, err := t.store.GetUser(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		t.log.Warn("active profile missing, clearing", zap.String("user_id", id))
		return t.store.DeleteConfig(ctx, store.ConfigActiveUser, store.ConfigOnboardingComplete)
	}
	if err != nil {
		return err
	}
	t.setUser(u)
	return t.refresh(ctx)
}

func (t *Tracker) today() string {
	return t.now().Format(nutrition.DateLayout)
}

func (t *Tracker) setUser(u model.UserProfile) {
	t.mu.Lock()
	t.state.User = &u
	t.mu.Unlock()
}

func (t *Tracker) user() (model.UserProfile, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.state.User == nil {
		return model.UserProfile{}, ErrNoUser
	}
	return *t.state.User, nil
}

func (t *Tracker) date() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.state.Date == "" {
		return t.today()
	}
	return t.state.Date
}

func (t *Tracker) dayKey(u model.UserProfile, date string) store.Day {
	return store.Day{UserID: u.ID, Date: date, CalorieGoal: u.Goals.CalorieGoal}
}

// refresh reloads everything scoped to the active profile.
func (t *Tracker) refresh(ctx context.Context) error {
	if err := t.refreshUser(ctx); err != nil {
		return err
	}
	if err := t.refreshDay(ctx); err != nil {
		return err
	}
	if err := t.refreshFoods(ctx); err != nil {
		return err
	}
	return t.refreshWeights(ctx)
}

func (t *Tracker) refreshUser(ctx context.Context) error {
	u, err := t.user()
	if err != nil {
		return err
	}
	fresh, err := t.store.GetUser(ctx, u.ID)
	if err != nil {
		return err
	}
	t.setUser(fresh)
	return nil
}

func (t *Tracker) refreshDay(ctx context.Context) error {
	u, err := t.user()
	if err != nil {
		return err
	}
	date := t.date()
	day, err := t.store.GetDailyNutrition(ctx, u.ID, date)
	if errors.Is(err, store.ErrNotFound) {
		day = model.DailyNutrition{UserID: u.ID, Date: date, CalorieGoal: u.Goals.CalorieGoal, Meals: []model.MealEntry{}}
	} else if err != nil {
		return err
	}
	t.mu.Lock()
	t.state.Date = date
	t.state.Day = day
	t.mu.Unlock()
	return nil
}

func (t *Tracker) refreshFoods(ctx context.Context) error {
	u, err := t.user()
	if err != nil {
		return err
	}
	favorites, err := t.store.ListFavorites(ctx, u.ID)
	if err != nil {
		return err
	}
	recent, err := t.store.ListRecentFoods(ctx, u.ID)
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.state.Favorites = favorites
	t.state.Recent = recent
	t.mu.Unlock()
	return nil
}

func (t *Tracker) refreshWeights(ctx context.Context) error {
	u, err := t.user()
	if err != nil {
		return err
	}
	weights, err := t.store.ListWeightEntries(ctx, u.ID, 0)
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.state.Weights = weights
	t.mu.Unlock()
	return nil
}

// SetDate switches the day the log operations act on.
func (t *Tracker) SetDate(ctx context.Context, date string) error {
	if err := validateDate(date); err != nil {
		return err
	}
	done, err := t.begin()
	if err != nil {
		return err
	}
	defer done()

	t.mu.Lock()
	t.state.Date = date
	t.mu.Unlock()
	if _, err := t.user(); errors.Is(err, ErrNoUser) {
		return nil
	}
	return t.refreshDay(ctx)
}
