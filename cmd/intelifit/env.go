package intelifit

import (
	"net/http"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/bthaas/intelifit/internal/app"
	"github.com/bthaas/intelifit/internal/logging"
	"github.com/bthaas/intelifit/internal/provider/identity"
	"github.com/bthaas/intelifit/internal/provider/inference"
	"github.com/bthaas/intelifit/internal/provider/openfoodfacts"
	"github.com/bthaas/intelifit/internal/store"
	"github.com/bthaas/intelifit/internal/tracker"
)

// env is everything a command needs once configuration is resolved.
type env struct {
	cfg     app.Config
	dbPath  string
	log     *zap.Logger
	store   *store.Store
	tracker *tracker.Tracker
}

func loadSettings(cmd *cobra.Command) (*viper.Viper, app.Config, error) {
	v := app.NewViper()
	if err := v.BindPFlag(app.KeyDBPath, cmd.Root().PersistentFlags().Lookup("db")); err != nil {
		return nil, app.Config{}, err
	}
	if err := v.BindPFlag(app.KeyLogLevel, cmd.Root().PersistentFlags().Lookup("log-level")); err != nil {
		return nil, app.Config{}, err
	}
	cfg, err := app.LoadConfig(v, configPath)
	if err != nil {
		return nil, app.Config{}, err
	}
	return v, cfg, nil
}

// withTracker opens the database, loads the tracker state and hands both to
// run. The database is closed when run returns.
func withTracker(cmd *cobra.Command, run func(*env) error) error {
	_, cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	path, err := cfg.ResolveDBPath()
	if err != nil {
		return err
	}
	if err := app.EnsureDBDir(path); err != nil {
		return err
	}
	s, err := store.Open(path, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	tr := tracker.New(s, tracker.Options{Logger: logger})
	if err := tr.Load(cmd.Context()); err != nil {
		return err
	}
	return run(&env{cfg: cfg, dbPath: path, log: logger, store: s, tracker: tr})
}

// withProfile is withTracker for commands that need an active profile.
func withProfile(cmd *cobra.Command, run func(*env) error) error {
	return withTracker(cmd, func(e *env) error {
		if e.tracker.State().User == nil {
			return tracker.ErrNoUser
		}
		return run(e)
	})
}

func (e *env) identityClient() *identity.Client {
	return newIdentityClient(e.cfg)
}

func newIdentityClient(cfg app.Config) *identity.Client {
	return &identity.Client{
		BaseURL:    cfg.Identity.URL,
		HTTPClient: &http.Client{Timeout: cfg.Identity.Timeout},
	}
}

func (e *env) inferenceClient() *inference.Client {
	return &inference.Client{
		BaseURL:    e.cfg.Inference.URL,
		APIKey:     e.cfg.Inference.APIKey,
		HTTPClient: &http.Client{Timeout: e.cfg.Inference.Timeout},
		Logger:     e.log,
	}
}

// recognizer picks what serves req. Barcodes try the product database
// before falling back to inference.
func (e *env) recognizer(req inference.Request) tracker.Recognizer {
	if req.Barcode == "" {
		return e.inferenceClient()
	}
	products := &openfoodfacts.Client{
		BaseURL:    e.cfg.Barcode.URL,
		HTTPClient: &http.Client{Timeout: e.cfg.Barcode.Timeout},
	}
	if e.cfg.Inference.URL == "" {
		return products
	}
	return tracker.Chain{products, e.inferenceClient()}
}
