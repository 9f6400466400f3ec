package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "INTELIFIT"

const (
	KeyDBPath           = "db.path"
	KeyLogLevel         = "log.level"
	KeyLogFormat        = "log.format"
	KeyInferenceURL     = "inference.url"
	KeyInferenceAPIKey  = "inference.api_key"
	KeyInferenceTimeout = "inference.timeout"
	KeyIdentityURL      = "identity.url"
	KeyIdentityTimeout  = "identity.timeout"
	KeyBarcodeURL       = "barcode.url"
	KeyBarcodeTimeout   = "barcode.timeout"
)

type Config struct {
	DBPath    string
	LogLevel  string
	LogFormat string
	Inference EndpointConfig
	Identity  EndpointConfig
	// Barcode is the product database; an empty URL means Open Food Facts.
	Barcode   EndpointConfig
}

type EndpointConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// NewViper returns a viper instance with defaults and environment binding
// applied. INTELIFIT_INFERENCE_URL maps to inference.url and so on.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyDBPath, "")
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyLogFormat, "console")
	v.SetDefault(KeyInferenceURL, "")
	v.SetDefault(KeyInferenceAPIKey, "")
	v.SetDefault(KeyInferenceTimeout, "30s")
	v.SetDefault(KeyIdentityURL, "")
	v.SetDefault(KeyIdentityTimeout, "12s")
	v.SetDefault(KeyBarcodeURL, "")
	v.SetDefault(KeyBarcodeTimeout, "12s")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig reads path (or the default config file when path is empty) into
// v. A missing default file is not an error; a missing explicit file is.
func LoadConfig(v *viper.Viper, path string) (Config, error) {
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		p, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = p
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil && (explicit || !isNotExist(err)) {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return FromViper(v)
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}

func FromViper(v *viper.Viper) (Config, error) {
	inferenceTimeout, err := parseTimeout(v, KeyInferenceTimeout)
	if err != nil {
		return Config{}, err
	}
	identityTimeout, err := parseTimeout(v, KeyIdentityTimeout)
	if err != nil {
		return Config{}, err
	}
	barcodeTimeout, err := parseTimeout(v, KeyBarcodeTimeout)
	if err != nil {
		return Config{}, err
	}
	return Config{
		DBPath:    strings.TrimSpace(v.GetString(KeyDBPath)),
		LogLevel:  strings.ToLower(strings.TrimSpace(v.GetString(KeyLogLevel))),
		LogFormat: strings.ToLower(strings.TrimSpace(v.GetString(KeyLogFormat))),
		Inference: EndpointConfig{
			URL:     strings.TrimSpace(v.GetString(KeyInferenceURL)),
			APIKey:  strings.TrimSpace(v.GetString(KeyInferenceAPIKey)),
			Timeout: inferenceTimeout,
		},
		Identity: EndpointConfig{
			URL:     strings.TrimSpace(v.GetString(KeyIdentityURL)),
			Timeout: identityTimeout,
		},
		Barcode: EndpointConfig{
			URL:     strings.TrimSpace(v.GetString(KeyBarcodeURL)),
			Timeout: barcodeTimeout,
		},
	}, nil
}

func parseTimeout(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return d, nil
}

// ResolveDBPath prefers the configured path and falls back to the per-user
// default location.
func (c Config) ResolveDBPath() (string, error) {
	if c.DBPath != "" {
		return c.DBPath, nil
	}
	return DefaultDBPath()
}

// Keys lists every setting `config set` accepts.
var Keys = []string{
	KeyDBPath, KeyLogLevel, KeyLogFormat,
	KeyInferenceURL, KeyInferenceAPIKey, KeyInferenceTimeout,
	KeyIdentityURL, KeyIdentityTimeout,
	KeyBarcodeURL, KeyBarcodeTimeout,
}

func KnownKey(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}

// SetConfigValue writes one key to the config file at path, keeping whatever
// else the file holds. Defaults and environment values are not written.
func SetConfigValue(path, key, value string) error {
	if !KnownKey(key) {
		return fmt.Errorf("unknown config key %q", key)
	}
	check := NewViper()
	check.Set(key, value)
	if _, err := FromViper(check); err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	v.Set(key, value)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
