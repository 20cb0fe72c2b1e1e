package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/adamking/ai-changelog/internal/clierr"
	"github.com/adamking/ai-changelog/internal/llm/providers/openai"
)

const (
	// DefaultFileName is looked up in the user's home directory when no
	// explicit --config path is given.
	DefaultFileName = ".ai-changelog.config"

	DefaultModel       = "gpt-4-1106-preview"
	DefaultTemperature = 0.3
	DefaultMaxTokens   = 500
	DefaultBaseURL     = openai.DefaultBaseURL

	// EnvPrefix namespaces the environment layer, e.g. AI_CHANGELOG_MODEL.
	EnvPrefix = "AI_CHANGELOG"
)

// fileKeys are the keys honoured in the config file; anything else is ignored.
var fileKeys = []string{"model", "temperature", "max_tokens", "base_url"}

// EffectiveConfig is the resolved parameter set for one invocation.
type EffectiveConfig struct {
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	BaseURL     string  `mapstructure:"base_url"`
	Verbose     bool    `mapstructure:"verbose"`

	// Source is the config file that was read, empty when none was found.
	Source string `mapstructure:"-"`
}

// Overrides holds command-line values. Nil fields were not set by the user
// and leave the lower layers untouched.
type Overrides struct {
	Model       *string
	Temperature *float64
	MaxTokens   *int
	Verbose     *bool
}

// DefaultPath returns ~/.ai-changelog.config, or an empty string when the
// home directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, DefaultFileName)
}

// Resolve layers defaults < config file < AI_CHANGELOG_* env < overrides.
// A missing file is not an error; an unparseable one is a config error.
func Resolve(path string, o Overrides) (EffectiveConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = DefaultPath()
	}

	source, err := readFile(v, path)
	if err != nil {
		return EffectiveConfig{}, err
	}

	applyOverrides(v, o)

	var cfg EffectiveConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return EffectiveConfig{}, clierr.Config(err, fmt.Sprintf("invalid config values in %s", path),
			"model must be a string, temperature a number and max_tokens an integer")
	}
	cfg.Source = source

	if err := cfg.Validate(); err != nil {
		return EffectiveConfig{}, clierr.Config(err, "invalid configuration")
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("model", DefaultModel)
	v.SetDefault("temperature", DefaultTemperature)
	v.SetDefault("max_tokens", DefaultMaxTokens)
	v.SetDefault("base_url", DefaultBaseURL)
	v.SetDefault("verbose", false)
}

func readFile(v *viper.Viper, path string) (string, error) {
	if path == "" {
		return "", nil
	}

	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", clierr.Config(err, fmt.Sprintf("cannot access config file %s", path))
	}
	if info.IsDir() {
		return "", clierr.Config(nil, fmt.Sprintf("config path %s is a directory", path))
	}

	fv := viper.New()
	fv.SetConfigFile(path)
	fv.SetConfigType("json")
	if err := fv.ReadInConfig(); err != nil {
		return "", clierr.Config(err, fmt.Sprintf("config file %s is not valid JSON", path),
			`expected an object such as {"model": "gpt-4o", "temperature": 0.2, "max_tokens": 800}`)
	}

	// null and "" values behave as if the key were absent.
	values := make(map[string]any)
	for _, key := range fileKeys {
		if !fv.IsSet(key) {
			continue
		}
		val := fv.Get(key)
		if val == nil {
			continue
		}
		if s, ok := val.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		if err := checkFileValue(key, val); err != nil {
			return "", clierr.Config(err, fmt.Sprintf("invalid config values in %s", path),
				"model and base_url must be strings, temperature a number and max_tokens an integer")
		}
		values[key] = val
	}
	if err := v.MergeConfigMap(values); err != nil {
		return "", clierr.Config(err, fmt.Sprintf("merge config file %s", path))
	}
	return path, nil
}

// checkFileValue rejects values the weakly typed decoder would coerce,
// such as a numeric model or a fractional max_tokens.
func checkFileValue(key string, val any) error {
	switch key {
	case "model", "base_url":
		if _, ok := val.(string); !ok {
			return fmt.Errorf("%s must be a string, got %T", key, val)
		}
	case "temperature":
		if _, ok := val.(float64); !ok {
			return fmt.Errorf("temperature must be a number, got %T", val)
		}
	case "max_tokens":
		f, ok := val.(float64)
		if !ok || f != math.Trunc(f) {
			return fmt.Errorf("max_tokens must be an integer, got %v", val)
		}
	}
	return nil
}

func applyOverrides(v *viper.Viper, o Overrides) {
	if o.Model != nil && strings.TrimSpace(*o.Model) != "" {
		v.Set("model", *o.Model)
	}
	if o.Temperature != nil {
		v.Set("temperature", *o.Temperature)
	}
	if o.MaxTokens != nil {
		v.Set("max_tokens", *o.MaxTokens)
	}
	if o.Verbose != nil {
		v.Set("verbose", *o.Verbose)
	}
}

// Validate performs basic sanity checks on configuration values.
func (c EffectiveConfig) Validate() error {
	if strings.TrimSpace(c.Model) == "" {
		return errors.New("model must not be empty")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be within [0,2], got %g", c.Temperature)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be > 0, got %d", c.MaxTokens)
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("base_url must not be empty")
	}
	return nil
}
