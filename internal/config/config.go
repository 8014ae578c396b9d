package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/mitchellh/mapstructure"
	"github.com/nmxmxh/atomview/internal/scene"
	apperrors "github.com/nmxmxh/atomview/pkg/errors"
	"github.com/nmxmxh/atomview/pkg/logger"
)

type Config struct {
	AppEnv         string  `mapstructure:"app_env"`
	AppName        string  `mapstructure:"app_name"`
	LogLevel       string  `mapstructure:"log_level"`
	GridSpacing    float32 `mapstructure:"grid_spacing"`
	ChunkSize      float32 `mapstructure:"chunk_size"`
	MaxStored      int     `mapstructure:"max_stored"`
	EvalWorkers    int     `mapstructure:"eval_workers"`
	AnimationSpeed float64 `mapstructure:"animation_speed"`
	MetricsAddr    string  `mapstructure:"metrics_addr"`
	OTLPEndpoint   string  `mapstructure:"otlp_endpoint"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		AppEnv:         "development",
		AppName:        "atomview",
		LogLevel:       "info",
		GridSpacing:    scene.DefaultGridSpacing,
		ChunkSize:      10,
		MaxStored:      0,
		EvalWorkers:    1,
		AnimationSpeed: 1,
	}
}

// Load reads the configuration from the environment on top of Defaults.
func Load() (*Config, error) {
	cfg := Defaults()
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.AppEnv = v
	}
	if v := os.Getenv("APP_NAME"); v != "" {
		cfg.AppName = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")
	cfg.OTLPEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")

	var err error
	if v := os.Getenv("ATOMVIEW_GRID_SPACING"); v != "" {
		if cfg.GridSpacing, err = parseFloat32(v); err != nil {
			return nil, fmt.Errorf("invalid ATOMVIEW_GRID_SPACING: %w", err)
		}
	}
	if v := os.Getenv("ATOMVIEW_CHUNK_SIZE"); v != "" {
		if cfg.ChunkSize, err = parseFloat32(v); err != nil {
			return nil, fmt.Errorf("invalid ATOMVIEW_CHUNK_SIZE: %w", err)
		}
	}
	if v := os.Getenv("ATOMVIEW_MAX_STORED"); v != "" {
		if cfg.MaxStored, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("invalid ATOMVIEW_MAX_STORED: %w", err)
		}
	}
	if v := os.Getenv("ATOMVIEW_EVAL_WORKERS"); v != "" {
		if cfg.EvalWorkers, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("invalid ATOMVIEW_EVAL_WORKERS: %w", err)
		}
	}
	if v := os.Getenv("ATOMVIEW_ANIMATION_SPEED"); v != "" {
		if cfg.AnimationSpeed, err = strconv.ParseFloat(v, 64); err != nil {
			return nil, fmt.Errorf("invalid ATOMVIEW_ANIMATION_SPEED: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromMap decodes host-supplied settings, such as a plain object handed over
// by a browser host, on top of Defaults. Numeric strings are accepted.
func FromMap(m map[string]interface{}) (*Config, error) {
	cfg := Defaults()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create config decoder: %w", err)
	}
	if err := dec.Decode(m); err != nil {
		return nil, fmt.Errorf("invalid config map: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges. Failures wrap ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case !(c.GridSpacing > 0):
		return fmt.Errorf("%w: grid spacing must be positive, got %g", apperrors.ErrInvalidConfig, c.GridSpacing)
	case !(c.ChunkSize > 0):
		return fmt.Errorf("%w: chunk size must be positive, got %g", apperrors.ErrInvalidConfig, c.ChunkSize)
	case c.MaxStored < 0:
		return fmt.Errorf("%w: max stored must not be negative, got %d", apperrors.ErrInvalidConfig, c.MaxStored)
	case c.EvalWorkers < 1:
		return fmt.Errorf("%w: eval workers must be at least 1, got %d", apperrors.ErrInvalidConfig, c.EvalWorkers)
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidConfig, err)
	}
	return nil
}

// SceneOptions maps the configuration onto scene options for a scene with
// the given name.
func (c *Config) SceneOptions(name string) scene.Options {
	return scene.Options{
		Name:        name,
		GridSpacing: c.GridSpacing,
		MaxStored:   c.MaxStored,
		Workers:     c.EvalWorkers,
		Speed:       c.AnimationSpeed,
	}
}

// LoggerConfig maps the configuration onto logger settings.
func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Environment: c.AppEnv,
		LogLevel:    c.LogLevel,
		ServiceName: c.AppName,
	}
}

func parseFloat32(s string) (float32, error) {
	f, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, err
	}
	return float32(f), nil
}
