package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/lixenwraith/dockbridge/network"
	"github.com/lixenwraith/dockbridge/parameter"
)

// ErrInvalidConfig wraps every validation failure
var ErrInvalidConfig = errors.New("invalid config")

var validate = validator.New()

// Config is the dock bridge configuration
type Config struct {
	Enabled            bool        `yaml:"enabled"`
	Kinds              KindsConfig `yaml:"kinds"`
	PipeLayers         int         `yaml:"pipe_layers" validate:"min=1,max=8"`
	MatchTieEpsilon    float64     `yaml:"match_tie_epsilon" validate:"gt=0,lte=1"`
	SweepIntervalTicks int         `yaml:"sweep_interval_ticks" validate:"min=0"`
	EventQueueSize     int         `yaml:"event_queue_size"`
	Log                LogConfig   `yaml:"log"`
}

// KindsConfig toggles docking per network kind
type KindsConfig struct {
	Pipes  bool        `yaml:"pipes"`
	Cables CableConfig `yaml:"cables"`
}

// CableConfig toggles docking per cable tier
type CableConfig struct {
	HV bool `yaml:"hv"`
	MV bool `yaml:"mv"`
	LV bool `yaml:"lv"`
}

// LogConfig selects the slog handler
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Enabled: true,
		Kinds: KindsConfig{
			Pipes: parameter.DockPipesDefault,
			Cables: CableConfig{
				HV: parameter.DockCableHVDefault,
				MV: parameter.DockCableMVDefault,
				LV: parameter.DockCableLVDefault,
			},
		},
		PipeLayers:         parameter.PipeLayers,
		MatchTieEpsilon:    parameter.MatchTieEpsilon,
		SweepIntervalTicks: parameter.SweepIntervalTicks,
		EventQueueSize:     parameter.EventQueueSize,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML file over the defaults
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result
// Keys absent from data keep their default values
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed %s=%s", ErrInvalidConfig, fe.Namespace(), fe.Tag(), fe.Param())
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.EventQueueSize < parameter.MinEventQueueSize || c.EventQueueSize > parameter.MaxEventQueueSize {
		return fmt.Errorf("%w: event_queue_size %d outside [%d, %d]",
			ErrInvalidConfig, c.EventQueueSize, parameter.MinEventQueueSize, parameter.MaxEventQueueSize)
	}
	return nil
}

// Rules builds the compatibility rule set from the kind toggles
func (c Config) Rules() *network.Rules {
	return network.NewRules(
		network.PipeRule{Enabled: c.Kinds.Pipes},
		network.CableRule{Tiers: [parameter.CableTiers]bool{
			network.CableTierHV: c.Kinds.Cables.HV,
			network.CableTierMV: c.Kinds.Cables.MV,
			network.CableTierLV: c.Kinds.Cables.LV,
		}},
	)
}

// LayersFor returns the number of layers a kind is partitioned into
func (c Config) LayersFor(k network.Kind) int {
	if k == network.KindCable {
		return parameter.CableTiers
	}
	return c.PipeLayers
}

// SlogLevel maps the configured level name
func (c Config) SlogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// NewLogger builds the configured slog handler writing to w
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
