// Package config loads settings from defaults, an optional YAML file and
// OTHELLO_* environment variables.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"othello/internal/core"
	"othello/internal/engine"
)

const (
	appName    = "othello"
	envPrefix  = "OTHELLO"
	configName = "config.yaml"
)

type HTTPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Dev  bool   `mapstructure:"dev"`
}

// NATSConfig enables the event broadcast when URL is set
type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// Players holds the three seat profiles
type Players struct {
	Black  core.PlayerConfig `mapstructure:"black"`
	White  core.PlayerConfig `mapstructure:"white"`
	Engine core.PlayerConfig `mapstructure:"engine"`
}

type Config struct {
	DataDir        string         `mapstructure:"data_dir"`
	StoragePath    string         `mapstructure:"storage_path"`
	MinMoveDelay   time.Duration  `mapstructure:"min_move_delay"`
	InterruptGrace time.Duration  `mapstructure:"interrupt_grace"`
	WaitTimeout    time.Duration  `mapstructure:"wait_timeout"`
	Players        Players        `mapstructure:"players"`
	Options        engine.Options `mapstructure:"options"`
	HTTP           HTTPConfig     `mapstructure:"http"`
	NATS           NATSConfig     `mapstructure:"nats"`
	Log            LogConfig      `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", filepath.Join(xdg.DataHome, appName))
	v.SetDefault("storage_path", "")
	v.SetDefault("min_move_delay", 300*time.Millisecond)
	v.SetDefault("interrupt_grace", 500*time.Millisecond)
	v.SetDefault("wait_timeout", 25*time.Second)

	human := core.HumanPlayer()
	computer := core.ComputerPlayer(6)
	setPlayer(v, "players.black", human)
	setPlayer(v, "players.white", computer)
	setPlayer(v, "players.engine", computer)

	v.SetDefault("options.auto_make_moves", false)
	v.SetDefault("options.slack", 0.0)
	v.SetDefault("options.perturbation", 0.0)
	v.SetDefault("options.forced_opening", "")
	v.SetDefault("options.human_openings", false)
	v.SetDefault("options.practice_mode", false)
	v.SetDefault("options.use_book", true)

	v.SetDefault("http.host", "localhost")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.dev", false)

	v.SetDefault("nats.url", "")
	v.SetDefault("nats.subject", appName)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

func setPlayer(v *viper.Viper, key string, p core.PlayerConfig) {
	v.SetDefault(key+".depth", p.Depth)
	v.SetDefault(key+".exact_depth", p.ExactDepth)
	v.SetDefault(key+".wld_depth", p.WLDDepth)
	v.SetDefault(key+".time", p.Time)
	v.SetDefault(key+".time_increment", p.TimeIncrement)
}

// Load reads configuration. An empty path searches the XDG config
// directories for othello/config.yaml; a missing file there is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		if found, err := xdg.SearchConfigFile(filepath.Join(appName, configName)); err == nil {
			path = found
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every seat and the numeric options
func (c *Config) Validate() error {
	var errs []error
	for name, p := range map[string]core.PlayerConfig{
		"players.black":  c.Players.Black,
		"players.white":  c.Players.White,
		"players.engine": c.Players.Engine,
	} {
		if err := p.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	if c.Players.Engine.IsHuman() {
		errs = append(errs, &core.ConfigError{Field: "players.engine", Reason: "engine seat needs a search depth"})
	}
	if c.Options.Slack < 0 || c.Options.Perturbation < 0 {
		errs = append(errs, &core.ConfigError{Field: "options", Reason: "slack and perturbation must not be negative"})
	}
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		errs = append(errs, &core.ConfigError{Field: "http.port", Reason: fmt.Sprintf("port %d out of range", c.HTTP.Port)})
	}
	if c.DataDir == "" {
		errs = append(errs, &core.ConfigError{Field: "data_dir", Reason: "required"})
	}
	return errors.Join(errs...)
}

// Addr returns the HTTP listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.HTTP.Host, c.HTTP.Port)
}
