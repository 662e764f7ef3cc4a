// Package config loads the YAML configuration file and applies defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/engine"
	"github.com/ayusman/mudra/internal/interpret"
	"github.com/ayusman/mudra/internal/logging"
	"github.com/ayusman/mudra/internal/sensor"
)

const (
	appDir         = ".mudra"
	configFileName = "config.yaml"
	dbFileName     = "mudra.db"
	pluginsDirName = "plugins"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// CameraConfig selects the capture device.
type CameraConfig struct {
	Device int `yaml:"device"`
	FPS    int `yaml:"fps"`
}

// PipelineConfig controls the scheduler that feeds the engine.
type PipelineConfig struct {
	Tick time.Duration `yaml:"tick"`
}

// ServerConfig controls the local HTTP API.
type ServerConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

// TrayConfig controls the menu bar icon.
type TrayConfig struct {
	Enabled bool `yaml:"enabled"`
}

// ConsoleConfig controls the terminal status lines.
type ConsoleConfig struct {
	Enabled bool `yaml:"enabled"`
}

// PluginsConfig controls translation sinks.
type PluginsConfig struct {
	Enabled bool          `yaml:"enabled"`
	Dir     string        `yaml:"dir"`
	Timeout time.Duration `yaml:"timeout"`
}

// StoreConfig controls the history database.
type StoreConfig struct {
	Path       string `yaml:"path"`
	MaxHistory int    `yaml:"max_history"`
}

// Config is the whole application configuration.
type Config struct {
	Log         logging.Config   `yaml:"log"`
	Camera      CameraConfig     `yaml:"camera"`
	Pipeline    PipelineConfig   `yaml:"pipeline"`
	Sensor      sensor.Config    `yaml:"sensor"`
	Detector    detector.Config  `yaml:"detector"`
	Engine      engine.Config    `yaml:"engine"`
	Interpreter interpret.Config `yaml:"interpreter"`
	Server      ServerConfig     `yaml:"server"`
	Tray        TrayConfig       `yaml:"tray"`
	Console     ConsoleConfig    `yaml:"console"`
	Plugins     PluginsConfig    `yaml:"plugins"`
	Store       StoreConfig      `yaml:"store"`
}

// Dir returns the application data directory, ~/.mudra.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return appDir
	}
	return filepath.Join(home, appDir)
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(Dir(), configFileName)
}

// Default returns the built-in configuration.
func Default() Config {
	dir := Dir()
	return Config{
		Log:         logging.DefaultConfig(),
		Camera:      CameraConfig{Device: 0, FPS: 30},
		Pipeline:    PipelineConfig{Tick: 30 * time.Millisecond},
		Sensor:      sensor.DefaultConfig(),
		Detector:    detector.DefaultConfig(),
		Engine:      engine.DefaultConfig(),
		Interpreter: interpret.DefaultConfig(),
		Server:      ServerConfig{Enabled: true, Addr: "127.0.0.1:8080"},
		Tray:        TrayConfig{Enabled: true},
		Console:     ConsoleConfig{Enabled: true},
		Plugins: PluginsConfig{
			Enabled: true,
			Dir:     filepath.Join(dir, pluginsDirName),
			Timeout: 5 * time.Second,
		},
		Store: StoreConfig{
			Path:       filepath.Join(dir, dbFileName),
			MaxHistory: 1000,
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := Decode(bytes.NewReader(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode reads YAML from r into cfg, keeping values the document does not
// mention. Unknown keys are rejected.
func Decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	cfg.Log.File = expandHome(cfg.Log.File)
	cfg.Detector.ScriptPath = expandHome(cfg.Detector.ScriptPath)
	cfg.Detector.PythonPath = expandHome(cfg.Detector.PythonPath)
	cfg.Server.StaticDir = expandHome(cfg.Server.StaticDir)
	cfg.Plugins.Dir = expandHome(cfg.Plugins.Dir)
	cfg.Store.Path = expandHome(cfg.Store.Path)
	return nil
}

// Validate reports the first invalid setting, wrapped in ErrInvalid.
func (c Config) Validate() error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

func (c Config) validate() error {
	if err := c.Engine.Validate(); err != nil {
		return err
	}
	if err := c.Sensor.Validate(); err != nil {
		return err
	}
	if err := c.Interpreter.ValidateSettings(); err != nil {
		return err
	}
	if c.Camera.Device < 0 {
		return fmt.Errorf("camera device %d: must not be negative", c.Camera.Device)
	}
	if c.Pipeline.Tick <= 0 {
		return fmt.Errorf("pipeline tick %s: must be positive", c.Pipeline.Tick)
	}
	if c.Pipeline.Tick >= c.Engine.HandsLostBuffer {
		return fmt.Errorf("pipeline tick %s: must be shorter than hands_lost_buffer %s", c.Pipeline.Tick, c.Engine.HandsLostBuffer)
	}
	if c.Detector.MaxHands < 1 {
		return fmt.Errorf("detector max_hands %d: must be at least 1", c.Detector.MaxHands)
	}
	if c.Server.Enabled && c.Server.Addr == "" {
		return fmt.Errorf("server addr: required when the server is enabled")
	}
	if c.Plugins.Enabled && c.Plugins.Timeout <= 0 {
		return fmt.Errorf("plugins timeout %s: must be positive", c.Plugins.Timeout)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store path: must not be empty")
	}
	if c.Store.MaxHistory < 0 {
		return fmt.Errorf("store max_history %d: must not be negative", c.Store.MaxHistory)
	}
	return nil
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	if c.Interpreter.APIKey != "" {
		c.Interpreter.APIKey = "********"
	}
	return c
}

// Marshal renders cfg as YAML.
func Marshal(cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return buf.Bytes(), nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
