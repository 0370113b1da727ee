package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// SchedulerConfig sets the scheduling clock
type SchedulerConfig struct {
	BPM           float64 `json:"bpm,omitempty"`
	BeatsPerCycle float64 `json:"beatsPerCycle,omitempty"`
	WindowMS      int     `json:"windowMs,omitempty"`
	LookaheadMS   int     `json:"lookaheadMs,omitempty"`
	Kit           string  `json:"kit,omitempty"`
}

// EngineConfig locates the synthesis server
type EngineConfig struct {
	Host       string `json:"host,omitempty"`
	Port       int    `json:"port,omitempty"`
	ListenPort int    `json:"listenPort,omitempty"` // where the server reports its clock
}

// FeedbackConfig defines the MIDI output that mirrors control changes
type FeedbackConfig struct {
	PortName string `json:"portName,omitempty"`
	Channel  int    `json:"channel,omitempty"`
}

// UIConfig stores UI preferences
type UIConfig struct {
	Palette string  `json:"palette,omitempty"` // path to a GIMP .gpl palette
	LastBPM float64 `json:"lastBpm,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Scheduler SchedulerConfig `json:"scheduler,omitempty"`
	Engine    EngineConfig    `json:"engine,omitempty"`
	Feedback  FeedbackConfig  `json:"feedback,omitempty"`
	UI        UIConfig        `json:"ui,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Scheduler: SchedulerConfig{
			BPM:           120,
			BeatsPerCycle: 4,
			WindowMS:      250,
			LookaheadMS:   100,
			Kit:           "default",
		},
		Engine: EngineConfig{
			Host:       "127.0.0.1",
			Port:       57120,
			ListenPort: 57121,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-pattern"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found.
// Fields missing from the file keep their default values.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
