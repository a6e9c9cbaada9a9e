package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

const defaultConfigPath = "~/.config/corview/config.json"

// Config holds user-editable settings.
type Config struct {
	Logging Logging `json:"logging"`
	Paths   Paths   `json:"paths"`
	Render  Render  `json:"render"`
	Server  Server  `json:"server"`
}

// Logging controls logging verbosity and output format.
type Logging struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // text, json
}

// Paths configures default output locations.
type Paths struct {
	DefaultOutput string `json:"default_output"`
	CatalogPath   string `json:"catalog_path"`
}

// Render configures the comparative artifact.
type Render struct {
	PanelWidth  int     `json:"panel_width"`
	PanelHeight int     `json:"panel_height"`
	Alpha       int     `json:"alpha"`       // 0-255 alpha for the composited slice
	WindowLow   float64 `json:"window_low"`  // low percentile for --window, fraction
	WindowHigh  float64 `json:"window_high"` // high percentile for --window, fraction
}

// Server configures the interactive session server.
type Server struct {
	Addr        string `json:"addr"`
	ArtifactDir string `json:"artifact_dir"`
}

// Load reads configuration from disk, falling back to sensible defaults.
func Load() (*Config, error) {
	cfg := defaultConfig()

	configPath := os.Getenv("CORVIEW_CONFIG")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	expanded, err := expandUser(configPath)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(expanded)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	if err := dec.Decode(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
		Paths: Paths{
			DefaultOutput: "./output",
			CatalogPath:   filepath.Join(os.TempDir(), "corview.db"),
		},
		Render: Render{
			PanelWidth:  500,
			PanelHeight: 500,
			Alpha:       255,
			WindowLow:   0.01,
			WindowHigh:  0.99,
		},
		Server: Server{
			Addr:        ":8080",
			ArtifactDir: "./output",
		},
	}
}

func expandUser(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	if path == "~" {
		return home, nil
	}

	return filepath.Join(home, path[2:]), nil
}
