package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
	"pkt.systems/perflog"
)

// FileConfig is the YAML configuration file.
type FileConfig struct {
	Metrics perflog.Options `yaml:"metrics"`
	Output  OutputConfig    `yaml:"output"`
	Serve   ServeConfig     `yaml:"serve"`
}

// OutputConfig selects how records are rendered.
type OutputConfig struct {
	Mode        string            `yaml:"mode"`
	Destination string            `yaml:"destination"`
	Palette     string            `yaml:"palette"`
	Profile     string            `yaml:"profile"`
	NoColor     bool              `yaml:"no_color"`
	ForceColor  bool              `yaml:"force_color"`
	Colors      map[string]string `yaml:"colors"`
}

// ServeConfig holds defaults for the serve command.
type ServeConfig struct {
	Addr           string        `yaml:"addr"`
	MaxSessions    int           `yaml:"max_sessions"`
	SessionTTL     time.Duration `yaml:"session_ttl"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

// LoadConfig reads a YAML configuration file, expanding environment
// variables in its content first. An empty path yields an empty
// configuration.
func LoadConfig(path string) (*FileConfig, error) {
	var cfg FileConfig
	if path == "" {
		return &cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("configuration file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// defaultEnvFiles are loaded when no --env-file is given. Missing files are
// not an error.
var defaultEnvFiles = []string{".env", ".env.local"}

// loadEnvFiles loads KEY=VALUE files into the process environment without
// overriding variables that are already set. Explicitly named files must
// exist.
func loadEnvFiles(files []string) ([]string, error) {
	explicit := len(files) > 0
	if !explicit {
		files = defaultEnvFiles
	}
	var loaded []string
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			if !explicit && errors.Is(err, os.ErrNotExist) {
				continue
			}
			return loaded, fmt.Errorf("env file %s: %w", file, err)
		}
		if err := godotenv.Load(file); err != nil {
			return loaded, fmt.Errorf("load env file %s: %w", file, err)
		}
		loaded = append(loaded, file)
	}
	return loaded, nil
}
