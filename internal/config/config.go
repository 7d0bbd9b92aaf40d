package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config captures the settings backer needs to reach the platform API.
type Config struct {
	APIURL         string
	WSURL          string // empty means derive from APIURL
	Token          string
	LogFile        string
	ExportDir      string
	RequestTimeout time.Duration
	PollInterval   time.Duration
}

// Environment variables that override the config file.
const (
	EnvToken  = "BACKER_TOKEN"
	EnvAPIURL = "BACKER_API_URL"
)

const (
	defaultConfigPath     = "~/.config/backer/config.toml"
	defaultAPIURL         = "http://127.0.0.1:8000/api"
	defaultLogFile        = "~/.local/state/backer/backer.log"
	defaultExportDir      = "~/Downloads"
	defaultRequestTimeout = 10 * time.Second
	defaultPollInterval   = 15 * time.Second
)

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return defaultConfigPath
}

// Load locates and parses the backer config, falling back to defaults when
// missing. Environment overrides are applied last.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		APIURL:         defaultAPIURL,
		LogFile:        mustExpand(defaultLogFile),
		ExportDir:      mustExpand(defaultExportDir),
		RequestTimeout: defaultRequestTimeout,
		PollInterval:   defaultPollInterval,
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIURL         string `toml:"api_url"`
		WSURL          string `toml:"ws_url"`
		Token          string `toml:"token"`
		LogFile        string `toml:"log_file"`
		ExportDir      string `toml:"export_dir"`
		RequestTimeout string `toml:"request_timeout"`
		PollSeconds    int    `toml:"poll_seconds"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIURL); v != "" {
		cfg.APIURL = v
	}
	cfg.WSURL = strings.TrimSpace(raw.WSURL)
	cfg.Token = strings.TrimSpace(raw.Token)
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.ExportDir); v != "" {
		cfg.ExportDir = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.RequestTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse request_timeout: %w", err)
		}
		if d > 0 {
			cfg.RequestTimeout = d
		}
	}
	if raw.PollSeconds > 0 {
		cfg.PollInterval = time.Duration(raw.PollSeconds) * time.Second
	}

	applyEnv(&cfg)
	return cfg, nil
}

// LoadDotEnv loads KEY=value pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if strings.TrimSpace(path) == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvToken)); v != "" {
		cfg.Token = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		cfg.APIURL = v
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
