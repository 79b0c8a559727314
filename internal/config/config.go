// Package config loads inkstudio settings from an optional YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/inkstudio/inkstudio/internal/gemini"
	"github.com/inkstudio/inkstudio/internal/video"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no config file is given
const DefaultPath = "inkstudio.yaml"

// DefaultQuota approximates a browser's local storage allowance
const DefaultQuota = 5 * 1024 * 1024

type Config struct {
	Server  Server        `yaml:"server"`
	Log     Log           `yaml:"log"`
	Storage Storage       `yaml:"storage"`
	Video   Video         `yaml:"video"`
	Gemini  gemini.Config `yaml:"gemini"`
}

type Server struct {
	Port        string   `yaml:"port"`
	StaticDir   string   `yaml:"static_dir"`
	CORSOrigins []string `yaml:"cors_origins"`
	// MaxUploadBytes caps uploaded and downloaded source images
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
	// MaxProfiles and ProfileIdleTimeout bound the browser workspaces kept in memory
	MaxProfiles        int           `yaml:"max_profiles"`
	ProfileIdleTimeout time.Duration `yaml:"profile_idle_timeout"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Storage struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	// Quota caps the size of one stored library in bytes; 0 disables it
	Quota int `yaml:"quota"`
}

type Video struct {
	PollInterval    time.Duration `yaml:"poll_interval"`
	MessageInterval time.Duration `yaml:"message_interval"`
}

// Default returns the settings used when nothing is configured
func Default() Config {
	return Config{
		Server: Server{
			Port:               "8888",
			StaticDir:          "static",
			CORSOrigins:        []string{"http://localhost:8888"},
			MaxUploadBytes:     10 * 1024 * 1024,
			MaxProfiles:        1000,
			ProfileIdleTimeout: 24 * time.Hour,
		},
		Log:     Log{Level: "info", Format: "text"},
		Storage: Storage{Driver: "file", Path: "data", Quota: DefaultQuota},
		Video:   Video{PollInterval: video.DefaultInterval, MessageInterval: 4 * time.Second},
		Gemini:  gemini.DefaultConfig(),
	}
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path reads DefaultPath when it exists.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overrides settings from INKSTUDIO_* variables; PORT is honored
// for hosts that assign one.
func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := getenv("INKSTUDIO_PORT"); v != "" {
		c.Server.Port = v
	}
	if v := getenv("INKSTUDIO_STATIC_DIR"); v != "" {
		c.Server.StaticDir = v
	}
	if v := getenv("INKSTUDIO_CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = strings.Split(v, ",")
	}
	if v := getenv("INKSTUDIO_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("INKSTUDIO_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := getenv("INKSTUDIO_STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
	if v := getenv("INKSTUDIO_STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := getenv("INKSTUDIO_STORAGE_QUOTA"); v != "" {
		quota, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid INKSTUDIO_STORAGE_QUOTA: %w", err)
		}
		c.Storage.Quota = quota
	}
	if v := getenv("INKSTUDIO_VIDEO_POLL_INTERVAL"); v != "" {
		interval, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid INKSTUDIO_VIDEO_POLL_INTERVAL: %w", err)
		}
		c.Video.PollInterval = interval
	}
	if v := getenv("INKSTUDIO_GEMINI_BASE_URL"); v != "" {
		c.Gemini.BaseURL = v
	}
	return nil
}

// Validate rejects settings the server cannot start with
func (c Config) Validate() error {
	err := validation.Errors{
		"server": validation.ValidateStruct(&c.Server,
			validation.Field(&c.Server.Port, validation.Required),
			validation.Field(&c.Server.MaxUploadBytes, validation.Min(int64(1))),
			validation.Field(&c.Server.MaxProfiles, validation.Min(0)),
			validation.Field(&c.Server.ProfileIdleTimeout, validation.Min(time.Duration(0))),
		),
		"log": validation.ValidateStruct(&c.Log,
			validation.Field(&c.Log.Level, validation.In("debug", "info", "warn", "error")),
			validation.Field(&c.Log.Format, validation.In("text", "json")),
		),
		"storage": validation.ValidateStruct(&c.Storage,
			validation.Field(&c.Storage.Driver, validation.In("file", "sqlite", "memory")),
			validation.Field(&c.Storage.Path, validation.When(c.Storage.Driver != "memory", validation.Required)),
			validation.Field(&c.Storage.Quota, validation.Min(0)),
		),
		"video": validation.ValidateStruct(&c.Video,
			validation.Field(&c.Video.PollInterval, validation.Required, validation.Min(time.Millisecond)),
			validation.Field(&c.Video.MessageInterval, validation.Required, validation.Min(time.Millisecond)),
		),
	}.Filter()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
