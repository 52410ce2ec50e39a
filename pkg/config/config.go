package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

type Config struct {
	APIToken                  string        `koanf:"api_token"`
	DatabaseBusyTimeout       time.Duration `koanf:"database_busy_timeout"`
	DatabaseConnectRetryCount int           `koanf:"database_connect_retry_count"`
	DatabaseConnectRetryDelay time.Duration `koanf:"database_connect_retry_delay"`
	DatabaseDebug             bool          `koanf:"database_debug"`
	DatabaseFilePath          string        `koanf:"database_file_path"`
	DatabaseMaxRetries        int           `koanf:"database_max_retries"`
	Hostname                  string        `koanf:"-"`
	MaxUploadBytes            int64         `koanf:"max_upload_bytes"`
	ServerHost                string        `koanf:"server_host"`
	ServerPort                int           `koanf:"server_port"`
	UploadDir                 string        `koanf:"upload_dir"`
}

const (
	configFileENV = "CONFIG_FILE"
	envPrefix     = "CLIPSHELF_"
)

// New loads the configuration in layers: built-in defaults, then an optional
// YAML config file pointed to by CONFIG_FILE, then CLIPSHELF_-prefixed
// environment variables.
func New() (*Config, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	cfg := &Config{
		DatabaseBusyTimeout:       5 * time.Second,
		DatabaseConnectRetryCount: 5,
		DatabaseConnectRetryDelay: 2 * time.Second,
		DatabaseMaxRetries:        5,
		Hostname:                  hostname,
		MaxUploadBytes:            100 * 1024 * 1024,
		ServerHost:                "127.0.0.1",
		ServerPort:                4690,
		UploadDir:                 "static/videos",
	}

	k := koanf.New(".")

	if path := os.Getenv(configFileENV); path != "" {
		err := k.Load(file.Provider(path), yaml.Parser())
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, errors.WithStack(err)
		}
	}

	err = k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.WithStack(err)
	}

	if cfg.DatabaseFilePath == "" {
		return nil, errors.New(missingRequired("DATABASE_FILE_PATH", "database_file_path"))
	}

	return cfg, nil
}

func missingRequired(envName, fileKey string) string {
	return fmt.Sprintf("missing required config: set %s%s or %s in the config file", envPrefix, envName, fileKey)
}
