package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env     string        `yaml:"env" env:"APP_ENV" env-default:"local"`
	Issuer  IssuerConfig  `yaml:"issuer"`
	Session SessionConfig `yaml:"session"`
	Store   StoreConfig   `yaml:"store"`
}

type IssuerConfig struct {
	BaseURL string        `yaml:"base_url" env:"ISSUER_BASE_URL" validate:"required,url"`
	Timeout time.Duration `yaml:"timeout" env:"ISSUER_TIMEOUT" env-default:"10s"`
}

type SessionConfig struct {
	// RefreshSkew is the proactive refresh window. It must stay below the
	// access-token lifetime handed out by the issuing service.
	RefreshSkew time.Duration `yaml:"refresh_skew" env:"SESSION_REFRESH_SKEW" env-default:"5m"`
}

type StoreConfig struct {
	Backend  string      `yaml:"backend" env:"STORE_BACKEND" env-default:"file" validate:"oneof=memory file redis"`
	FilePath string      `yaml:"file_path" env:"STORE_FILE_PATH" env-default:".aeroprep"`
	Redis    RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password  string `yaml:"password" env:"REDIS_PASSWORD"`
	DB        int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
	KeyPrefix string `yaml:"key_prefix" env:"REDIS_KEY_PREFIX" env-default:"aeroprep"`
}

// MustLoad reads and validates the config, exiting on failure.
func MustLoad() *Config {
	cfg, err := Load(fetchConfigPath())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return cfg
}

// Load reads the config from the given yaml file (optional) plus environment
// variables, then validates it.
func Load(configPath string) (*Config, error) {
	var cfg Config

	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return nil, fmt.Errorf("config file %q does not exist", configPath)
		}
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config %q: %w", configPath, err)
		}
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read config from environment: %w", err)
		}
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// fetchConfigPath fetches the config path from the command line flag or the
// CONFIG_PATH environment variable. Flag takes priority.
func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
