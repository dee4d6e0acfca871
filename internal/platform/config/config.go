package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Client  ClientConfig  `mapstructure:"client"`
	Session SessionConfig `mapstructure:"session"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ClientConfig holds the origin short links are composed against. The server
// returns a path suffix, not an absolute URL.
type ClientConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type SessionConfig struct {
	CredentialPath string `mapstructure:"credential_path"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

func Load(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	applyDefaults(&config)
	return &config, nil
}

// Default is the configuration used when no config file exists.
func Default() *Config {
	config := &Config{}
	applyDefaults(config)
	return config
}

func applyDefaults(config *Config) {
	if config.API.BaseURL == "" {
		config.API.BaseURL = "http://localhost:8080"
	}
	if config.API.Timeout == 0 {
		config.API.Timeout = 15 * time.Second
	}
	if config.Client.BaseURL == "" {
		config.Client.BaseURL = config.API.BaseURL
	}
	if config.Session.CredentialPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		config.Session.CredentialPath = filepath.Join(home, ".tinytrail", "credential")
	}
	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}
	if config.Logging.Format == "" {
		config.Logging.Format = "text"
	}
}
