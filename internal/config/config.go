package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	defaultConfigFile = "/etc/cms-git-backend/config/config.yaml"
	envConfigFile     = "CMS_GIT_BACKEND_CONFIG"
)

type Config struct {
	Local    bool           `yaml:"local" json:"local" env:"CMS_PUBLIC_IS_LOCAL"`
	OIDC     OIDCConfig     `yaml:"oidc" json:"oidc"`
	Git      GitConfig      `yaml:"git" json:"git"`
	Database DatabaseConfig `yaml:"database" json:"database"`
	Session  SessionConfig  `yaml:"session" json:"session"`
	Server   ServerConfig   `yaml:"server" json:"server"`
}

// Load reads the YAML config file, applies environment overrides and
// validates the result. The default file may be absent when everything
// comes from the environment; an explicitly configured file may not.
func Load() (*Config, error) {
	fileName := defaultConfigFile
	explicit := false
	if fn := os.Getenv(envConfigFile); fn != "" {
		fileName = fn
		explicit = true
	}
	var cfg Config
	if err := decodeFile(fileName, &cfg); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.ValidateAndInitialize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decodeFile(fileName string, cfg *Config) error {
	f, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("failed to decode config file '%s': %w", fileName, err)
	}
	return nil
}

func (c *Config) ValidateAndInitialize() error {
	// Apply defaults.
	c.OIDC.applyDefaults()
	c.Git.applyDefaults()
	c.Database.applyDefaults(c.Git.Branch)
	c.Session.applyDefaults()
	c.Server.applyDefaults()

	// Validate required fields. Local mode never needs the identity provider,
	// but an incomplete OIDC section must not silently turn into local mode.
	if !c.Local {
		if err := c.OIDC.validate(); err != nil {
			return err
		}
	}
	if err := c.Git.validate(); err != nil {
		return err
	}
	if err := c.Database.validate(); err != nil {
		return err
	}

	return nil
}

func validateAbsoluteURL(field, s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", field, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL: %s", field, s)
	}
	return nil
}
