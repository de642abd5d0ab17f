package util

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const Name = "windlass"
const ConfigFileName = "config.yaml"

//go:embed config_default.yaml
var embeddedConfig []byte

type AppConfig struct {
	Conf struct {
		Host              string        `yaml:"host"`
		HttpPort          int           `yaml:"httpPort"`
		PublicHost        string        `yaml:"publicHost"`
		Username          string        `yaml:"username"`
		DisplayName       string        `yaml:"displayName"`
		Bio               string        `yaml:"bio"`
		Language          string        `yaml:"language"`
		SiteTitle         string        `yaml:"siteTitle"`
		DbPath            string        `yaml:"dbPath"`
		KeyringDir        string        `yaml:"keyringDir"`
		RequireSignatures bool          `yaml:"requireSignatures"`
		AutoReciprocate   bool          `yaml:"autoReciprocate"`
		ReciprocateDelay  time.Duration `yaml:"reciprocateDelay"`
		AllowMissingKeys  bool          `yaml:"allowMissingKeys"`
	}
}

// BaseURL is the https origin the instance publishes under, without a
// trailing slash.
func (c *AppConfig) BaseURL() string {
	return "https://" + c.Conf.PublicHost
}

// ActorURL returns the canonical actor id for the configured user.
func (c *AppConfig) ActorURL() string {
	return fmt.Sprintf("%s/api/users/%s", c.BaseURL(), c.Conf.Username)
}

// SiteActorURL returns the application-level actor id used for
// instance-wide signing.
func (c *AppConfig) SiteActorURL() string {
	return c.BaseURL() + "/actor"
}

func ReadConf() (*AppConfig, error) {

	// A .env file next to the binary is honored but never required.
	_ = godotenv.Load()

	c := &AppConfig{}

	configPath := ResolveFilePath(ConfigFileName)

	buf, err := os.ReadFile(configPath)
	if err != nil {
		buf = embeddedConfig

		configDir, dirErr := GetConfigDir()
		if dirErr == nil {
			userConfigPath := configDir + "/" + ConfigFileName
			_ = os.WriteFile(userConfigPath, embeddedConfig, 0644)
		}
	}

	err = yaml.Unmarshal(buf, c)
	if err != nil {
		return nil, fmt.Errorf("in config file: %w", err)
	}

	applyEnvOverrides(c)

	if c.Conf.PublicHost == "" {
		return nil, fmt.Errorf("publicHost must be set")
	}
	if c.Conf.Username == "" {
		return nil, fmt.Errorf("username must be set")
	}

	return c, nil
}

func applyEnvOverrides(c *AppConfig) {
	if v := os.Getenv("WINDLASS_HOST"); v != "" {
		c.Conf.Host = v
	}
	if v := os.Getenv("WINDLASS_HTTPPORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Conf.HttpPort = port
		}
	}
	if v := os.Getenv("WINDLASS_PUBLICHOST"); v != "" {
		c.Conf.PublicHost = v
	}
	if v := os.Getenv("WINDLASS_USERNAME"); v != "" {
		c.Conf.Username = v
	}
	if v := os.Getenv("WINDLASS_DISPLAYNAME"); v != "" {
		c.Conf.DisplayName = v
	}
	if v := os.Getenv("WINDLASS_BIO"); v != "" {
		c.Conf.Bio = v
	}
	if v := os.Getenv("WINDLASS_LANGUAGE"); v != "" {
		c.Conf.Language = v
	}
	if v := os.Getenv("WINDLASS_SITETITLE"); v != "" {
		c.Conf.SiteTitle = v
	}
	if v := os.Getenv("WINDLASS_DBPATH"); v != "" {
		c.Conf.DbPath = v
	}
	if v := os.Getenv("WINDLASS_KEYRINGDIR"); v != "" {
		c.Conf.KeyringDir = v
	}
	if v := os.Getenv("WINDLASS_REQUIRE_SIGNATURES"); v != "" {
		c.Conf.RequireSignatures = v == "true"
	}
	if v := os.Getenv("WINDLASS_AUTO_RECIPROCATE"); v != "" {
		c.Conf.AutoReciprocate = v == "true"
	}
	if v := os.Getenv("WINDLASS_RECIPROCATE_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Conf.ReciprocateDelay = d
		}
	}
	if v := os.Getenv("WINDLASS_ALLOW_MISSING_KEYS"); v == "true" {
		c.Conf.AllowMissingKeys = true
	}
}
