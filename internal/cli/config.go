package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/lariat-go/lariat/cwp"
)

// Config holds the server connection settings.
type Config struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// DefaultConfigName is looked up in the user's home directory when no
// --config flag is given.
const DefaultConfigName = ".lariat.yaml"

// LoadConfig resolves connection settings. Precedence: explicit config
// file, then ~/.lariat.yaml if present, then environment variables
// (LARIAT_URL, LARIAT_USERNAME, LARIAT_PASSWORD), with a .env file
// feeding the environment when one exists.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	explicit := path != ""
	if !explicit {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, DefaultConfigName)
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case explicit:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	// godotenv only fills variables not already set; a missing .env is
	// not an error.
	_ = godotenv.Load()

	if v := os.Getenv("LARIAT_URL"); cfg.URL == "" {
		cfg.URL = v
	}
	if v := os.Getenv("LARIAT_USERNAME"); cfg.Username == "" {
		cfg.Username = v
	}
	if v := os.Getenv("LARIAT_PASSWORD"); cfg.Password == "" {
		cfg.Password = v
	}

	if cfg.URL == "" {
		return nil, fmt.Errorf("no server URL: set url in a config file or LARIAT_URL")
	}
	return cfg, nil
}

// Client builds the protocol client the config describes.
func (c *Config) Client(opts ...cwp.Option) (*cwp.Client, error) {
	return cwp.NewClient(c.URL, c.Username, c.Password, opts...)
}
