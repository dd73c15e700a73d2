package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

type Site struct {
	Name     string `mapstructure:"name"`
	URL      string `mapstructure:"url"`
	Provider string `mapstructure:"provider"`
	Root     string `mapstructure:"root"`
}

type Config struct {
	Sites      []Site `mapstructure:"sites"`
	MirrorDir  string `mapstructure:"mirror_dir"`
	DBPath     string `mapstructure:"db_path"`
	StatusPort int    `mapstructure:"status_port"`
}

var Default = Config{
	MirrorDir:  "mirror",
	DBPath:     "sitemirror.db",
	StatusPort: 9311,
}

func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home dir: %w", err)
	}

	configDir := filepath.Join(home, ".sitemirror")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config dir: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)

	viper.SetDefault("mirror_dir", filepath.Join(configDir, Default.MirrorDir))
	viper.SetDefault("db_path", filepath.Join(configDir, Default.DBPath))
	viper.SetDefault("status_port", Default.StatusPort)

	viper.SetEnvPrefix("SITEMIRROR")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if ok := errors.As(err, &notFound); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Select returns the configured sites matching the given names,
// or every site when names is empty.
func (c *Config) Select(names []string) ([]Site, error) {
	if len(names) == 0 {
		return c.Sites, nil
	}

	byName := make(map[string]Site, len(c.Sites))
	for _, site := range c.Sites {
		byName[site.Name] = site
	}

	selected := make([]Site, 0, len(names))
	for _, name := range names {
		site, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown site: %s", name)
		}
		selected = append(selected, site)
	}

	return selected, nil
}
