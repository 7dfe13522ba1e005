package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the configuration for the application
type Config struct {
	DBPath      string   `mapstructure:"db_path"`      // Where the index lives.
	Editor      string   `mapstructure:"editor"`       // Editor to open the notes with
	Viewer      string   `mapstructure:"viewer"`       // Read-only viewer for notes
	Extensions  []string `mapstructure:"extensions"`   // Extensions of notes to be indexed
	ResultLimit int      `mapstructure:"result_limit"` // Max hits shown per query
	LogFile     string   `mapstructure:"log_file"`     // Session log, the terminal belongs to the UI
	LogLevel    string   `mapstructure:"log_level"`
}

// NewViper returns a viper instance with defaults and environment bindings
// (MDQ_DB_PATH, MDQ_EDITOR, ...). Editor and viewer also honour $EDITOR and
// $PAGER.
func NewViper() *viper.Viper {
	v := viper.New()

	homedir, _ := os.UserHomeDir()
	v.SetDefault("db_path", "~/.mdq-data")
	v.SetDefault("editor", "vim")
	v.SetDefault("viewer", "less")
	v.SetDefault("extensions", []string{".md"})
	v.SetDefault("result_limit", 100)
	v.SetDefault("log_file", filepath.Join(homedir, ".config", "mdq", "debug.log"))
	v.SetDefault("log_level", "warn")

	v.SetEnvPrefix("mdq")
	v.AutomaticEnv()
	_ = v.BindEnv("editor", "MDQ_EDITOR", "EDITOR")
	_ = v.BindEnv("viewer", "MDQ_VIEWER", "PAGER")

	return v
}

// DefaultConfigFile is read when no --config flag is given.
func DefaultConfigFile() string {
	homedir, _ := os.UserHomeDir()
	return filepath.Join(homedir, ".config", "mdq", "config.yaml")
}

// NewConfig reads configFile into v and returns the validated result. The
// default config file may be missing; an explicitly named one may not.
func NewConfig(v *viper.Viper, configFile string) (*Config, error) {
	explicit := configFile != ""
	if !explicit {
		configFile = DefaultConfigFile()
	}
	v.SetConfigFile(configFile)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
		if explicit || !missing {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to parse the config file: %w", err)
	}

	var err error
	if config.DBPath, err = ExpandHome(config.DBPath); err != nil {
		return nil, err
	}
	if config.LogFile, err = ExpandHome(config.LogFile); err != nil {
		return nil, err
	}
	config.Extensions = normalizeExtensions(config.Extensions)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Validate() error {
	switch {
	case c.DBPath == "":
		return errors.New("config: db_path is empty")
	case strings.TrimSpace(c.Editor) == "":
		return errors.New("config: editor is empty")
	case strings.TrimSpace(c.Viewer) == "":
		return errors.New("config: viewer is empty")
	case len(c.Extensions) == 0:
		return errors.New("config: no note extensions")
	case c.ResultLimit <= 0:
		return fmt.Errorf("config: result_limit must be positive, got %d", c.ResultLimit)
	}
	return nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	homedir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", path, err)
	}
	return filepath.Join(homedir, strings.TrimPrefix(path, "~")), nil
}

// normalizeExtensions makes every extension start with a dot and drops
// empty entries.
func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}
