// Package settings is the dotted-path configuration store read by the
// client factory and the CLI. Values come from, in order of precedence,
// explicit Set calls, RESTCRUD_* environment variables (including those
// loaded from .env files), the config file and defaults.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fivetwenty-io/restcrud/internal/constants"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Option configures Settings.
type Option func(*Settings)

// WithConfigFile reads path instead of searching the config directory.
func WithConfigFile(path string) Option {
	return func(s *Settings) {
		s.configFile = path
	}
}

// WithConfigDir sets the directory searched for config.yml. Defaults to
// $HOME/.restcrud.
func WithConfigDir(dir string) Option {
	return func(s *Settings) {
		s.configDir = dir
	}
}

// WithEnvFiles sets the .env files loaded into the environment. Earlier
// files take precedence. Defaults to .env.local and .env.
func WithEnvFiles(files ...string) Option {
	return func(s *Settings) {
		s.envFiles = files
	}
}

// WithEnvPrefix overrides the RESTCRUD environment prefix.
func WithEnvPrefix(prefix string) Option {
	return func(s *Settings) {
		s.envPrefix = prefix
	}
}

// Settings wraps a viper instance.
type Settings struct {
	v          *viper.Viper
	configFile string
	configDir  string
	envFiles   []string
	envPrefix  string
}

// New creates settings. Nothing is read until Load.
func New(opts ...Option) *Settings {
	s := &Settings{
		v:         viper.New(),
		envFiles:  []string{".env.local", ".env"},
		envPrefix: constants.EnvPrefix,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.v.SetEnvPrefix(s.envPrefix)
	s.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	s.v.AutomaticEnv()

	return s
}

// Load reads .env files and the config file. Missing files are not an
// error.
func (s *Settings) Load() error {
	for _, file := range s.envFiles {
		err := godotenv.Load(file)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", file, err)
		}
	}

	if s.configFile != "" {
		s.v.SetConfigFile(s.configFile)
	} else {
		dir := s.configDir
		if dir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("finding home directory: %w", err)
			}

			dir = filepath.Join(home, constants.ConfigDirName)
		}

		s.v.AddConfigPath(dir)
		s.v.SetConfigName(constants.ConfigFileName)
		s.v.SetConfigType("yml")
	}

	err := s.v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil
		}

		return fmt.Errorf("reading config: %w", err)
	}

	return nil
}

// Get returns the value at a dotted path, or def when it is not set.
func (s *Settings) Get(path string, def any) any {
	if !s.v.IsSet(path) {
		return def
	}

	return s.v.Get(path)
}

// GetString returns the string at path, or def when it is unset or empty.
func (s *Settings) GetString(path, def string) string {
	value := s.v.GetString(path)
	if value == "" {
		return def
	}

	return value
}

// Set overrides a value.
func (s *Settings) Set(path string, value any) {
	s.v.Set(path, value)
}

// SetDefault sets the fallback for a path.
func (s *Settings) SetDefault(path string, value any) {
	s.v.SetDefault(path, value)
}

// APIURL returns api.url.
func (s *Settings) APIURL() string {
	return s.v.GetString(constants.SettingAPIURL)
}

// StorageLocation returns storage.location.
func (s *Settings) StorageLocation() string {
	return s.v.GetString(constants.SettingStorageLocation)
}

// ConfigFileUsed returns the path of the config file read by Load, if any.
func (s *Settings) ConfigFileUsed() string {
	return s.v.ConfigFileUsed()
}

// AllSettings returns the merged settings tree.
func (s *Settings) AllSettings() map[string]any {
	return s.v.AllSettings()
}

// Viper exposes the underlying instance, e.g. for binding cobra flags.
func (s *Settings) Viper() *viper.Viper {
	return s.v
}

// Save writes the current settings to the config file, creating its
// directory.
func (s *Settings) Save() error {
	path := s.configFile
	if path == "" {
		path = s.v.ConfigFileUsed()
	}

	if path == "" {
		dir := s.configDir
		if dir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("finding home directory: %w", err)
			}

			dir = filepath.Join(home, constants.ConfigDirName)
		}

		path = filepath.Join(dir, constants.ConfigFileName+".yml")
	}

	err := os.MkdirAll(filepath.Dir(path), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	err = s.v.WriteConfigAs(path)
	if err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	err = os.Chmod(path, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("setting config permissions: %w", err)
	}

	return nil
}
