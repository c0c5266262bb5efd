package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables read into Settings.
const EnvPrefix = "H2O"

// DefaultOutput is the run log path used when none is configured.
const DefaultOutput = "h2o.out"

// Settings are the ambient knobs around a run. They never affect the
// simulation itself.
type Settings struct {
	Output   string `mapstructure:"output"`
	Database string `mapstructure:"db"`
	Verbose  bool   `mapstructure:"verbose"`
}

// NewViper returns a viper instance with defaults and environment binding
// applied. If configFile is non-empty it is read as YAML; a missing file
// is an error because the operator asked for it explicitly.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault("output", DefaultOutput)
	v.SetDefault("db", "")
	v.SetDefault("verbose", false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}
	return v, nil
}

// LoadSettings decodes and validates Settings from v.
func LoadSettings(v *viper.Viper) (Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	if strings.TrimSpace(s.Output) == "" {
		return Settings{}, errors.New("output path must not be empty")
	}
	return s, nil
}
