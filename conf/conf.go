// Package conf loads osu2sm configuration.
//
// Scalar settings (seed, parallelism, logging) go through Viper so they
// can come from the config file, OSU2SM_* environment variables or
// flags. The pipeline graph itself is decoded separately from the same
// TOML file, because its tagged node tables need custom unmarshalling.
package conf

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/negamartin/osu2sm/errors"
)

// ConfigFileName is what the upward search looks for.
const ConfigFileName = "osu2sm.toml"

// Config holds the scalar run settings.
type Config struct {
	// Seed drives all pipeline randomness; 0 picks a fresh seed per run.
	Seed uint64 `mapstructure:"seed"`
	// Parallelism bounds the beatmapset worker pool; 0 means NumCPU.
	Parallelism int `mapstructure:"parallelism"`
	// Permissive skips beatmaps of the wrong gamemode instead of failing
	// their beatmapset.
	Permissive bool `mapstructure:"permissive"`

	Log LogConfig `mapstructure:"log"`
}

// LogConfig configures the logger.
type LogConfig struct {
	// Verbosity: 0 warnings, 1 info, 2+ debug.
	Verbosity int `mapstructure:"verbosity"`
	// JSON switches from the console encoder to structured JSON output.
	JSON bool `mapstructure:"json"`
}

// SetDefaults configures default values for all settings.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("seed", 0)
	v.SetDefault("parallelism", 0)
	v.SetDefault("permissive", true)
	v.SetDefault("log.verbosity", 1)
	v.SetDefault("log.json", false)
}

// Load reads configuration from the given file, or from the nearest
// osu2sm.toml found walking up from the working directory when path is
// empty. Environment variables with the OSU2SM_ prefix override file
// values.
func Load(path string) (*Config, string, error) {
	if path == "" {
		path = FindProjectConfig()
	}

	v := viper.New()
	v.SetEnvPrefix("OSU2SM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, "", errors.Wrapf(errors.ErrConfig, "reading %s: %v", path, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, "", errors.Wrapf(errors.ErrConfig, "unmarshalling config: %v", err)
	}
	return &config, path, nil
}

// FindProjectConfig searches for osu2sm.toml by walking up the directory
// tree from the working directory. Returns the empty string when none is
// found.
func FindProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		path := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
