package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"reachgraph/internal/config"
	"reachgraph/internal/errors"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "REACHGRAPH"

// Override keys. Each is a flag name and, upper-cased with dashes turned
// into underscores, an environment variable (REACHGRAPH_LOG_LEVEL).
const (
	keyInterval      = "interval"
	keyTimeout       = "timeout"
	keyMethod        = "method"
	keyMagnitude     = "magnitude"
	keyMaxConcurrent = "max-concurrent"
	keyListen        = "listen"
	keyLogLevel      = "log-level"
	keyLogFormat     = "log-format"
)

var overrideKeys = []string{
	keyInterval, keyTimeout, keyMethod, keyMagnitude, keyMaxConcurrent,
	keyListen, keyLogLevel, keyLogFormat,
}

// newViper returns a viper instance reading REACHGRAPH_* variables and the
// override flags present in flags
func newViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags == nil {
		return v, nil
	}
	for _, key := range overrideKeys {
		f := flags.Lookup(key)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", key, err)
		}
	}
	return v, nil
}

// applyOverrides copies every set flag or environment value onto cfg and
// validates the result
func applyOverrides(v *viper.Viper, cfg *config.Config) error {
	if v.IsSet(keyInterval) {
		d, err := config.ParseDuration(v.GetString(keyInterval))
		if err != nil {
			return fmt.Errorf("%s: %w", keyInterval, err)
		}
		cfg.Monitor.Interval = config.Duration(d)
	}
	if v.IsSet(keyTimeout) {
		d, err := config.ParseDuration(v.GetString(keyTimeout))
		if err != nil {
			return fmt.Errorf("%s: %w", keyTimeout, err)
		}
		cfg.Monitor.Timeout = config.Duration(d)
	}
	if v.IsSet(keyMethod) {
		cfg.Monitor.Method = strings.ToLower(strings.TrimSpace(v.GetString(keyMethod)))
	}
	if v.IsSet(keyMagnitude) {
		cfg.Layout.Magnitude = v.GetFloat64(keyMagnitude)
	}
	if v.IsSet(keyMaxConcurrent) {
		cfg.Monitor.MaxConcurrent = v.GetInt(keyMaxConcurrent)
	}
	if v.IsSet(keyListen) {
		cfg.Server.Listen = v.GetString(keyListen)
	}
	if v.IsSet(keyLogLevel) {
		cfg.Logging.Level = v.GetString(keyLogLevel)
	}
	if v.IsSet(keyLogFormat) {
		cfg.Logging.Format = v.GetString(keyLogFormat)
	}
	return cfg.Validate()
}

// loadConfig reads the config file selected by --config or the search path
// and applies flag and environment overrides
func loadConfig(opts *globalOptions, flags *pflag.FlagSet) (*config.Config, string, error) {
	cfg, path, err := config.Load(opts.configPath)
	if err != nil {
		where := path
		if where == "" {
			where = "config file"
		}
		return nil, path, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to load "+where,
			"Check the YAML syntax, or run 'reachgraph config init' to write a fresh config")
	}

	v, err := newViper(flags)
	if err != nil {
		return nil, path, errors.WrapWithCode(err, errors.ErrConfig, "Failed to read overrides", "")
	}
	if err := applyOverrides(v, cfg); err != nil {
		return nil, path, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid setting",
			"Check the command flags and "+EnvPrefix+"_* environment variables")
	}
	return cfg, path, nil
}
