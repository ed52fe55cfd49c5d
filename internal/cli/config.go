// Config loading for the apothecary CLI.
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/apothecary/internal/httpapi"
	"github.com/mesh-intelligence/apothecary/internal/logging"
	"github.com/mesh-intelligence/apothecary/internal/paths"
	"github.com/mesh-intelligence/apothecary/pkg/aggregate"
	"github.com/mesh-intelligence/apothecary/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	envPrefix      = "APOTHECARY"
)

// Config keys.
const (
	cfgKeyBackend         = "backend"
	cfgKeyDataDir         = "data_dir"
	cfgKeyLogMode         = "log.mode"
	cfgKeyLogLevel        = "log.level"
	cfgKeyServerAddr      = "server.addr"
	cfgKeyCORSOrigins     = "server.cors_origins"
	cfgKeyAggregationMode = "aggregation.mode"
)

// envKeys are overridable through APOTHECARY_* variables. data_dir is
// resolved by the paths package so that config.yaml wins over the env.
var envKeys = []string{
	cfgKeyBackend,
	cfgKeyLogMode,
	cfgKeyLogLevel,
	cfgKeyServerAddr,
	cfgKeyCORSOrigins,
	cfgKeyAggregationMode,
}

// settings is the fully resolved configuration of one invocation.
type settings struct {
	ConfigDir       string
	DataDir         string
	Backend         string
	LogMode         string
	LogLevel        string
	ServerAddr      string
	CORSOrigins     []string
	AggregationMode aggregate.Mode
}

// loadConfig reads config.yaml from configDir using Viper. A missing
// config.yaml is not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeyLogMode, logging.ModeDevelopment)
	v.SetDefault(cfgKeyLogLevel, "info")
	v.SetDefault(cfgKeyServerAddr, httpapi.DefaultAddr)
	v.SetDefault(cfgKeyAggregationMode, string(aggregate.ModeEntity))

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// resolveSettings combines flags, config.yaml, and the environment.
func resolveSettings() (settings, error) {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return settings{}, fmt.Errorf("resolve config dir: %w", err)
	}

	v, err := loadConfig(configDir)
	if err != nil {
		return settings{}, err
	}

	dataDir, err := paths.ResolveDataDir(flags.dataDir, v.GetString(cfgKeyDataDir))
	if err != nil {
		return settings{}, fmt.Errorf("resolve data dir: %w", err)
	}

	mode, err := aggregate.ParseMode(v.GetString(cfgKeyAggregationMode))
	if err != nil {
		return settings{}, fmt.Errorf("%s: %w", cfgKeyAggregationMode, err)
	}

	return settings{
		ConfigDir:       configDir,
		DataDir:         dataDir,
		Backend:         v.GetString(cfgKeyBackend),
		LogMode:         v.GetString(cfgKeyLogMode),
		LogLevel:        v.GetString(cfgKeyLogLevel),
		ServerAddr:      v.GetString(cfgKeyServerAddr),
		CORSOrigins:     v.GetStringSlice(cfgKeyCORSOrigins),
		AggregationMode: mode,
	}, nil
}
