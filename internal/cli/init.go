package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/apothecary/internal/httpapi"
	"github.com/mesh-intelligence/apothecary/internal/logging"
	"github.com/mesh-intelligence/apothecary/internal/paths"
	"github.com/mesh-intelligence/apothecary/internal/sqlite"
	"github.com/mesh-intelligence/apothecary/pkg/aggregate"
	"github.com/mesh-intelligence/apothecary/pkg/types"
)

// configFile holds the structure written to config.yaml.
type configFile struct {
	Backend     string            `yaml:"backend"`
	DataDir     string            `yaml:"data_dir,omitempty"`
	Log         logSection        `yaml:"log"`
	Server      serverSection     `yaml:"server"`
	Aggregation aggregationConfig `yaml:"aggregation"`
}

type logSection struct {
	Mode  string `yaml:"mode"`
	Level string `yaml:"level"`
}

type serverSection struct {
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"cors_origins,omitempty"`
}

type aggregationConfig struct {
	Mode string `yaml:"mode"`
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize apothecary storage",
		Long:  "Create configuration and data directories, then initialize the storage backend.",
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	s, err := resolveSettings()
	if err != nil {
		return classify(err)
	}

	if err := os.MkdirAll(s.ConfigDir, 0o755); err != nil {
		return classify(fmt.Errorf("create config directory: %w", err))
	}

	written, err := writeConfigIfMissing(paths.ConfigFile(s.ConfigDir), flags.dataDir)
	if err != nil {
		return classify(fmt.Errorf("write config: %w", err))
	}

	backend := sqlite.NewBackend(nil)
	if err := backend.Attach(types.Config{Backend: s.Backend, DataDir: s.DataDir}); err != nil {
		return classify(fmt.Errorf("initialize storage: %w", err))
	}
	if err := backend.Detach(); err != nil {
		return classify(fmt.Errorf("finalize storage: %w", err))
	}

	out := cmd.OutOrStdout()
	if written {
		fmt.Fprintf(out, "Wrote %s\n", paths.ConfigFile(s.ConfigDir))
	}
	fmt.Fprintf(out, "Apothecary initialized in %s\n", s.DataDir)
	return nil
}

// writeConfigIfMissing creates config.yaml with default values if the file
// does not exist. It reports whether it wrote the file.
func writeConfigIfMissing(path, dataDir string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	cfg := configFile{
		Backend:     types.BackendSQLite,
		DataDir:     dataDir,
		Log:         logSection{Mode: logging.ModeDevelopment, Level: "info"},
		Server:      serverSection{Addr: httpapi.DefaultAddr},
		Aggregation: aggregationConfig{Mode: string(aggregate.ModeEntity)},
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	return true, os.WriteFile(path, data, 0o644)
}
