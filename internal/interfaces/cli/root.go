// Package cli wires the patentbase commands: serve, ingest and status.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/patentbase-io/patentbase/internal/config"
	"github.com/patentbase-io/patentbase/internal/infrastructure/monitoring/logging"
	"github.com/patentbase-io/patentbase/pkg/errors"
)

var configPath string

// NewRootCommand assembles the command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "patentbase",
		Short:         "Patent ingestion and natural-language query service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (YAML); environment only when omitted")

	root.AddCommand(newServeCommand())
	root.AddCommand(newIngestCommand())
	root.AddCommand(newStatusCommand())
	return root
}

// Execute runs the command tree and maps the failure to the documented
// process exit code: 0 success, 1 configuration/credential, 2 warehouse,
// 3 local store.
func Execute() int {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "patentbase:", err)
		return errors.ExitCode(err)
	}
	return errors.ExitOK
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	return config.LoadFromEnv()
}

func newLogger(cfg *config.Config) (logging.Logger, error) {
	logger, err := logging.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeConfiguration, "build logger")
	}
	return logger, nil
}
