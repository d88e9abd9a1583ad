package main

import (
	"github.com/argus-labs/ecsquery/internal/logging"
	"github.com/argus-labs/ecsquery/pkg/ecsquery"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Config ecsquery.RegistryConfig
	Logger zerolog.Logger
}

// NewRootCommand creates the root command for the querysim CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "querysim",
		Short: "Exercise ECS queries under entity churn",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ecsquery.LoadRegistryConfig()
			if err != nil {
				return eris.Wrap(err, "failed to load config")
			}
			format, err := logging.LoadFormat()
			if err != nil {
				return err
			}
			opts.Config = cfg
			opts.Logger = logging.New(cmd.ErrOrStderr(), format, cfg.Level())
			return nil
		},
	}

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewKeysCommand(opts))

	return cmd
}
