package main

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

var configEnforced bool

func init() {
	cmd := newConfigCmd()
	cmd.Flags().BoolVar(&configEnforced, "enforced", false, "Print the configuration after platform limits are applied")
	rootCmd.AddCommand(cmd)
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		Long: `The config command prints the configuration that would be used, with every
setting filled in, so it can be saved and edited.

Example:
  skinsim config > skinning.toml
  skinsim config --config skinning.toml --enforced`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfig()
		},
	}
}

func runConfig() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if configEnforced {
		logger := newLogger()
		for _, change := range cfg.Enforce() {
			logger.Warn(change)
		}
	}

	err = cfg.Validate()
	if err != nil {
		return errors.Wrap(err, "configuration is invalid")
	}

	data, err := cfg.Marshal()
	if err != nil {
		return err
	}

	_, err = os.Stdout.Write(data)
	return err
}
