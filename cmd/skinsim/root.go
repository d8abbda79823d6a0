package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vkngwrapper/avatarskin/config"
	"golang.org/x/exp/slog"
)

var (
	// Global flags
	configPath string
	verbose    bool
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "skinsim",
	Short: "Drive the avatar skinning resource managers without a GPU",
	Long: `skinsim runs the skinning atlases, the joint and weight ring buffers and the
frame scheduler against an in-memory device. It is used to size configurations
and to inspect how the resources behave over many frames.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "TOML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log errors")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	} else if quiet {
		level = slog.LevelError
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig returns the configuration named by --config, or the defaults
func loadConfig() (config.Configuration, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}
