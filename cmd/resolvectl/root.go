package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/denisAlshanov/mediaresolver/internal/config"
	"github.com/denisAlshanov/mediaresolver/internal/utils"
)

var (
	flagJSON  bool
	flagDebug bool
)

// cfg is loaded from the environment (and .env) before every command.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:               "resolvectl",
	Short:             "Operate the media resolver without the HTTP server",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "Print results as JSON")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "x", false, "Debug logging to stderr")

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(checkSessionCmd)
	rootCmd.AddCommand(pushCookiesCmd)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	utils.SetLogOutput(cmd.ErrOrStderr())
	if flagDebug {
		utils.SetLogLevel("debug")
	} else {
		utils.SetLogLevel("warn")
	}
	return nil
}
