// Package cmd implements zbdctl, a command-line front end for exercising
// the zone-adaptation layer against either a real zoned block device or
// the in-memory zonemem backend.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/behrlich/go-zbd/internal/logging"
)

var (
	cfgFile  string
	logLevel string
	logger   *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "zbdctl",
	Short: "Inspect, reset, and benchmark zoned block devices",
	Long: `zbdctl drives a zoned block device (or an in-memory stand-in) through
the same discovery, reset and write-pointer adjustment path a storage
benchmarking workload would use.

Commands:
  report   dump a device's zone table
  reset    reset one or more zones
  bench    run a synthetic workload and report write-pointer progress`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg := logging.DefaultConfig()
		if level := viper.GetString("log-level"); level != "" {
			if lvl, err := logging.ParseLevel(level); err == nil {
				cfg.Level = lvl
			}
		}
		logger = logging.NewLogger(cfg)
		logging.SetDefault(logger)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.zbdctl.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".zbdctl")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("$HOME")
		viper.AddConfigPath(".")
	}
	viper.SetEnvPrefix("ZBDCTL")
	viper.AutomaticEnv()
	// Absence of a config file is not an error: every setting has a flag
	// default, so we fall through to those.
	_ = viper.ReadInConfig()
}
