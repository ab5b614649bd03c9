package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serverURL string

var rootCmd = &cobra.Command{
	Use:   "review-cli",
	Short: "review-cli is the command-line interface for the PR review service.",
	Long:  `A CLI for inspecting reviewed pull requests and triggering fresh review runs against a running review service.`,
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:8080", "Base URL of the review service")

	if err := viper.BindPFlag("SERVER_URL", rootCmd.PersistentFlags().Lookup("server")); err != nil {
		slog.Error("Error binding flag", "error", err)
		os.Exit(1)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	viper.SetEnvPrefix("PRRA")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}
