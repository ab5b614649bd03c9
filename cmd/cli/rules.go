package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var reloadRulesCmd = &cobra.Command{
	Use:   "reload-rules",
	Short: "Reloads the service's custom review rules from disk",
	RunE: func(_ *cobra.Command, _ []string) error {
		client := newAPIClient(viper.GetString("SERVER_URL"), 30*time.Second)

		if _, err := client.postJSON("/api/v1/rules/reload", nil); err != nil {
			return fmt.Errorf("failed to reload rules: %w", err)
		}
		color.Green("Custom rules reloaded.")
		return nil
	},
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	rootCmd.AddCommand(reloadRulesCmd)
}
