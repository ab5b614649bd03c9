package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var suggestionsCmd = &cobra.Command{
	Use:   "suggestions <pr-id>",
	Short: "Shows the suggestions from the latest review run of a pull request",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
			return fmt.Errorf("pr-id must be a number, got %q", args[0])
		}
		client := newAPIClient(viper.GetString("SERVER_URL"), 30*time.Second)

		var suggestions []suggestion
		if err := client.getJSON("/api/v1/prs/"+args[0]+"/suggestions", &suggestions); err != nil {
			return fmt.Errorf("failed to retrieve suggestions: %w", err)
		}

		if len(suggestions) == 0 {
			color.Green("No suggestions. The latest run found nothing actionable.")
			return nil
		}

		for i, s := range suggestions {
			location := s.FilePath
			if s.LineNumber != nil {
				location = fmt.Sprintf("%s:%d", s.FilePath, *s.LineNumber)
			}
			fmt.Printf("%d. [%s/%s] %s\n", i+1, s.Type, colorSeverity(s.Severity), color.New(color.Bold).Sprint(s.Title))
			fmt.Printf("   %s\n", location)
			fmt.Printf("   %s\n", s.Description)
			if s.Suggestion != "" {
				fmt.Printf("   Suggestion: %s\n", s.Suggestion)
			}
			if s.GitHubURL != "" {
				fmt.Printf("   %s\n", color.BlueString(s.GitHubURL))
			}
			fmt.Println()
		}
		return nil
	},
}

func colorSeverity(severity string) string {
	switch severity {
	case "critical":
		return color.New(color.FgRed, color.Bold).Sprint(severity)
	case "high":
		return color.RedString(severity)
	case "medium":
		return color.YellowString(severity)
	case "low":
		return color.CyanString(severity)
	}
	return severity
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	rootCmd.AddCommand(suggestionsCmd)
}
