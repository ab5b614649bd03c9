package main

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var waitForRun bool

var reviewCmd = &cobra.Command{
	Use:   "review <pr-id>",
	Short: "Triggers a fresh review run for a recorded pull request",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
			return fmt.Errorf("pr-id must be a number, got %q", args[0])
		}

		// Waiting keeps the request open for the whole run.
		timeout := 30 * time.Second
		path := "/api/v1/prs/" + args[0] + "/review"
		if waitForRun {
			timeout = 15 * time.Minute
			path += "?wait=1"
		}
		client := newAPIClient(viper.GetString("SERVER_URL"), timeout)

		var resp struct {
			Status        string `json:"status"`
			PR            string `json:"pr"`
			FilesReviewed int    `json:"files_reviewed"`
			FilesSkipped  int    `json:"files_skipped"`
			Suggestions   int    `json:"suggestions"`
			Error         string `json:"error"`
		}
		code, err := client.postJSON(path, &resp)
		if err != nil {
			if code == http.StatusConflict {
				color.Yellow("A review is already in progress for this pull request.")
				return nil
			}
			return fmt.Errorf("failed to trigger review: %w", err)
		}

		switch resp.Status {
		case "queued", "running":
			color.Cyan("Review %s for %s.", resp.Status, resp.PR)
		case "succeeded":
			color.Green("Review of %s succeeded: %d files reviewed, %d suggestions.",
				resp.PR, resp.FilesReviewed, resp.Suggestions)
		case "partial":
			color.Yellow("Review of %s completed partially: %d files reviewed, %d skipped, %d suggestions.",
				resp.PR, resp.FilesReviewed, resp.FilesSkipped, resp.Suggestions)
		default:
			color.Red("Review of %s failed: %s", resp.PR, resp.Error)
		}
		return nil
	},
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	reviewCmd.Flags().BoolVarP(&waitForRun, "wait", "w", false, "Block until the review run completes")
	rootCmd.AddCommand(reviewCmd)
}
