package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var outputJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Shows every pull request recorded by the review service",
	RunE: func(_ *cobra.Command, _ []string) error {
		client := newAPIClient(viper.GetString("SERVER_URL"), 30*time.Second)

		var prs []pullRequest
		if err := client.getJSON("/api/v1/prs", &prs); err != nil {
			return fmt.Errorf("failed to retrieve pull requests: %w", err)
		}

		if outputJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(prs)
		}

		if len(prs) == 0 {
			fmt.Println("No pull requests have been recorded yet.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tPULL REQUEST\tSTATUS\tAUTHOR\tFILES\tTITLE")
		for _, pr := range prs {
			fmt.Fprintf(w, "%d\t%s#%d\t%s\t%s\t%d\t%s\n",
				pr.ID,
				pr.Repository, pr.PRNumber,
				colorStatus(pr.Status),
				pr.Author,
				pr.FileCount,
				pr.Title,
			)
		}
		return w.Flush()
	},
}

func colorStatus(status string) string {
	switch status {
	case "open":
		return color.GreenString(status)
	case "merged":
		return color.MagentaString(status)
	case "closed":
		return color.RedString(status)
	}
	return status
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	statusCmd.Flags().BoolVar(&outputJSON, "json", false, "Output status as JSON")
	rootCmd.AddCommand(statusCmd)
}
