// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/Cy8erEgo/repo-analyzer/internal/domain"
	"github.com/Cy8erEgo/repo-analyzer/internal/gateway"
	"github.com/Cy8erEgo/repo-analyzer/internal/usecase"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <url>",
	Short: "Collects repository statistics and outputs them as JSON",
	Long: `Collects statistics (commits, contributors, pull requests, issues) for
the repository at the given URL within an optional date range and branch,
and outputs the result in JSON format. Endpoints that could not be
fetched are reported under "failures" instead of aborting the run.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		// Get the verbose flag from the root command to set up the logger.
		verbose, _ := cmd.InheritedFlags().GetBool("verbose")
		logger := log.New(io.Discard, "", log.LstdFlags) // Default: discard all logs.
		if verbose {
			logger.SetOutput(os.Stderr) // If verbose, log to standard error.
		}

		branch, _ := cmd.Flags().GetString("branch")
		fromStr, _ := cmd.Flags().GetString("date-from")
		toStr, _ := cmd.Flags().GetString("date-to")
		top, _ := cmd.Flags().GetInt("top")
		leadTime, _ := cmd.Flags().GetBool("lead-time")

		// Input validation happens before any network call.
		repo, err := domain.ParseRepoURL(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		window, err := domain.ParseTimeWindow(fromStr, toStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		req := domain.QueryRequest{Repo: repo, Branch: branch, Window: window}

		// Credentials are read once here and passed in explicitly; nothing
		// deeper touches the environment.
		creds := gateway.Credentials{
			Login: os.Getenv("GITHUB_LOGIN"),
			Token: os.Getenv("GITHUB_TOKEN"),
		}
		if creds.Token == "" {
			fmt.Fprintln(os.Stderr, "Error: GITHUB_TOKEN environment variable is not set.")
			os.Exit(1)
		}

		githubGateway, err := gateway.NewGitHubGateway(creds, repo.Host, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create GitHub gateway: %v\n", err)
			os.Exit(1)
		}
		analyzer := usecase.NewAnalyzer(githubGateway, logger)

		report := analyzer.Run(ctx, req, usecase.Options{
			TopContributors: top,
			LeadTime:        leadTime,
		})

		jsonData, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to marshal report to JSON: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(jsonData))

		// A partially-failed report still exits zero; only a run where
		// every endpoint failed is an error.
		if report.AllFailed() {
			fmt.Fprintln(os.Stderr, "Error: all endpoints failed, no statistics collected.")
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringP("date-from", "s", "", "Start date of the analyzed time period (YYYY-MM-DD)")
	analyzeCmd.Flags().StringP("date-to", "e", "", "End date of the analyzed time period (YYYY-MM-DD)")
	analyzeCmd.Flags().StringP("branch", "b", "master", "Branch name")
	analyzeCmd.Flags().Int("top", 30, "Maximum number of top contributors to report")
	analyzeCmd.Flags().Bool("lead-time", false, "Also collect pull request lead time statistics")
}
