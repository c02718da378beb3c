// Command sandplayctl talks to a running sandplay server from the terminal:
// it renders the dashboards, plays quiz rounds and uploads sandbox images.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vytor/sandplay/internal/client"
	"github.com/vytor/sandplay/internal/logger"
)

var (
	serverURL string
	timeout   time.Duration
	verbose   bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:           "sandplayctl",
	Short:         "Terminal client for the sandplay server",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := logger.WARN
		if verbose {
			level = logger.DEBUG
		}
		logger.SetDefault(logger.New(logger.WithLevel(level), logger.WithOutput(os.Stderr)))
	},
}

func init() {
	def := os.Getenv("SANDPLAY_URL")
	if def == "" {
		def = "http://localhost:8080"
	}
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", def, "Server base URL (or set SANDPLAY_URL)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(feedbackCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(healthCmd)
}

func newClient() *client.Client {
	return client.New(serverURL, client.WithTimeout(timeout))
}

// healthCmd checks that the server answers
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the server is up",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		h, err := newClient().Health(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", h.Status, h.Message)
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
