package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/vytor/sandplay/internal/dashboard"
)

var jsonOutput bool

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show the emotion recognition dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		c := newClient()
		return showSummary(ctx, cmd.OutOrStdout(), dashboard.NewLoader(c, c))
	},
}

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Show per-emotion progress and the feedback text",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		c := newClient()
		return showFeedback(ctx, cmd.OutOrStdout(), dashboard.NewLoader(c, c))
	},
}

func init() {
	summaryCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the view as JSON")
	feedbackCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the view as JSON")
}

func showSummary(ctx context.Context, w io.Writer, l *dashboard.Loader) error {
	state := l.Load(ctx)
	if jsonOutput {
		return writeIndented(w, state)
	}
	return dashboard.Render(w, state)
}

func showFeedback(ctx context.Context, w io.Writer, l *dashboard.Loader) error {
	state := l.LoadFeedback(ctx)
	if jsonOutput {
		return writeIndented(w, state)
	}
	return dashboard.RenderFeedback(w, state)
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
