package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vytor/sandplay/internal/client"
	"github.com/vytor/sandplay/internal/models"
	"github.com/vytor/sandplay/internal/services"
)

var (
	analyzeUser   string
	analyzePrompt string
	analyzeItems  string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <image>",
	Short: "Upload a sandbox image for analysis",
	Long: `Upload a JPEG or PNG sandbox image and print the caption and analysis.

--items takes a board export (the JSON downloaded from a board) so the
placed items are stored with the analysis.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		return analyze(ctx, newClient(), cmd.OutOrStdout(), args[0])
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeUser, "user", "u", "", "User id stored with the analysis")
	analyzeCmd.Flags().StringVarP(&analyzePrompt, "prompt", "p", "", "Focus for the analysis")
	analyzeCmd.Flags().StringVar(&analyzeItems, "items", "", "Board export JSON with the placed items")
}

func analyze(ctx context.Context, a services.Analyzer, out io.Writer, path string) error {
	img, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	req := client.AnalyzeRequest{
		Image:    img,
		Filename: filepath.Base(path),
		UserID:   analyzeUser,
		Prompt:   analyzePrompt,
	}
	if analyzeItems != "" {
		if req.Items, err = readItems(analyzeItems); err != nil {
			return fmt.Errorf("read items: %w", err)
		}
	}

	res, err := a.AnalyzeSandbox(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Caption: %s\n\n%s\n", res.Caption, res.Analysis)
	return nil
}

// readItems accepts either a bare item list or a board export with an
// "items" field.
func readItems(path string) ([]models.PlacedItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []models.PlacedItem
	if err := json.Unmarshal(data, &items); err == nil {
		return items, nil
	}
	var scene struct {
		Items []models.PlacedItem `json:"items"`
	}
	if err := json.Unmarshal(data, &scene); err != nil {
		return nil, err
	}
	return scene.Items, nil
}
