package dashboard

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Render writes a plain-text version of s for terminals.
func Render(w io.Writer, s State) error {
	switch s.Status {
	case StatusError:
		_, err := fmt.Fprintf(w, "Error: %s\n", s.Err)
		return err
	case StatusEmpty, StatusLoading:
		_, err := fmt.Fprintln(w, "No data available yet. Play a few rounds first.")
		return err
	}
	v := s.View

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Emotion Vector Analysis Summary")
	for _, c := range v.Cards {
		fmt.Fprintf(tw, "%s:\t%s\n", c.Title, c.Value)
	}

	fmt.Fprintln(tw, "\nEmotion Recognition Matrix")
	fmt.Fprintf(tw, "\t%s\n", strings.Join(v.Emotions, "\t"))
	for i, row := range v.Matrix {
		label := ""
		if i < len(v.Emotions) {
			label = v.Emotions[i]
		}
		cells := make([]string, len(row))
		for j, c := range row {
			cells[j] = fmt.Sprint(c.Value)
			if c.Kind == CellCorrect {
				cells[j] = "[" + cells[j] + "]"
			}
		}
		fmt.Fprintf(tw, "%s\t%s\n", label, strings.Join(cells, "\t"))
	}

	fmt.Fprintln(tw, "\nEmotion Accuracy Analysis")
	for _, r := range v.Accuracy {
		flag := ""
		if r.NeedsTraining {
			flag = "Needs training"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d/%d correct\t%s\n", r.Emotion, r.Display, r.Correct, r.Total, flag)
	}

	fmt.Fprintln(tw, "\nTraining Recommendations")
	for _, rec := range v.Recommendations {
		fmt.Fprintf(tw, "- %s\n", rec)
	}
	return tw.Flush()
}

// RenderFeedback writes a plain-text version of s for terminals.
func RenderFeedback(w io.Writer, s FeedbackState) error {
	switch s.Status {
	case StatusError:
		_, err := fmt.Fprintf(w, "Error: %s\n", s.Err)
		return err
	case StatusEmpty, StatusLoading:
		_, err := fmt.Fprintln(w, "No answers recorded yet.")
		return err
	}
	v := s.View

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Overall accuracy:\t%s (%d questions)\n", v.Overall, v.TotalQuestions)
	for _, r := range v.Rows {
		fmt.Fprintf(tw, "%s %s\t%d correct\t%d wrong\t%s\n", r.Emoji, r.Emotion, r.Correct, r.Wrong, r.Display)
	}
	fmt.Fprintf(tw, "\n%s\n", v.Feedback)
	return tw.Flush()
}
