package main

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vytor/sandplay/internal/emotion"
	"github.com/vytor/sandplay/internal/models"
	"github.com/vytor/sandplay/internal/quiz"
)

var (
	playLabels    string
	playQuestions int
	playRounds    int
	playSeed      int64
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play emotion quiz rounds in the terminal",
	Long: `Play emotion recognition rounds in the terminal.

Answer with the option number or the emotion name. An empty line skips the
question and is recorded as unanswered. Each finished round is saved on the
server like a round played in the browser.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		labels, err := emotion.ParseSet(playLabels)
		if err != nil {
			return err
		}
		seed := playSeed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		engine, err := quiz.NewEngine(quiz.Config{
			Labels:            labels,
			QuestionsPerRound: playQuestions,
			Rand:              rand.New(rand.NewSource(seed)),
		})
		if err != nil {
			return err
		}
		c := newClient()
		return play(cmd.Context(), engine, c, cmd.InOrStdin(), cmd.OutOrStdout(), playRounds)
	},
}

func init() {
	playCmd.Flags().StringVar(&playLabels, "labels", "basic", "Label set: basic or extended")
	playCmd.Flags().IntVarP(&playQuestions, "questions", "n", 5, "Questions per round")
	playCmd.Flags().IntVarP(&playRounds, "rounds", "r", 1, "Rounds to play")
	playCmd.Flags().Int64Var(&playSeed, "seed", 0, "Random seed (0 picks one)")
}

// play drives rounds on engine from the lines of in and submits each finished
// round through sub.
func play(ctx context.Context, engine *quiz.Engine, sub quiz.Submitter, in io.Reader, out io.Writer, rounds int) error {
	scanner := bufio.NewScanner(in)
	for r := 0; r < rounds; r++ {
		if err := engine.StartRound(); err != nil && !stderrors.Is(err, quiz.ErrQuestionUnavailable) {
			return err
		}
		fmt.Fprintf(out, "Round %d\n", engine.State().Round)

		for engine.State().Phase == quiz.PhasePlaying {
			st := engine.State()
			if st.Current == nil {
				fmt.Fprintln(out, "Could not load a question, retrying.")
				if _, err := engine.Retry(); err != nil && !stderrors.Is(err, quiz.ErrQuestionUnavailable) {
					return err
				}
				continue
			}

			fmt.Fprintf(out, "\nQuestion %d/%d: which emotion is this? (%s)\n", st.Count+1, st.Total, emotion.Emoji(st.Current.CorrectAnswer))
			for i, o := range st.Current.Options {
				fmt.Fprintf(out, "  %d) %s\n", i+1, o)
			}
			fmt.Fprint(out, "> ")

			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return err
				}
				return io.ErrUnexpectedEOF
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				if err := engine.Timeout(); err != nil {
					return err
				}
				fmt.Fprintf(out, "Skipped. It was %s.\n", st.Current.CorrectAnswer)
			} else {
				correct, err := engine.SubmitAnswer(pickOption(st.Current.Options, line))
				if stderrors.Is(err, quiz.ErrInvalidOption) {
					fmt.Fprintln(out, "Pick one of the listed options.")
					continue
				}
				if err != nil {
					return err
				}
				if correct {
					fmt.Fprintln(out, "Correct!")
				} else {
					fmt.Fprintf(out, "Not quite, it was %s.\n", st.Current.CorrectAnswer)
				}
			}

			result, err := engine.Advance()
			if err != nil && !stderrors.Is(err, quiz.ErrQuestionUnavailable) {
				return err
			}
			if result != nil {
				if err := finishRound(ctx, sub, out, *result, engine.State().Score); err != nil {
					return err
				}
			}
		}
		if err := engine.Continue(); err != nil {
			return err
		}
	}
	return nil
}

func finishRound(ctx context.Context, sub quiz.Submitter, out io.Writer, result models.RoundResult, score int) error {
	fmt.Fprintf(out, "\nRound complete: %d/%d correct.\n", score, len(result.Results))
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := sub.SubmitRound(ctx, result); err != nil {
		fmt.Fprintf(out, "Could not save the round: %v\n", err)
		return nil
	}
	fmt.Fprintln(out, "Round saved.")
	return nil
}

// pickOption resolves a 1-based option number or an emotion name.
func pickOption(options []emotion.Emotion, input string) emotion.Emotion {
	if n, err := strconv.Atoi(input); err == nil {
		if n >= 1 && n <= len(options) {
			return options[n-1]
		}
		return ""
	}
	return emotion.Emotion(strings.ToLower(input))
}
