package agent_test

import (
	"context"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/sandplay/internal/agent"
	"github.com/vytor/sandplay/internal/models"
)

func placed(names ...string) []models.PlacedItem {
	items := make([]models.PlacedItem, len(names))
	for i, n := range names {
		items[i] = models.PlacedItem{ID: n, Name: n}
	}
	return items
}

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want agent.Intent
	}{
		{"HELLO there", agent.IntentGreeting},
		{"can you guide me", agent.IntentHelp},
		{"please analyze my board", agent.IntentAnalysis},
		{"I feel calm", agent.IntentFeelings},
		{"my Emotions", agent.IntentFeelings},
		{"help me analyze", agent.IntentHelp},
		{"bananas", agent.IntentGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, agent.Classify(tt.text))
		})
	}
}

func TestSummarize_Thresholds(t *testing.T) {
	empty := agent.Summarize(nil)
	assert.Equal(t, 0, empty.TotalItems)
	assert.Contains(t, empty.Insight, "still empty")

	few := agent.Summarize(placed("People Self", "Nature Tree", "Nature Sun"))
	assert.Contains(t, few.Insight, "few but important")
	assert.Equal(t, 2, few.Categories["Nature"])

	rich := agent.Summarize(placed("People Self", "Nature Tree", "Nature Sun", "Animal Dog"))
	assert.Contains(t, rich.Insight, "rich scene")
}

func TestSummarize_CategoryCommentary(t *testing.T) {
	s := agent.Summarize(placed("People Family", "Transport Car", "Nature Tree"))
	assert.Contains(t, s.Detail, "People items")
	assert.Contains(t, s.Detail, "Transport items")
	assert.NotContains(t, s.Detail, "Building items")
	assert.NotContains(t, s.Detail, "Animal items")
}

func TestRespond(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	items := placed("Animal Dog", "Animal Cat")

	greet := agent.Respond("Hi!", items, rnd)
	assert.Contains(t, greet, "you have 2 items")

	analysis := agent.Respond("analysis please", items, rnd)
	assert.True(t, strings.HasPrefix(analysis, "Let me analyze your sandbox:"))
	assert.Contains(t, analysis, "Animal items")

	generic := agent.Respond("the weather is nice", items, rnd)
	assert.Contains(t, agent.GenericReplies(), generic)
}

func TestConversation_WelcomeAndReply(t *testing.T) {
	c := agent.NewConversation(agent.Options{
		MinDelay: time.Second,
		MaxDelay: 3 * time.Second,
		Rand:     rand.New(rand.NewSource(3)),
		Sleep: func(_ context.Context, d time.Duration) error {
			assert.GreaterOrEqual(t, d, time.Second)
			assert.Less(t, d, 3*time.Second)
			return nil
		},
	})

	msgs := c.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, agent.SenderAgent, msgs[0].Sender)
	assert.Equal(t, agent.Welcome, msgs[0].Text)

	reply, err := c.Send(context.Background(), "hello", nil)
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "0 items")

	msgs = c.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, agent.SenderUser, msgs[1].Sender)
	assert.Equal(t, "hello", msgs[1].Text)
	assert.Equal(t, reply, msgs[2])

	_, err = c.Send(context.Background(), "   ", nil)
	assert.ErrorIs(t, err, agent.ErrEmptyMessage)
}

func TestConversation_RejectsInputWhileThinking(t *testing.T) {
	release := make(chan struct{})
	c := agent.NewConversation(agent.Options{
		Sleep: func(ctx context.Context, _ time.Duration) error {
			<-release
			return nil
		},
	})

	done := make(chan error, 1)
	go func() {
		_, err := c.Send(context.Background(), "hello", nil)
		done <- err
	}()

	require.Eventually(t, c.Busy, time.Second, 5*time.Millisecond)
	_, err := c.Send(context.Background(), "are you there", nil)
	assert.ErrorIs(t, err, agent.ErrBusy)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, c.Busy())
	assert.Len(t, c.Messages(), 3)
}

func TestConversation_CancelledWhileThinking(t *testing.T) {
	c := agent.NewConversation(agent.Options{MinDelay: time.Hour, MaxDelay: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Send(ctx, "hello", nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, c.Busy())
	assert.Len(t, c.Messages(), 2)
}

func TestConversation_AddAnalysis(t *testing.T) {
	c := agent.NewConversation(agent.Options{})
	m := c.AddAnalysis("A calm beach", "Balanced scene")
	assert.Equal(t, agent.SenderAgent, m.Sender)
	assert.Contains(t, m.Text, "A calm beach")
	assert.Contains(t, m.Text, "Balanced scene")
	assert.Len(t, c.Messages(), 2)
}
