// Package agent is the scripted sandbox companion: keyword-matched replies
// and a threshold summary of the items on the board.
package agent

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/vytor/sandplay/internal/models"
)

type Intent string

const (
	IntentGreeting Intent = "greeting"
	IntentHelp     Intent = "help"
	IntentAnalysis Intent = "analysis"
	IntentFeelings Intent = "feelings"
	IntentGeneric  Intent = "generic"
)

// intents are checked in order; the first category with a matching keyword
// wins.
var intents = []struct {
	intent   Intent
	keywords []string
}{
	{IntentGreeting, []string{"hello", "hi"}},
	{IntentHelp, []string{"help", "guide"}},
	{IntentAnalysis, []string{"analyze", "analysis"}},
	{IntentFeelings, []string{"feel", "emotion"}},
}

var genericReplies = []string{
	"That's an interesting thought! Can you tell me more about this?",
	"I notice you mentioned this. In sandbox therapy, every choice has its meaning.",
	"Thank you for sharing. How do you think this relates to the world you've created in your sandbox?",
	"I understand your feelings. Sandbox therapy is a safe space where you can express yourself freely.",
	"This is very insightful! Let's continue exploring your inner world.",
}

// GenericReplies returns the fallback acknowledgements.
func GenericReplies() []string {
	return append([]string(nil), genericReplies...)
}

const Welcome = `Hello! I'm your psychologist assistant.

I can help you with:
• Analyzing your sandbox creations
• Providing psychological support and advice
• Answering questions about sandbox therapy
• Having psychological conversations with you

Please feel free to share your thoughts and feelings with me!`

const helpReply = `I'd be happy to help you! You can:
• Tell me what you've placed in your sandbox
• Share your feelings and thoughts
• Ask questions about sandbox therapy
• Let me analyze your sandbox layout`

const feelingsReply = `Feelings are very important! In sandbox therapy, we focus on your inner experience.

When you look at these items, how do you feel? Are you calm, excited, or something else?

Remember, there are no right or wrong feelings - every feeling deserves to be heard.`

// Classify returns the first intent whose keyword occurs in text, ignoring
// case.
func Classify(text string) Intent {
	lower := strings.ToLower(text)
	for _, in := range intents {
		for _, kw := range in.keywords {
			if strings.Contains(lower, kw) {
				return in.intent
			}
		}
	}
	return IntentGeneric
}

// Respond builds the reply to text given the items on the board. rnd picks
// the generic fallback.
func Respond(text string, items []models.PlacedItem, rnd *rand.Rand) string {
	s := Summarize(items)
	switch Classify(text) {
	case IntentGreeting:
		return fmt.Sprintf("Hello! I'm your psychologist assistant. I can see you have %d items in your sandbox. %s",
			s.TotalItems, s.Insight)
	case IntentHelp:
		return helpReply
	case IntentAnalysis:
		return "Let me analyze your sandbox:\n" + s.Detail +
			"\n\nThe arrangement of these items might reflect some of your inner thoughts. What would you like to talk about?"
	case IntentFeelings:
		return feelingsReply
	default:
		return genericReplies[rnd.Intn(len(genericReplies))]
	}
}

// Summary is the heuristic reading of a board.
type Summary struct {
	TotalItems int            `json:"total_items"`
	Categories map[string]int `json:"categories"`
	Insight    string         `json:"insight"`
	Detail     string         `json:"detailed_analysis"`
}

var commentary = []struct {
	category string
	line     string
}{
	{"People", "People items: might represent relationships or self-image"},
	{"Building", "Building items: might represent safety, shelter, or goals"},
	{"Animal", "Animal items: might represent instincts, freedom, or specific qualities"},
	{"Transport", "Transport items: might represent movement, change, or direction"},
}

// Summarize buckets items by the first word of their name and selects an
// insight by item count: none, one to three, or more than three.
func Summarize(items []models.PlacedItem) Summary {
	s := Summary{TotalItems: len(items), Categories: map[string]int{}}
	for _, it := range items {
		fields := strings.Fields(it.Name)
		if len(fields) == 0 {
			continue
		}
		s.Categories[fields[0]]++
	}

	switch {
	case s.TotalItems == 0:
		s.Insight = "Your sandbox is still empty, which might indicate you are thinking or waiting for inspiration."
		s.Detail = "An empty sandbox might represent:\n• New beginnings or possibilities\n• Need for more time to think\n• Inner peace and calmness"
	case s.TotalItems <= 3:
		s.Insight = "You have chosen a few but important items, showing your focus and selectivity."
		s.Detail = "Few items might indicate:\n• Focus on important matters\n• Clear and simple thinking\n• Inner clarity"
	default:
		s.Insight = "You have created a rich scene, showing your creativity and imagination."
		s.Detail = "Rich scenes might reflect:\n• Rich inner world\n• Diverse interests and concerns\n• Complex emotional states"
	}

	for _, c := range commentary {
		if s.Categories[c.category] > 0 {
			s.Detail += "\n• " + c.line
		}
	}
	return s
}

// AnalysisMessage formats an analysis result for the transcript.
func AnalysisMessage(caption, analysis string) string {
	return fmt.Sprintf(`AI Analysis Results

Scene Description:
%s

Psychological Analysis:
%s

This analysis is based on the items in your sandbox. Would you like to discuss these findings?`, caption, analysis)
}
