package emotion

import (
	"fmt"
	"strings"
)

// Emotion is a facial expression label used by the quiz and the summaries.
type Emotion string

const (
	Happy     Emotion = "happy"
	Sad       Emotion = "sad"
	Angry     Emotion = "angry"
	Surprised Emotion = "surprised"
	Neutral   Emotion = "neutral"
	Fear      Emotion = "fear"
	Disgust   Emotion = "disgust"
)

// Set is an ordered, duplicate-free list of labels. The order drives option
// layout in summaries and the row/column order of the confusion matrix.
type Set []Emotion

var (
	Basic    = Set{Happy, Sad, Angry, Surprised, Neutral}
	Extended = Set{Happy, Sad, Angry, Surprised, Neutral, Fear, Disgust}
)

// MinSetSize is the smallest set able to fill a four-option question.
const MinSetSize = 4

// ParseSet maps a configuration name to one of the known label sets.
func ParseSet(name string) (Set, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "basic":
		return Basic, nil
	case "extended":
		return Extended, nil
	default:
		return nil, fmt.Errorf("unknown label set %q", name)
	}
}

// Contains reports whether e is a member of the set.
func (s Set) Contains(e Emotion) bool {
	return s.Index(e) >= 0
}

// Index returns the position of e or -1.
func (s Set) Index(e Emotion) int {
	for i, v := range s {
		if v == e {
			return i
		}
	}
	return -1
}

// Without returns a copy of the set with e removed.
func (s Set) Without(e Emotion) Set {
	out := make(Set, 0, len(s))
	for _, v := range s {
		if v != e {
			out = append(out, v)
		}
	}
	return out
}

// Strings returns the labels as plain strings.
func (s Set) Strings() []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[i] = string(v)
	}
	return out
}

// Valid checks the set invariants: enough members and no duplicates.
func (s Set) Valid() error {
	if len(s) < MinSetSize {
		return fmt.Errorf("label set needs at least %d members, got %d", MinSetSize, len(s))
	}
	seen := make(map[Emotion]bool, len(s))
	for _, v := range s {
		if seen[v] {
			return fmt.Errorf("duplicate label %q", v)
		}
		seen[v] = true
	}
	return nil
}

// Emoji returns the glyph shown next to a label in the feedback view.
func Emoji(e Emotion) string {
	switch e {
	case Happy:
		return "😊"
	case Sad:
		return "😢"
	case Angry:
		return "😠"
	case Surprised:
		return "😲"
	case Neutral:
		return "😐"
	case Fear:
		return "😨"
	case Disgust:
		return "🤢"
	default:
		return "❓"
	}
}
