package caption

import (
	"fmt"
	"math/rand"
	"strings"
)

func pick(rnd *rand.Rand, words ...string) string {
	return words[rnd.Intn(len(words))]
}

var templates = []func(caption string, rnd *rand.Rand) string{
	func(caption string, rnd *rand.Rand) string {
		return fmt.Sprintf(`As a professional child psychologist, I observe that this sandbox scene demonstrates the child's rich inner world expression.

Scene Description: %s

Psychological Analysis:
1. Spatial Layout: The child chose to place the main elements in the center of the sandbox, indicating a strong egocentric consciousness, which is normal for their developmental stage.

2. Emotional Expression: Through the %s scene arrangement, the child may be expressing a desire or experience for %s.

3. Development Recommendations:
   - Encourage the child to share thoughts and feelings during the creative process
   - Observe the child's preferences and choices for different elements
   - Promote language expression and emotional communication through sandbox play

4. Positive Observations: The child's creativity and imagination are well demonstrated, and it's recommended to maintain this open form of expression.

Please remember that each child is a unique individual, and this analysis is for reference only.`,
			caption,
			pick(rnd, "warm", "harmonious", "exploratory", "protective"),
			pick(rnd, "family", "friendship", "security", "adventure"))
	},
	func(caption string, rnd *rand.Rand) string {
		return fmt.Sprintf(`Based on the sandbox scene you provided, I, as a child psychologist, offer the following interpretation:

Scene Content: %s

Symbolic Meaning Interpretation:
- The child expresses understanding of %s through %s
- This arrangement reflects the child's current %s

Developmental Psychology Perspective:
- Conforms to the psychological development characteristics of %s children
- Demonstrates %s abilities

Intervention Recommendations:
1. Conduct sandbox play regularly to observe changing trends
2. Guide the child to describe the creative process in language
3. Pay attention to the child's repeated use of specific elements
4. Encourage family participation to enhance parent-child interaction

Important Notes: This analysis is based on a single observation.`,
			caption,
			pick(rnd, "growth", "protection", "exploration", "connection"),
			pick(rnd, "natural elements", "architectural structures", "animal images", "human relationships"),
			pick(rnd, "emotional state", "cognitive level", "social needs", "sense of security"),
			pick(rnd, "3-6 years", "6-9 years", "9-12 years"),
			pick(rnd, "creativity", "logical thinking", "emotional expression", "spatial cognition"))
	},
	func(caption string, rnd *rand.Rand) string {
		return fmt.Sprintf(`Child Psychological Analysis Report

Sandbox Scene: %s

Psychological State Assessment:
The %s layout in the scene reflects the child's current psychological state.

Emotional Expression Analysis:
- The child may be experiencing a %s emotional state
- High attention to %s
- Demonstrates a %s coping style

Development Recommendations:
1. Short-term: Encourage the child to share creative ideas and enhance expression ability
2. Medium-term: Cultivate emotional management skills through sandbox play
3. Long-term: Establish healthy self-awareness and social skills

Parent Guidance:
- Be patient and don't rush to interpret the child's work
- Create a safe environment for expression
- Regularly record the child's sandbox changes`,
			caption,
			pick(rnd, "harmonious", "dynamic", "static", "complex"),
			pick(rnd, "happy", "curious", "worried", "excited"),
			pick(rnd, "family relationships", "friendship", "learning", "play"),
			pick(rnd, "positive", "cautious", "open", "protective"))
	},
}

// Analyze writes the report for a scene description. A non-empty prompt is
// echoed as the requested focus.
func Analyze(caption, prompt string, rnd *rand.Rand) string {
	report := templates[rnd.Intn(len(templates))](caption, rnd)
	if p := strings.TrimSpace(prompt); p != "" {
		report += "\n\nRequested focus: " + p
	}
	return report
}
