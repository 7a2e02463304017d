// Package advisor builds the advice prompt and submits it to a text
// generation service.
package advisor

import (
	"context"
	"fmt"
	"strings"
)

// Generator produces text from a prompt. Satisfied by the gemini client in
// production and by fakes in tests.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Advisor struct {
	gen Generator
}

func New(gen Generator) *Advisor {
	return &Advisor{gen: gen}
}

// BuildPrompt assembles the deterministic advice prompt from the user's goal
// and the retrieved similar-profile summaries. The summaries appear twice,
// once as profile context and once as similar cases; the upstream service
// contract expects that framing, so it is kept as is.
func BuildPrompt(goal string, similarProfiles []string) string {
	trimmed := make([]string, 0, len(similarProfiles))
	for _, p := range similarProfiles {
		trimmed = append(trimmed, strings.TrimSpace(p))
	}
	profiles := strings.Join(trimmed, "\n")

	return fmt.Sprintf(`You are a professional health and fitness advisor. Based on the user's profile and goal, create a detailed one-week plan.
Please provide specific, actionable advice that is safe and appropriate for the user's fitness level.

USER GOAL:
%s

USER PROFILE:
%s

SIMILAR CASES FOR REFERENCE:
%s

Please provide:
1. A brief overview of the plan
2. Daily workout schedule for one week
3. Meal planning suggestions
4. Sleep and recovery recommendations
5. Progress tracking tips

Format the response in a clear, easy-to-follow structure.`, goal, profiles, profiles)
}

// Advise generates advice text for the goal using the similar profiles as
// context. Generation failures propagate unchanged: no retry, no fallback
// text.
func (a *Advisor) Advise(ctx context.Context, goal string, similarProfiles []string) (string, error) {
	advice, err := a.gen.Generate(ctx, BuildPrompt(goal, similarProfiles))
	if err != nil {
		return "", fmt.Errorf("failed to generate health advice: %w", err)
	}
	return advice, nil
}
