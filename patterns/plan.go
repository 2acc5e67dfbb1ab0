package patterns

import (
	"fmt"
	"strings"
	"unicode"
)

// ParsePlan extracts an ordered step list from model text by scanning lines
// for numeric or bullet markers ("1.", "-", "*"). Lines without markers are
// ignored. When no line matches, the whole text becomes a single-step plan:
// malformed plans degrade, they never fail.
func ParsePlan(text string) []string {
	steps := ParsePlanStrict(text)
	if len(steps) == 0 {
		return []string{text}
	}
	return steps
}

// ParsePlanStrict is ParsePlan without the whole-text fallback: it returns nil
// when no line carries a step marker, letting callers keep a previous plan
// instead.
func ParsePlanStrict(text string) []string {
	var steps []string
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if isPlanStep(trimmed) {
			steps = append(steps, trimmed)
		}
	}
	return steps
}

func isPlanStep(line string) bool {
	first := []rune(line)[0]
	return unicode.IsDigit(first) || strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*")
}

// FormatPlan renders a plan as a numbered list for prompt embedding.
func FormatPlan(steps []string) string {
	var builder strings.Builder
	for i, step := range steps {
		if i > 0 {
			builder.WriteString("\n")
		}
		fmt.Fprintf(&builder, "%d. %s", i+1, step)
	}
	return builder.String()
}

// Truncate shortens s to at most maxLen characters, appending an ellipsis
// when content was dropped. Used to keep prompt context and surfaced tool
// results bounded.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
