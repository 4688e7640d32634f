// Package answer classifies generated replies.
package answer

import "strings"

// NotFound is the literal reply the changelog lookup uses when nothing confirms a fix.
const NotFound = "NOT FOUND"

// Outcome is a generated reply and whether it resolves the question.
type Outcome struct {
	Text     string
	Resolved bool
}

// IsNotFound reports whether text starts with the sentinel once leading whitespace is trimmed.
func IsNotFound(text string) bool {
	return strings.HasPrefix(strings.TrimLeft(text, " \t\r\n"), NotFound)
}

// Classify applies the escalation rule: only an iteration 0 reply starting with
// the sentinel is unresolved.
func Classify(text string, iteration int) Outcome {
	return Outcome{Text: text, Resolved: iteration != 0 || !IsNotFound(text)}
}

// Verdict is the structured reply shape used instead of the sentinel when the model supports JSON output.
type Verdict struct {
	Found  bool   `json:"found" description:"True only when the context confirms the answer."`
	Answer string `json:"answer" description:"The reply to the customer. Empty when found is false."`
}

// FromVerdict converts a structured verdict into an outcome.
// A not-found verdict keeps the sentinel as text so callers see the same reply either way.
func FromVerdict(v Verdict, iteration int) Outcome {
	if iteration == 0 && !v.Found {
		return Outcome{Text: NotFound, Resolved: false}
	}
	return Outcome{Text: v.Answer, Resolved: true}
}
