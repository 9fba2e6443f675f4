// Package classify assigns a fixed category label to free-text questions.
// The taxonomy is a small closed set used for analytics; there is no learned
// model behind it.
package classify

import "strings"

// Category is one of the fixed labels assigned to every logged interaction.
type Category string

const (
	Pricing         Category = "pricing"
	Setup           Category = "setup"
	Troubleshooting Category = "troubleshooting"
	Integration     Category = "integration"
	Features        Category = "features"
	General         Category = "general"
)

// categoryKeywords is checked in declaration order; the first category with
// any keyword present wins, so earlier entries shadow later ones.
var categoryKeywords = []struct {
	category Category
	keywords []string
}{
	{Pricing, []string{"price", "cost", "plan"}},
	{Setup, []string{"how", "setup", "install"}},
	{Troubleshooting, []string{"error", "fix", "bug"}},
	{Integration, []string{"api", "integrate", "connect"}},
	{Features, []string{"feature", "capability"}},
}

// Question maps free text to a Category by case-insensitive substring
// matching against the fixed keyword sets. Unmatched input falls into
// General; the function never fails.
func Question(text string) Category {
	text = strings.ToLower(text)
	for _, ck := range categoryKeywords {
		for _, kw := range ck.keywords {
			if strings.Contains(text, kw) {
				return ck.category
			}
		}
	}
	return General
}
