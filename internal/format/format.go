// Package format renders knowledge document bodies into chat replies. Each
// well-known document gets a dedicated formatter; everything else falls back
// to a generic one that cites the document title.
package format

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/vahanai/docsbot/internal/markdown"
)

// Func renders a document body into a reply. recent holds the session's most
// recent user inputs, oldest first, for formatters that react to context.
type Func func(body string, recent []string) string

var bySource = map[string]Func{
	"pricing.md":  Pricing,
	"faq.md":      FAQ,
	"features.md": Features,
	"api.md":      API,
}

// BySource returns the formatter registered for a document source name.
func BySource(source string) Func {
	if f, ok := bySource[source]; ok {
		return f
	}
	return func(body string, _ []string) string {
		return General(body, source)
	}
}

// Pricing extracts the plan table and wraps it with purchasing guidance.
func Pricing(body string, _ []string) string {
	table, ok := markdown.TableAfter(body, "Pricing Plans")
	if !ok {
		return "For comprehensive pricing information:\n" +
			"- Visit our pricing page\n" +
			"- Contact sales@vahan.ai\n" +
			"- Request a custom quote"
	}
	table = markdown.NormalizeSeparators(table)
	table = markdown.StripEmphasis(table)
	return "Here are our detailed pricing plans:\n\n" +
		strings.TrimSpace(table) +
		"\n\nAdditional information:\n" +
		"- All plans include local processing\n" +
		"- Volume discounts available\n" +
		"- Annual billing saves 20%\n\n" +
		"Which plan would you like more details about?"
}

// FAQ renders up to five question/answer pairs as a numbered list.
func FAQ(body string, _ []string) string {
	pairs := markdown.QAPairs(body)
	if len(pairs) == 0 {
		return "Our FAQ covers important topics like:\n" +
			"- Data privacy\n- System requirements\n" +
			"- Integration options\n\n" +
			"What specific question can I answer for you?"
	}
	if len(pairs) > 5 {
		pairs = pairs[:5]
	}
	var b strings.Builder
	b.WriteString("Here are detailed answers to common questions:\n\n")
	for i, qa := range pairs {
		fmt.Fprintf(&b, "%d. %s\n%s\n\n", i+1, qa.Question, markdown.Strip(qa.Answer))
	}
	b.WriteString("For more FAQs:\n" +
		"- Browse our complete FAQ section\n" +
		"- Search for specific topics\n" +
		"- Contact support for unanswered questions")
	return b.String()
}

// Features lists every level-2 section with its bullet items.
func Features(body string, _ []string) string {
	var b strings.Builder
	b.WriteString("Here's a comprehensive look at our features:\n\n")
	for _, sec := range markdown.Sections(body) {
		fmt.Fprintf(&b, "✦ %s:\n\n", sec.Heading)
		for _, item := range markdown.Bullets(sec.Body) {
			fmt.Fprintf(&b, "  • %s\n", markdown.Strip(item))
		}
		b.WriteString("\n")
	}
	b.WriteString("Additional capabilities include:\n" +
		"- Custom workflow automation\n" +
		"- Advanced analytics\n" +
		"- Enterprise-grade security\n\n" +
		"Which feature would you like more details about?")
	return b.String()
}

// API shows the authentication example and, when the previous question in
// the session mentioned a 404, a troubleshooting checklist.
func API(body string, recent []string) string {
	var b strings.Builder
	b.WriteString("Here's detailed API information:\n\n")
	if auth, ok := markdown.SectionNamed(body, "Authentication"); ok {
		if code, ok := markdown.FencedCode(auth); ok {
			b.WriteString("Authentication Example:\n```" + strings.TrimSpace(code) + "\n```\n\n")
		}
		if len(recent) >= 2 && strings.Contains(recent[len(recent)-2], "404") {
			b.WriteString("For 404 errors, please verify:\n" +
				"1. Endpoint URL is correct (currently: api.vahan.ai)\n" +
				"2. Your API key is valid and not expired\n" +
				"3. The service is operational (check status.vahan.ai)\n" +
				"4. You're using the correct HTTP method (POST/GET)\n\n")
		}
	}
	b.WriteString("Additional API resources:\n" +
		"- Full API reference documentation\n" +
		"- Postman collection\n" +
		"- Sample projects on GitHub\n\n" +
		"What specific API question can I answer?")
	return b.String()
}

// General flattens the document and cites its title. An empty source returns
// just the flattened content.
func General(body, source string) string {
	content := markdown.Strip(body)
	if source == "" {
		return content
	}
	return "From our " + SourceTitle(source) + " documentation:\n\n" +
		content + "\n\nWould you like more details on any specific aspect?"
}

// SourceTitle derives a display title from a document file name, so
// "getting_started.md" becomes "Getting Started".
func SourceTitle(source string) string {
	name := strings.TrimSuffix(source, ".md")
	name = strings.ReplaceAll(name, "_", " ")
	return titleCase(name)
}

// titleCase uppercases the first letter of every word and lowercases the
// rest.
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inWord := false
	for _, r := range s {
		switch {
		case !unicode.IsLetter(r):
			inWord = false
			b.WriteRune(r)
		case inWord:
			b.WriteRune(unicode.ToLower(r))
		default:
			inWord = true
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}
