// Package markdown provides small dedicated parsers for the markdown shapes
// the knowledge documents use: pipe tables, Q&A pairs, level-2 sections,
// bullet lists, and fenced code blocks. Every extractor reports "not found"
// explicitly so callers can branch without inspecting raw text.
package markdown

import "strings"

// TableAfter returns the first markdown pipe table (header, separator, and
// at least one data row) that appears after the heading with the given text.
func TableAfter(body, heading string) (string, bool) {
	lines := strings.Split(body, "\n")
	start := -1
	for i, line := range lines {
		if headingText(line) == heading {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return "", false
	}
	for i := start; i < len(lines); i++ {
		if !isTableRow(lines[i]) {
			continue
		}
		j := i
		for j < len(lines) && isTableRow(lines[j]) {
			j++
		}
		if j-i >= 3 {
			return strings.Join(lines[i:j], "\n"), true
		}
		i = j
	}
	return "", false
}

// headingText returns the text of a markdown heading line, or "" when the
// line is not a heading.
func headingText(line string) string {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "#") {
		return ""
	}
	return strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
}

func isTableRow(line string) bool {
	trimmed := strings.TrimSpace(line)
	return len(trimmed) >= 2 && strings.HasPrefix(trimmed, "|") && strings.HasSuffix(trimmed, "|")
}

// NormalizeSeparators rewrites table separator rows (cells made of dashes)
// to a uniform width so alignment hints don't leak into chat output.
func NormalizeSeparators(table string) string {
	lines := strings.Split(table, "\n")
	for i, line := range lines {
		if isSeparatorRow(line) {
			cells := strings.Count(strings.TrimSpace(line), "|") - 1
			lines[i] = "|" + strings.Repeat("---------|", cells)
		}
	}
	return strings.Join(lines, "\n")
}

func isSeparatorRow(line string) bool {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "|") || !strings.HasSuffix(trimmed, "|") {
		return false
	}
	dashes := false
	for _, r := range trimmed {
		switch r {
		case '|', ' ', '\t', ':':
		case '-':
			dashes = true
		default:
			return false
		}
	}
	return dashes
}

// StripEmphasis removes underscore-emphasized words ("_beta_ ") together
// with their trailing spaces. Underscores that don't wrap a single word are
// left alone.
func StripEmphasis(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] != '_' {
			b.WriteByte(s[i])
			i++
			continue
		}
		end := emphasisEnd(s, i)
		if end < 0 {
			b.WriteByte(s[i])
			i++
			continue
		}
		i = end + 1
		for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
			i++
		}
	}
	return b.String()
}

// emphasisEnd returns the index of the closing underscore when s[start] opens
// a single-word emphasis span, or -1 otherwise.
func emphasisEnd(s string, start int) int {
	i := start + 1
	for i < len(s) && isWordByte(s[i]) {
		i++
	}
	if i == start+1 || i >= len(s) || s[i] != '_' {
		return -1
	}
	return i
}

func isWordByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// QA is one extracted question/answer pair.
type QA struct {
	Question string
	Answer   string
}

const questionMarker = "**Q: "

// QAPairs extracts "**Q: ...** A: ..." pairs in document order. Pairs with a
// malformed question or a missing answer marker are skipped. Returns nil
// when the body contains none.
func QAPairs(body string) []QA {
	var pairs []QA
	rest := body
	for {
		start := strings.Index(rest, questionMarker)
		if start < 0 {
			break
		}
		rest = rest[start+len(questionMarker):]

		end := strings.Index(rest, "**")
		if end < 0 {
			break
		}
		question := rest[:end]
		rest = rest[end+2:]

		// The answer runs until the next question marker or end of body.
		answer := rest
		if next := strings.Index(rest, questionMarker); next >= 0 {
			answer = rest[:next]
		}
		answer = strings.TrimSpace(answer)
		if !strings.HasPrefix(answer, "A:") {
			continue
		}
		answer = strings.TrimSpace(strings.TrimPrefix(answer, "A:"))
		pairs = append(pairs, QA{Question: strings.TrimSpace(question), Answer: answer})
	}
	return pairs
}

// Section is a level-2 heading with its body.
type Section struct {
	Heading string
	Body    string
}

// Sections splits the body into level-2 sections. Content before the first
// "## " heading is ignored; a section's body runs until the next heading of
// level 2 or deeper.
func Sections(body string) []Section {
	lines := strings.Split(body, "\n")
	var sections []Section
	i := 0
	for i < len(lines) {
		heading, ok := level2Heading(lines[i])
		if !ok {
			i++
			continue
		}
		j := i + 1
		for j < len(lines) && !strings.HasPrefix(lines[j], "##") {
			j++
		}
		sections = append(sections, Section{Heading: heading, Body: strings.Join(lines[i+1:j], "\n")})
		i = j
	}
	return sections
}

func level2Heading(line string) (string, bool) {
	if !strings.HasPrefix(line, "## ") || strings.HasPrefix(line, "###") {
		return "", false
	}
	return strings.TrimSpace(line[3:]), true
}

// SectionNamed returns the body of the level-2 section with the given
// heading text.
func SectionNamed(body, heading string) (string, bool) {
	for _, s := range Sections(body) {
		if s.Heading == heading {
			return s.Body, true
		}
	}
	return "", false
}

// Bullets returns the text of "- item" list entries in body, in order.
func Bullets(body string) []string {
	var items []string
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimLeft(line, " \t")
		if !strings.HasPrefix(trimmed, "-") {
			continue
		}
		items = append(items, strings.TrimLeft(trimmed[1:], " \t"))
	}
	return items
}

// FencedCode returns the contents of the first ``` fenced block, including
// any language tag on the opening line.
func FencedCode(body string) (string, bool) {
	const fence = "```"
	start := strings.Index(body, fence)
	if start < 0 {
		return "", false
	}
	rest := body[start+len(fence):]
	end := strings.Index(rest, fence)
	if end < 0 {
		return "", false
	}
	return rest[:end], true
}

// Strip flattens markdown for plain-text display: heading markers are
// removed, "-" bullets become "•", bold and italic markers are dropped, and
// runs of blank lines collapse to one.
func Strip(text string) string {
	text = stripHeadings(text)
	text = bulletsToDots(text)
	text = stripPairs(text, "**")
	text = stripPairs(text, "*")
	text = collapseBlankLines(text)
	return strings.TrimSpace(text)
}

func stripHeadings(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] != '#' {
			b.WriteByte(s[i])
			i++
			continue
		}
		for i < len(s) && s[i] == '#' {
			i++
		}
		for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
			i++
		}
	}
	return b.String()
}

func bulletsToDots(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if strings.HasPrefix(trimmed, "-") {
			lines[i] = "• " + strings.TrimLeft(trimmed[1:], " \t")
		}
	}
	return strings.Join(lines, "\n")
}

// stripPairs removes paired occurrences of marker, keeping the text between
// them. Unpaired markers are left in place.
func stripPairs(s, marker string) string {
	var b strings.Builder
	b.Grow(len(s))
	for {
		open := strings.Index(s, marker)
		if open < 0 {
			break
		}
		close := strings.Index(s[open+len(marker):], marker)
		if close < 0 {
			break
		}
		b.WriteString(s[:open])
		b.WriteString(s[open+len(marker) : open+len(marker)+close])
		s = s[open+len(marker)+close+len(marker):]
	}
	b.WriteString(s)
	return b.String()
}

func collapseBlankLines(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	run := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			run++
			if run <= 2 {
				b.WriteByte('\n')
			}
			continue
		}
		run = 0
		b.WriteByte(s[i])
	}
	return b.String()
}
