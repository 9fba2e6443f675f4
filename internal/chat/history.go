package chat

// maxTurns bounds how much conversation context a session retains.
const maxTurns = 6

// Turn is one recorded utterance.
type Turn struct {
	Role    string
	Content string
}

// History is a sliding window over the most recent turns of one session.
// The zero value is ready to use.
type History struct {
	turns []Turn
}

// Add appends a turn, evicting the oldest once the window is full.
func (h *History) Add(role, content string) {
	h.turns = append(h.turns, Turn{Role: role, Content: content})
	if len(h.turns) > maxTurns {
		h.turns = h.turns[len(h.turns)-maxTurns:]
	}
}

// Recent returns up to n of the latest turn contents, oldest first.
func (h *History) Recent(n int) []string {
	if n < 0 {
		n = 0
	}
	if n > len(h.turns) {
		n = len(h.turns)
	}
	out := make([]string, 0, n)
	for _, t := range h.turns[len(h.turns)-n:] {
		out = append(out, t.Content)
	}
	return out
}

// Len returns the number of retained turns.
func (h *History) Len() int {
	return len(h.turns)
}
