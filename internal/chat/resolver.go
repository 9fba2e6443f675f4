// Package chat turns user messages into replies. The resolver walks a fixed
// decision pipeline: built-in responses for greetings and similar inputs,
// trigger-keyword routing to known documents, then semantic search as a
// fallback, with bounded per-session conversation context throughout.
package chat

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/vahanai/docsbot/internal/format"
	"github.com/vahanai/docsbot/internal/knowledge"
)

// MsgInitializing is returned for every message while the knowledge base is
// still coming up.
const MsgInitializing = "System is initializing... Please try again shortly."

// Knowledge is the document access the resolver needs.
type Knowledge interface {
	Get(id string) (knowledge.Document, error)
	Query(ctx context.Context, text string, topK int) ([]knowledge.Match, error)
}

// Compile-time check that the knowledge store satisfies Knowledge.
var _ Knowledge = (*knowledge.Store)(nil)

// route binds trigger keywords to one knowledge document.
type route struct {
	id       string
	source   string
	triggers []string
}

// routes are checked in declaration order; the first trigger hit wins.
var routes = []route{
	{id: "pricing", source: "pricing.md", triggers: []string{"pricing", "plan", "cost", "subscription", "how much"}},
	{id: "faq", source: "faq.md", triggers: []string{"faq", "question", "ask", "common queries"}},
	{id: "features", source: "features.md", triggers: []string{"feature", "capability", "what can", "functionality"}},
	{id: "api", source: "api.md", triggers: []string{"api", "endpoint", "curl", "authenticate", "integration"}},
}

const (
	defaultMaxSessions  = 512
	defaultQueryTimeout = 5 * time.Second
)

type session struct {
	history  *History
	lastSeen time.Time
}

// Resolver produces replies and tracks per-session conversation context.
// QueryTimeout and MaxSessions may be adjusted before the resolver starts
// serving requests.
type Resolver struct {
	know Knowledge
	log  *slog.Logger

	// QueryTimeout bounds each semantic search.
	QueryTimeout time.Duration
	// MaxSessions caps how many session histories stay in memory; past
	// that the least recently used session is evicted.
	MaxSessions int

	mu       sync.Mutex
	sessions map[string]*session
}

// NewResolver creates a resolver over know. Passing a nil Knowledge puts the
// resolver in an initializing state where every message gets
// MsgInitializing.
func NewResolver(know Knowledge, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{
		know:         know,
		log:          log,
		QueryTimeout: defaultQueryTimeout,
		MaxSessions:  defaultMaxSessions,
		sessions:     make(map[string]*session),
	}
}

// Resolve produces a reply for one user message. The returned source names
// the knowledge document behind the reply, or "" when the reply is a
// built-in response.
func (r *Resolver) Resolve(ctx context.Context, sessionID, input string) (reply, source string) {
	if r.know == nil {
		return MsgInitializing, ""
	}

	clean := strings.ToLower(strings.TrimSpace(input))
	recent := r.recordTurn(sessionID, clean)

	if containsAny(clean, "hi", "hello", "hey") {
		return msgGreeting, ""
	}
	if containsAny(clean, "bye", "goodbye") {
		return msgFarewell, ""
	}
	if strings.Contains(clean, "help") {
		return helpMenu, ""
	}
	if containsAny(clean, "who", "ceo", "founder", "team") {
		return msgIdentity, ""
	}

	for _, rt := range routes {
		if !containsAny(clean, rt.triggers...) {
			continue
		}
		doc, err := r.know.Get(rt.id)
		if err != nil {
			r.log.Error("failed to load document", "id", rt.id, "error", err)
			continue
		}
		r.log.Info("direct match", "source", rt.source)
		return format.BySource(rt.source)(doc.Content, recent), rt.source
	}

	qctx, cancel := r.queryContext(ctx)
	defer cancel()

	matches, err := r.know.Query(qctx, clean, 1)
	if err != nil {
		r.log.Error("semantic query failed", "error", err)
		return r.noMatch(ctx, clean), ""
	}
	if len(matches) > 0 {
		m := matches[0]
		r.log.Info("semantic match", "source", m.Source)
		return format.BySource(m.Source)(m.Content, recent), m.Source
	}

	r.log.Warn("no matching document")
	return r.noMatch(ctx, clean), ""
}

// recordTurn appends the user's message to the session history and returns
// the most recent two turns, oldest first.
func (r *Resolver) recordTurn(sessionID, content string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[sessionID]
	if !ok {
		if len(r.sessions) >= r.MaxSessions {
			r.evictOldest()
		}
		sess = &session{history: &History{}}
		r.sessions[sessionID] = sess
	}
	sess.history.Add("user", content)
	sess.lastSeen = time.Now()
	return sess.history.Recent(2)
}

// evictOldest removes the least recently used session. Caller holds mu.
func (r *Resolver) evictOldest() {
	var oldestID string
	var oldest time.Time
	for id, sess := range r.sessions {
		if oldestID == "" || sess.lastSeen.Before(oldest) {
			oldestID = id
			oldest = sess.lastSeen
		}
	}
	if oldestID != "" {
		delete(r.sessions, oldestID)
	}
}

// queryContext derives the deadline-bound context used for semantic search.
func (r *Resolver) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.QueryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.QueryTimeout)
}

// noMatch suggests document titles near the query, falling back to the help
// menu when nothing is close.
func (r *Resolver) noMatch(ctx context.Context, query string) string {
	qctx, cancel := r.queryContext(ctx)
	defer cancel()

	matches, err := r.know.Query(qctx, query, 3)
	if err != nil {
		r.log.Error("fallback search failed", "error", err)
	}
	if len(matches) == 0 {
		return helpMenu
	}

	// Titleize sources, deduplicated in rank order.
	var names []string
	seen := make(map[string]bool)
	for _, m := range matches {
		name := format.SourceTitle(m.Source)
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}

	var b strings.Builder
	b.WriteString("I couldn't find an exact match. You might explore:\n\n")
	for i, name := range names {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("• " + name)
	}
	b.WriteString("\n\nOr ask about:\n" +
		"- Specific features\n" +
		"- Pricing details\n" +
		"- Technical requirements")
	return b.String()
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

const msgGreeting = "Hello! I'm your Vahan AI assistant. I can help you with:\n" +
	"- Product features\n- Pricing information\n- API documentation\n- FAQ\n\n" +
	"What would you like to know about?"

const msgFarewell = "Goodbye! If you have more questions later, I can help with:\n" +
	"- Technical documentation\n- Pricing plans\n- Troubleshooting\n" +
	"- Feature details\n\nHave a great day!"

const msgIdentity = "I specialize in product information. For organizational questions:\n" +
	"- Contact support@vahan.ai\n" +
	"- Visit our website's About page\n" +
	"- Check LinkedIn for team information"

const helpMenu = "I can provide detailed information about:\n\n" +
	"✦ Product Features\n" +
	"  - Intelligent processing\n" +
	"  - Privacy controls\n" +
	"  - Productivity tools\n\n" +
	"✦ Pricing Plans\n" +
	"  - Feature comparisons\n" +
	"  - Subscription options\n" +
	"  - Enterprise solutions\n\n" +
	"✦ API Documentation\n" +
	"  - Authentication\n" +
	"  - Endpoints\n" +
	"  - Code examples\n\n" +
	"✦ Frequently Asked Questions\n" +
	"  - Data handling\n" +
	"  - System requirements\n" +
	"  - Common issues\n\n" +
	"What would you like to explore in detail?"
