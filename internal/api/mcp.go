package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vahanai/docsbot/internal/analytics"
	"github.com/vahanai/docsbot/internal/chat"
	"github.com/vahanai/docsbot/internal/knowledge"
	"github.com/vahanai/docsbot/internal/storage"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Resolver  *chat.Resolver
	Analytics *analytics.Recorder
	Store     *storage.Store
	Knowledge *knowledge.Store // optional; if nil, search_docs reports unavailable
}

// NewMCPServer creates an MCP server with all docsbot tools and resources
// registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"docsbot",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("docsbot — product documentation assistant backed by a local knowledge base."),
		server.WithRecovery(),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("ask",
			mcp.WithDescription("Ask the documentation assistant a question and get a formatted answer."),
			mcp.WithString("question", mcp.Description("The question to ask"), mcp.Required()),
			mcp.WithString("session", mcp.Description("Session identifier for conversation continuity (optional)")),
		),
		mcpAsk(deps),
	)

	s.AddTool(
		mcp.NewTool("search_docs",
			mcp.WithDescription("Semantically search the knowledge base and return matching documents with scores."),
			mcp.WithString("query", mcp.Description("Search query"), mcp.Required()),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 3)")),
		),
		mcpSearchDocs(deps),
	)

	s.AddTool(
		mcp.NewTool("usage_summary",
			mcp.WithDescription("Aggregate interaction metrics over a trailing window of days."),
			mcp.WithNumber("days", mcp.Description("Window size in days (default 30)")),
		),
		mcpUsageSummary(deps),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"docsbot://interactions/recent",
			"Recent Interactions",
			mcp.WithResourceDescription("Last 10 logged interactions (summaries only)"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceRecent(deps),
	)

	return s
}

func mcpAsk(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := req.RequireString("question")
		if err != nil {
			return mcpError("question is required"), nil
		}

		session := req.GetString("session", "")
		if session == "" {
			session = uuid.New().String()
		}

		start := time.Now()
		reply, source := deps.Resolver.Resolve(ctx, session, question)
		elapsed := time.Since(start).Seconds()

		deps.Analytics.Log(analytics.LogParams{
			SessionID:      session,
			UserInput:      question,
			BotResponse:    reply,
			ResponseTime:   &elapsed,
			DocumentSource: source,
		})

		b, err := json.Marshal(chatResponse{
			Response:  reply,
			SessionID: session,
			Source:    source,
		})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal response: %v", err)), nil
		}

		return mcpText(string(b)), nil
	}
}

func mcpSearchDocs(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if deps.Knowledge == nil {
			return mcpError("search not available: knowledge base not loaded"), nil
		}

		query, err := req.RequireString("query")
		if err != nil {
			return mcpError("query is required"), nil
		}

		limit := req.GetInt("limit", 3)
		if limit <= 0 {
			limit = 3
		}
		if limit > 10 {
			limit = 10
		}

		matches, err := deps.Knowledge.Query(ctx, query, limit)
		if err != nil {
			return mcpError(fmt.Sprintf("search failed: %v", err)), nil
		}

		if len(matches) == 0 {
			return mcpText("[]"), nil
		}

		type searchResult struct {
			ID      string  `json:"id"`
			Source  string  `json:"source"`
			Score   float32 `json:"score"`
			Excerpt string  `json:"excerpt"`
		}

		results := make([]searchResult, len(matches))
		for i, m := range matches {
			results[i] = searchResult{
				ID:      m.ID,
				Source:  m.Source,
				Score:   m.Score,
				Excerpt: truncateRunes(m.Content, 200),
			}
		}

		b, err := json.Marshal(results)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}

		return mcpText(string(b)), nil
	}
}

func mcpUsageSummary(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		days := req.GetInt("days", 30)
		if days < 0 {
			days = 0
		}

		summary, err := deps.Analytics.Summarize(days)
		if err != nil {
			return mcpError(fmt.Sprintf("summary failed: %v", err)), nil
		}

		b, err := json.Marshal(summary)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal summary: %v", err)), nil
		}

		return mcpText(string(b)), nil
	}
}

func mcpResourceRecent(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		interactions, err := deps.Store.ListInteractions(10, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to list interactions: %w", err)
		}

		type interactionSummary struct {
			ID           int64  `json:"id"`
			Timestamp    string `json:"timestamp"`
			SessionID    string `json:"session_id"`
			UserInput    string `json:"user_input"`
			QuestionType string `json:"question_type"`
		}

		summaries := make([]interactionSummary, len(interactions))
		for i, ix := range interactions {
			summaries[i] = interactionSummary{
				ID:           ix.ID,
				Timestamp:    ix.Timestamp.Format(time.RFC3339),
				SessionID:    ix.SessionID,
				UserInput:    truncateRunes(ix.UserInput, 200),
				QuestionType: ix.QuestionType,
			}
		}

		b, err := json.Marshal(summaries)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal interactions: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
