package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Interaction is one logged chat exchange.
type Interaction struct {
	ID             int64     `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	SessionID      string    `json:"session_id"`
	UserInput      string    `json:"user_input"`
	BotResponse    string    `json:"bot_response"`
	Satisfaction   *int      `json:"satisfaction,omitempty"`
	QuestionType   string    `json:"question_type"`
	ResponseTime   *float64  `json:"response_time,omitempty"`
	DocumentSource string    `json:"document_source,omitempty"`
}

// DocumentRecord is one knowledge document with its embedding vector.
type DocumentRecord struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// ScoredDocument pairs a document with its similarity to a query vector.
type ScoredDocument struct {
	DocumentRecord
	Score float32 `json:"score"`
}

// SummaryMetrics aggregates logged interactions over a time window.
// AvgResponseTime is nil when no interaction in the window recorded one.
type SummaryMetrics struct {
	TotalInteractions int      `json:"total_interactions"`
	UniqueSessions    int      `json:"unique_sessions"`
	AvgResponseTime   *float64 `json:"avg_response_time"`
}

// CategoryCount is the number of interactions logged for one question type.
type CategoryCount struct {
	QuestionType string `json:"question_type"`
	Count        int    `json:"count"`
}
