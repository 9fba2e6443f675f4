// Package analytics logs resolved chat interactions and aggregates usage
// summaries over a rolling time window.
package analytics

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/vahanai/docsbot/internal/classify"
	"github.com/vahanai/docsbot/internal/storage"
)

// LogParams names everything needed to record one interaction. Optional
// fields are pointers so "not provided" survives into storage as NULL.
type LogParams struct {
	SessionID      string
	UserInput      string
	BotResponse    string
	Satisfaction   *int
	ResponseTime   *float64
	DocumentSource string
}

// Recorder writes interaction rows and answers summary queries.
type Recorder struct {
	store *storage.Store
	log   *slog.Logger
}

// NewRecorder creates a recorder over the given store.
func NewRecorder(store *storage.Store, log *slog.Logger) *Recorder {
	if log == nil {
		log = slog.Default()
	}
	return &Recorder{store: store, log: log}
}

// Log classifies and persists one interaction. Returns false when the write
// fails; the failure is logged and never surfaced into the chat flow.
func (r *Recorder) Log(p LogParams) bool {
	_, err := r.store.SaveInteraction(storage.Interaction{
		Timestamp:      time.Now().UTC(),
		SessionID:      p.SessionID,
		UserInput:      p.UserInput,
		BotResponse:    p.BotResponse,
		Satisfaction:   p.Satisfaction,
		QuestionType:   string(classify.Question(p.UserInput)),
		ResponseTime:   p.ResponseTime,
		DocumentSource: p.DocumentSource,
	})
	if err != nil {
		r.log.Error("failed to log interaction", "error", err)
		return false
	}
	return true
}

// Summary is the aggregated usage report returned by the analytics API.
type Summary struct {
	Metrics       storage.SummaryMetrics  `json:"metrics"`
	QuestionTypes []storage.CategoryCount `json:"question_types"`
	TimePeriod    string                  `json:"time_period"`
}

// Summarize aggregates interactions over the trailing days window. Negative
// windows are treated as zero, which yields an empty report.
func (r *Recorder) Summarize(days int) (Summary, error) {
	if days < 0 {
		days = 0
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	metrics, err := r.store.InteractionMetricsSince(cutoff)
	if err != nil {
		return Summary{}, fmt.Errorf("aggregating metrics: %w", err)
	}
	counts, err := r.store.InteractionCountsByType(cutoff)
	if err != nil {
		return Summary{}, fmt.Errorf("counting question types: %w", err)
	}
	if counts == nil {
		counts = []storage.CategoryCount{}
	}

	return Summary{
		Metrics:       metrics,
		QuestionTypes: counts,
		TimePeriod:    fmt.Sprintf("Last %d days", days),
	}, nil
}
