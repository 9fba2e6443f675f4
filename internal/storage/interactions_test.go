package storage

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"testing"
	"time"
)

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func TestSaveInteraction_RoundTrip(t *testing.T) {
	s := openTestStore(t)

	ts := time.Date(2026, 8, 25, 10, 30, 0, 0, time.UTC)
	id, err := s.SaveInteraction(Interaction{
		Timestamp:      ts,
		SessionID:      "sess-1",
		UserInput:      "what are your pricing plans",
		BotResponse:    "Here are our detailed pricing plans...",
		Satisfaction:   intPtr(4),
		QuestionType:   "pricing",
		ResponseTime:   floatPtr(0.125),
		DocumentSource: "pricing.md",
	})
	if err != nil {
		t.Fatalf("SaveInteraction: %v", err)
	}

	got, err := s.GetInteraction(id)
	if err != nil {
		t.Fatalf("GetInteraction: %v", err)
	}
	if !got.Timestamp.Equal(ts) {
		t.Errorf("timestamp = %v, want %v", got.Timestamp, ts)
	}
	if got.SessionID != "sess-1" || got.QuestionType != "pricing" || got.DocumentSource != "pricing.md" {
		t.Errorf("unexpected row %+v", got)
	}
	if got.Satisfaction == nil || *got.Satisfaction != 4 {
		t.Errorf("satisfaction = %v, want 4", got.Satisfaction)
	}
	if got.ResponseTime == nil || *got.ResponseTime != 0.125 {
		t.Errorf("response_time = %v, want 0.125", got.ResponseTime)
	}
}

// TestSaveInteraction_Nullables verifies optional fields survive as NULL and
// the timestamp defaults to now.
func TestSaveInteraction_Nullables(t *testing.T) {
	s := openTestStore(t)

	id, err := s.SaveInteraction(Interaction{
		SessionID:    "sess-1",
		UserInput:    "hello",
		BotResponse:  "Hello!",
		QuestionType: "general",
	})
	if err != nil {
		t.Fatalf("SaveInteraction: %v", err)
	}

	got, err := s.GetInteraction(id)
	if err != nil {
		t.Fatalf("GetInteraction: %v", err)
	}
	if got.Satisfaction != nil {
		t.Errorf("satisfaction = %v, want nil", *got.Satisfaction)
	}
	if got.ResponseTime != nil {
		t.Errorf("response_time = %v, want nil", *got.ResponseTime)
	}
	if got.DocumentSource != "" {
		t.Errorf("document_source = %q, want empty", got.DocumentSource)
	}
	if got.Timestamp.IsZero() {
		t.Error("timestamp should default to now")
	}
}

// TestSaveInteraction_SatisfactionRange verifies the CHECK constraint
// rejects out-of-range scores.
func TestSaveInteraction_SatisfactionRange(t *testing.T) {
	s := openTestStore(t)

	_, err := s.SaveInteraction(Interaction{
		SessionID:    "sess-1",
		UserInput:    "x",
		BotResponse:  "y",
		QuestionType: "general",
		Satisfaction: intPtr(7),
	})
	if err == nil {
		t.Error("expected a constraint error for satisfaction 7")
	}
}

func TestGetInteraction_NotFound(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.GetInteraction(999); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestListInteractions_NewestFirst(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := s.SaveInteraction(Interaction{
			Timestamp:    base.Add(time.Duration(i) * time.Minute),
			SessionID:    "sess-1",
			UserInput:    fmt.Sprintf("question %d", i),
			BotResponse:  "answer",
			QuestionType: "general",
		})
		if err != nil {
			t.Fatalf("SaveInteraction %d: %v", i, err)
		}
	}

	rows, err := s.ListInteractions(2, 0)
	if err != nil {
		t.Fatalf("ListInteractions: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].UserInput != "question 2" || rows[1].UserInput != "question 1" {
		t.Errorf("unexpected order: %q, %q", rows[0].UserInput, rows[1].UserInput)
	}

	rows, err = s.ListInteractions(2, 2)
	if err != nil {
		t.Fatalf("ListInteractions with offset: %v", err)
	}
	if len(rows) != 1 || rows[0].UserInput != "question 0" {
		t.Errorf("unexpected page: %+v", rows)
	}
}

func TestInteractionMetricsSince(t *testing.T) {
	s := openTestStore(t)

	now := time.Now().UTC()
	save := func(ts time.Time, session string, rt *float64) {
		t.Helper()
		_, err := s.SaveInteraction(Interaction{
			Timestamp:    ts,
			SessionID:    session,
			UserInput:    "q",
			BotResponse:  "a",
			QuestionType: "general",
			ResponseTime: rt,
		})
		if err != nil {
			t.Fatalf("SaveInteraction: %v", err)
		}
	}
	save(now.Add(-time.Hour), "a", floatPtr(0.2))
	save(now.Add(-2*time.Hour), "b", floatPtr(0.4))
	save(now.Add(-40*24*time.Hour), "c", floatPtr(9.9))

	m, err := s.InteractionMetricsSince(now.Add(-30 * 24 * time.Hour))
	if err != nil {
		t.Fatalf("InteractionMetricsSince: %v", err)
	}
	if m.TotalInteractions != 2 || m.UniqueSessions != 2 {
		t.Errorf("totals = %d/%d, want 2/2", m.TotalInteractions, m.UniqueSessions)
	}
	if m.AvgResponseTime == nil || math.Abs(*m.AvgResponseTime-0.3) > 1e-9 {
		t.Errorf("avg response time = %v, want 0.3", m.AvgResponseTime)
	}
}

func TestInteractionMetricsSince_Empty(t *testing.T) {
	s := openTestStore(t)

	m, err := s.InteractionMetricsSince(time.Now().UTC())
	if err != nil {
		t.Fatalf("InteractionMetricsSince: %v", err)
	}
	if m.TotalInteractions != 0 || m.UniqueSessions != 0 {
		t.Errorf("expected zero totals, got %+v", m)
	}
	if m.AvgResponseTime != nil {
		t.Errorf("avg response time = %v, want nil", *m.AvgResponseTime)
	}
}

func TestInteractionCountsByType(t *testing.T) {
	s := openTestStore(t)

	now := time.Now().UTC()
	types := []string{"pricing", "pricing", "setup", "general"}
	for i, qt := range types {
		_, err := s.SaveInteraction(Interaction{
			Timestamp:    now.Add(-time.Duration(i) * time.Minute),
			SessionID:    "s",
			UserInput:    "q",
			BotResponse:  "a",
			QuestionType: qt,
		})
		if err != nil {
			t.Fatalf("SaveInteraction: %v", err)
		}
	}

	counts, err := s.InteractionCountsByType(now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("InteractionCountsByType: %v", err)
	}
	want := []CategoryCount{
		{QuestionType: "pricing", Count: 2},
		{QuestionType: "general", Count: 1},
		{QuestionType: "setup", Count: 1},
	}
	if !reflect.DeepEqual(counts, want) {
		t.Errorf("counts = %+v, want %+v", counts, want)
	}
}
