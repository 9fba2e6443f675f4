package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// SaveInteraction inserts one logged exchange and returns its row ID. A zero
// Timestamp is replaced with the current time; an empty DocumentSource is
// stored as NULL.
func (s *Store) SaveInteraction(i Interaction) (int64, error) {
	ts := i.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	source := sql.NullString{String: i.DocumentSource, Valid: i.DocumentSource != ""}

	res, err := s.db.Exec(`
		INSERT INTO interactions (timestamp, session_id, user_input, bot_response, satisfaction, question_type, response_time, document_source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ts.UTC().Format(time.RFC3339), i.SessionID, i.UserInput, i.BotResponse,
		i.Satisfaction, i.QuestionType, i.ResponseTime, source,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetInteraction returns one logged exchange by row ID.
func (s *Store) GetInteraction(id int64) (Interaction, error) {
	var i Interaction
	var timestamp string
	var source sql.NullString
	err := s.db.QueryRow(`
		SELECT id, timestamp, session_id, user_input, bot_response, satisfaction, question_type, response_time, document_source
		FROM interactions WHERE id = ?`, id,
	).Scan(&i.ID, &timestamp, &i.SessionID, &i.UserInput, &i.BotResponse, &i.Satisfaction, &i.QuestionType, &i.ResponseTime, &source)
	if err == sql.ErrNoRows {
		return Interaction{}, ErrNotFound
	}
	if err != nil {
		return Interaction{}, err
	}
	t, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return Interaction{}, fmt.Errorf("parsing timestamp: %w", err)
	}
	i.Timestamp = t
	i.DocumentSource = source.String
	return i, nil
}

// ListInteractions returns logged exchanges newest first.
func (s *Store) ListInteractions(limit, offset int) ([]Interaction, error) {
	rows, err := s.db.Query(`
		SELECT id, timestamp, session_id, user_input, bot_response, satisfaction, question_type, response_time, document_source
		FROM interactions ORDER BY timestamp DESC, id DESC LIMIT ? OFFSET ?`, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Interaction
	for rows.Next() {
		var i Interaction
		var timestamp string
		var source sql.NullString
		if err := rows.Scan(&i.ID, &timestamp, &i.SessionID, &i.UserInput, &i.BotResponse, &i.Satisfaction, &i.QuestionType, &i.ResponseTime, &source); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339, timestamp)
		if err != nil {
			return nil, fmt.Errorf("parsing timestamp: %w", err)
		}
		i.Timestamp = t
		i.DocumentSource = source.String
		results = append(results, i)
	}
	return results, rows.Err()
}

// InteractionMetricsSince aggregates exchanges logged at or after cutoff.
// Timestamps are stored as RFC 3339 UTC strings, so the comparison is
// lexicographic.
func (s *Store) InteractionMetricsSince(cutoff time.Time) (SummaryMetrics, error) {
	var m SummaryMetrics
	err := s.db.QueryRow(`
		SELECT COUNT(*), COUNT(DISTINCT session_id), AVG(response_time)
		FROM interactions WHERE timestamp >= ?`,
		cutoff.UTC().Format(time.RFC3339),
	).Scan(&m.TotalInteractions, &m.UniqueSessions, &m.AvgResponseTime)
	if err != nil {
		return SummaryMetrics{}, err
	}
	return m, nil
}

// InteractionCountsByType returns per-category counts for exchanges logged
// at or after cutoff, most frequent first with ties broken alphabetically.
func (s *Store) InteractionCountsByType(cutoff time.Time) ([]CategoryCount, error) {
	rows, err := s.db.Query(`
		SELECT question_type, COUNT(*) AS n
		FROM interactions WHERE timestamp >= ?
		GROUP BY question_type ORDER BY n DESC, question_type ASC`,
		cutoff.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []CategoryCount
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.QuestionType, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
