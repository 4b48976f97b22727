package store

import (
	"log/slog"
	"time"

	"github.com/pavelanni/reassess/internal/llm"
	"github.com/pavelanni/reassess/internal/model"
)

// RecordAICall appends one entry to the model call log.
func (s *Store) RecordAICall(c model.AICall) (int64, error) {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	res, err := s.db.Exec(
		`INSERT INTO ai_calls (kind, model, latency_ms, success, error_kind, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.Kind, c.Model, c.LatencyMs, c.Success, c.ErrorKind, c.CreatedAt,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// OnCallComplete implements llm.Observer by writing the event to the call log.
func (s *Store) OnCallComplete(e llm.CallEvent) {
	_, err := s.RecordAICall(model.AICall{
		Kind:      string(e.Kind),
		Model:     e.Model,
		LatencyMs: e.Latency.Milliseconds(),
		Success:   e.Success(),
		ErrorKind: e.ErrorKind(),
	})
	if err != nil {
		slog.Error("failed to record ai call", "kind", e.Kind, "error", err)
	}
}

// ListAICalls returns the most recent calls, newest first.
func (s *Store) ListAICalls(limit int) ([]model.AICall, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(
		`SELECT id, kind, model, latency_ms, success, error_kind, created_at
		 FROM ai_calls ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var calls []model.AICall
	for rows.Next() {
		var c model.AICall
		if err := rows.Scan(&c.ID, &c.Kind, &c.Model, &c.LatencyMs, &c.Success, &c.ErrorKind, &c.CreatedAt); err != nil {
			return nil, err
		}
		calls = append(calls, c)
	}
	return calls, rows.Err()
}

// AICallStats aggregates the call log per request kind.
func (s *Store) AICallStats() ([]model.AICallStats, error) {
	rows, err := s.db.Query(
		`SELECT kind, COUNT(*), SUM(CASE WHEN success THEN 0 ELSE 1 END), AVG(latency_ms)
		 FROM ai_calls GROUP BY kind ORDER BY kind`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var stats []model.AICallStats
	for rows.Next() {
		var st model.AICallStats
		if err := rows.Scan(&st.Kind, &st.Total, &st.Failed, &st.AvgLatencyMs); err != nil {
			return nil, err
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}
