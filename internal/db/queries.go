package db

import (
	"database/sql"
	"fmt"
	"sort"
)

// RunEvent represents a row in the run_events table.
type RunEvent struct {
	ID        int
	RunID     string
	Round     int
	Stage     string
	Event     string
	Detail    string
	Timestamp string
}

// RoundScore represents a row in the round_scores table.
type RoundScore struct {
	ID        int
	RunID     string
	Round     int
	Metric    string
	Value     float64
	Timestamp string
}

// LogRunEvent inserts a run lifecycle or stage event.
func (d *DB) LogRunEvent(runID string, round int, stage, event, detail string) error {
	_, err := d.conn.Exec(
		`INSERT INTO run_events (run_id, round, stage, event, detail) VALUES (?, ?, ?, ?, ?)`,
		runID, round, stage, event, detail,
	)
	if err != nil {
		return fmt.Errorf("log run event: %w", err)
	}
	return nil
}

// LogRoundScores records the per-metric scores for one evaluation round.
func (d *DB) LogRoundScores(runID string, round int, scores map[string]float64) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	metrics := make([]string, 0, len(scores))
	for m := range scores {
		metrics = append(metrics, m)
	}
	sort.Strings(metrics)

	for _, m := range metrics {
		if _, err := tx.Exec(
			`INSERT INTO round_scores (run_id, round, metric, value) VALUES (?, ?, ?, ?)`,
			runID, round, m, scores[m],
		); err != nil {
			return fmt.Errorf("log round score %s: %w", m, err)
		}
	}
	return tx.Commit()
}

// GetRunEvents returns all events for a run in insertion order.
func (d *DB) GetRunEvents(runID string) ([]RunEvent, error) {
	rows, err := d.conn.Query(
		`SELECT id, run_id, round, stage, event, detail, timestamp
		 FROM run_events WHERE run_id = ? ORDER BY id ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("get run events: %w", err)
	}
	defer rows.Close()

	var events []RunEvent
	for rows.Next() {
		var e RunEvent
		var stage, detail sql.NullString
		if err := rows.Scan(&e.ID, &e.RunID, &e.Round, &stage, &e.Event, &detail, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan run event: %w", err)
		}
		e.Stage = stage.String
		e.Detail = detail.String
		events = append(events, e)
	}
	return events, rows.Err()
}

// GetRoundScores returns all recorded scores for a run, ordered by round.
func (d *DB) GetRoundScores(runID string) ([]RoundScore, error) {
	rows, err := d.conn.Query(
		`SELECT id, run_id, round, metric, value, timestamp
		 FROM round_scores WHERE run_id = ? ORDER BY round ASC, metric ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("get round scores: %w", err)
	}
	defer rows.Close()

	var scores []RoundScore
	for rows.Next() {
		var s RoundScore
		if err := rows.Scan(&s.ID, &s.RunID, &s.Round, &s.Metric, &s.Value, &s.Timestamp); err != nil {
			return nil, fmt.Errorf("scan round score: %w", err)
		}
		scores = append(scores, s)
	}
	return scores, rows.Err()
}

// LastEvent returns the most recent event for a run, or nil when none exist.
func (d *DB) LastEvent(runID string) (*RunEvent, error) {
	row := d.conn.QueryRow(
		`SELECT id, run_id, round, stage, event, detail, timestamp
		 FROM run_events WHERE run_id = ? ORDER BY id DESC LIMIT 1`,
		runID,
	)
	var e RunEvent
	var stage, detail sql.NullString
	err := row.Scan(&e.ID, &e.RunID, &e.Round, &stage, &e.Event, &detail, &e.Timestamp)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get last event: %w", err)
	}
	e.Stage = stage.String
	e.Detail = detail.String
	return &e, nil
}
