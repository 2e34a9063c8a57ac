package db

import (
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	if err := d.Migrate(); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return d
}

func TestMigrateIsIdempotent(t *testing.T) {
	d := newTestDB(t)
	if err := d.Migrate(); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestLogAndGetRunEvents(t *testing.T) {
	d := newTestDB(t)

	events := []struct {
		round  int
		stage  string
		event  string
		detail string
	}{
		{0, "", "run_started", "solar power"},
		{1, "", "round_started", ""},
		{1, "drafter", "stage_ok", ""},
		{1, "", "evaluated", "convergence=0.7200"},
		{2, "drafter", "stage_failed", "upstream gone"},
		{2, "", "failed", "round 2 aborted"},
	}
	for _, e := range events {
		if err := d.LogRunEvent("run1", e.round, e.stage, e.event, e.detail); err != nil {
			t.Fatalf("LogRunEvent(%s): %v", e.event, err)
		}
	}
	// Events for another run must not leak in.
	if err := d.LogRunEvent("run2", 1, "", "round_started", ""); err != nil {
		t.Fatalf("LogRunEvent: %v", err)
	}

	got, err := d.GetRunEvents("run1")
	if err != nil {
		t.Fatalf("GetRunEvents: %v", err)
	}
	if len(got) != len(events) {
		t.Fatalf("len(events) = %d, want %d", len(got), len(events))
	}
	for i, want := range events {
		if got[i].Event != want.event || got[i].Round != want.round || got[i].Stage != want.stage || got[i].Detail != want.detail {
			t.Errorf("event[%d] = %+v, want %+v", i, got[i], want)
		}
		if got[i].Timestamp == "" {
			t.Errorf("event[%d] has no timestamp", i)
		}
	}
}

func TestLogRunEventRejectsUnknownEvent(t *testing.T) {
	d := newTestDB(t)
	if err := d.LogRunEvent("run1", 1, "", "vanished", ""); err == nil {
		t.Fatal("LogRunEvent should reject events outside the schema check")
	}
}

func TestLogAndGetRoundScores(t *testing.T) {
	d := newTestDB(t)

	round1 := map[string]float64{"factual_accuracy": 0.8, "logical_coherence": 0.7}
	round2 := map[string]float64{"factual_accuracy": 0.9, "logical_coherence": 0.85}
	if err := d.LogRoundScores("run1", 1, round1); err != nil {
		t.Fatalf("LogRoundScores: %v", err)
	}
	if err := d.LogRoundScores("run1", 2, round2); err != nil {
		t.Fatalf("LogRoundScores: %v", err)
	}

	scores, err := d.GetRoundScores("run1")
	if err != nil {
		t.Fatalf("GetRoundScores: %v", err)
	}
	if len(scores) != 4 {
		t.Fatalf("len(scores) = %d, want 4", len(scores))
	}
	// Ordered by round, then metric.
	if scores[0].Round != 1 || scores[0].Metric != "factual_accuracy" || scores[0].Value != 0.8 {
		t.Errorf("scores[0] = %+v", scores[0])
	}
	if scores[3].Round != 2 || scores[3].Metric != "logical_coherence" || scores[3].Value != 0.85 {
		t.Errorf("scores[3] = %+v", scores[3])
	}
}

func TestLastEvent(t *testing.T) {
	d := newTestDB(t)

	e, err := d.LastEvent("run1")
	if err != nil {
		t.Fatalf("LastEvent: %v", err)
	}
	if e != nil {
		t.Fatalf("LastEvent = %+v, want nil for unknown run", e)
	}

	if err := d.LogRunEvent("run1", 1, "", "round_started", ""); err != nil {
		t.Fatal(err)
	}
	if err := d.LogRunEvent("run1", 1, "", "converged", ""); err != nil {
		t.Fatal(err)
	}

	e, err = d.LastEvent("run1")
	if err != nil {
		t.Fatalf("LastEvent: %v", err)
	}
	if e == nil || e.Event != "converged" {
		t.Errorf("LastEvent = %+v, want converged", e)
	}
}

func TestReset(t *testing.T) {
	d := newTestDB(t)
	if err := d.LogRunEvent("run1", 1, "", "round_started", ""); err != nil {
		t.Fatal(err)
	}
	if err := d.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	events, err := d.GetRunEvents("run1")
	if err != nil {
		t.Fatalf("GetRunEvents after Reset: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("len(events) = %d, want 0 after Reset", len(events))
	}
}
