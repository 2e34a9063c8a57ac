package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir())
}

func sampleResult(runID string) *Result {
	return &Result{
		RunID:            runID,
		Topic:            "quantum error correction",
		FinalArtifact:    "## Quantum Error Correction\n\nFinal text.\n",
		Iterations:       3,
		Converged:        true,
		ConvergenceScore: 0.91,
		Scores: map[string]float64{
			"factual_accuracy":   0.95,
			"logical_coherence":  0.88,
			"linguistic_clarity": 0.89,
		},
		History: []StageRecord{
			{Stage: "drafter", Round: 1, Status: StageOK, Artifact: "draft"},
			{Stage: "reviewer", Round: 1, Status: StageOK},
		},
	}
}

func TestSaveAndGet(t *testing.T) {
	s := newTestStore(t)
	want := sampleResult("run1")

	if err := s.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Get("run1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Topic != want.Topic {
		t.Errorf("Topic = %q, want %q", got.Topic, want.Topic)
	}
	if got.Iterations != 3 || !got.Converged || got.TerminatedByCap {
		t.Errorf("result = %+v", got)
	}
	if got.ConvergenceScore != 0.91 {
		t.Errorf("ConvergenceScore = %v, want 0.91", got.ConvergenceScore)
	}
	if len(got.History) != 2 {
		t.Errorf("len(History) = %d, want 2", len(got.History))
	}
}

func TestSaveWritesArtifactFile(t *testing.T) {
	s := newTestStore(t)
	res := sampleResult("run1")
	if err := s.Save(res); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(s.BaseDir(), "run1", "artifact.md"))
	if err != nil {
		t.Fatalf("read artifact.md: %v", err)
	}
	if string(data) != res.FinalArtifact {
		t.Errorf("artifact.md = %q, want %q", data, res.FinalArtifact)
	}
}

func TestSaveIsWriteOnce(t *testing.T) {
	s := newTestStore(t)
	if err := s.Save(sampleResult("run1")); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	err := s.Save(sampleResult("run1"))
	if err == nil {
		t.Fatal("second Save should fail")
	}
	if !strings.Contains(err.Error(), "already saved") {
		t.Errorf("error = %v, want 'already saved'", err)
	}
}

func TestSaveRequiresRunID(t *testing.T) {
	s := newTestStore(t)
	if err := s.Save(&Result{}); err == nil {
		t.Fatal("Save should reject an empty run ID")
	}
}

func TestGetMissing(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Get("ghost"); err == nil {
		t.Fatal("Get should fail for a missing run")
	}
}

func TestListSortedByRunID(t *testing.T) {
	s := newTestStore(t)
	for _, id := range []string{"bbb", "aaa", "ccc"} {
		if err := s.Save(sampleResult(id)); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}

	runs, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("len(runs) = %d, want 3", len(runs))
	}
	for i, want := range []string{"aaa", "bbb", "ccc"} {
		if runs[i].RunID != want {
			t.Errorf("runs[%d].RunID = %q, want %q", i, runs[i].RunID, want)
		}
	}
}

func TestListEmptyAndMissingDir(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "does-not-exist"))
	runs, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("len(runs) = %d, want 0", len(runs))
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	if err := s.Save(sampleResult("run1")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Delete("run1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get("run1"); err == nil {
		t.Fatal("Get should fail after Delete")
	}
	if err := s.Delete("run1"); err == nil {
		t.Fatal("Delete should fail for a missing run")
	}
}
