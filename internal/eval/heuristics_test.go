package eval

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeuristicScoreInRange(t *testing.T) {
	texts := []string{
		"",
		"Short.",
		"According to research shows, studies indicate strong results. Source: somewhere. Citation here.",
		strings.Repeat("word ", 500),
	}
	s := NewHeuristicScorer()
	for _, text := range texts {
		scores, err := s.Score(context.Background(), text, "")
		require.NoError(t, err)
		require.Len(t, scores, 3)
		for name, v := range scores {
			assert.GreaterOrEqual(t, v, 0.0, name)
			assert.LessOrEqual(t, v, 1.0, name)
		}
	}
}

func TestFactualAccuracyRewardsEvidence(t *testing.T) {
	weak := "This might be true. It is possibly correct but uncertain and unclear."
	strong := "According to the survey, research shows clear effects. Studies indicate agreement. Source: journal. Reference list attached."

	assert.Greater(t, scoreFactualAccuracy(strong), scoreFactualAccuracy(weak))
}

func TestCoherenceRewardsStructureAndTransitions(t *testing.T) {
	flat := "Things happen. Stuff exists. End."
	structured := "## Findings\n\n" + strings.Repeat("The data is consistent across trials and sites in every case so far observed. ", 30) +
		"However, the effect varies. Therefore more trials follow. Furthermore, the method generalises."

	assert.Greater(t, scoreCoherence(structured), scoreCoherence(flat))
}

func TestClarityPenalisesRunOnSentences(t *testing.T) {
	runOn := strings.Repeat("word ", 40) + "."
	crisp := "Short sentences help. For example, this one. In other words, keep it tight. That is the point."

	assert.Greater(t, scoreClarity(crisp), scoreClarity(runOn))
}

func TestDefaultWeightsSumToOne(t *testing.T) {
	sum := 0.0
	for _, w := range DefaultWeights() {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)

	_, err := NewEngine(NewHeuristicScorer(), DefaultWeights())
	assert.NoError(t, err)
}
