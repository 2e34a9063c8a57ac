package eval

import (
	"context"
	"strings"
)

// Metric names produced by the heuristic scorer.
const (
	MetricFactualAccuracy   = "factual_accuracy"
	MetricLogicalCoherence  = "logical_coherence"
	MetricLinguisticClarity = "linguistic_clarity"
)

// DefaultWeights is the weighting used when the configuration specifies none.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		MetricFactualAccuracy:   0.4,
		MetricLogicalCoherence:  0.3,
		MetricLinguisticClarity: 0.3,
	}
}

// HeuristicScorer scores artifacts with deterministic text heuristics:
// citation and hedging indicators for factual accuracy, structure and
// transition markers for coherence, sentence length and signposting for
// clarity. It makes no external calls, which keeps runs reproducible when no
// scoring service is configured.
type HeuristicScorer struct{}

// NewHeuristicScorer returns the stateless heuristic scorer.
func NewHeuristicScorer() *HeuristicScorer {
	return &HeuristicScorer{}
}

// Score implements Scorer.
func (h *HeuristicScorer) Score(_ context.Context, current, _ string) (map[string]float64, error) {
	return map[string]float64{
		MetricFactualAccuracy:   scoreFactualAccuracy(current),
		MetricLogicalCoherence:  scoreCoherence(current),
		MetricLinguisticClarity: scoreClarity(current),
	}, nil
}

var (
	evidenceMarkers = []string{"according to", "research shows", "studies indicate", "source:", "citation", "reference"}
	hedgingMarkers  = []string{"might be", "possibly", "uncertain", "unclear"}
	transitions     = []string{"however", "therefore", "furthermore", "moreover", "in addition", "consequently", "thus", "hence"}
	clarityMarkers  = []string{"in other words", "specifically", "for example", "that is"}
)

func countMarkers(text string, markers []string) int {
	n := 0
	for _, m := range markers {
		if strings.Contains(text, m) {
			n++
		}
	}
	return n
}

func scoreFactualAccuracy(content string) float64 {
	lower := strings.ToLower(content)
	score := 0.7

	switch evidence := countMarkers(lower, evidenceMarkers); {
	case evidence > 3:
		score += 0.15
	case evidence > 1:
		score += 0.1
	}
	if countMarkers(lower, hedgingMarkers) > 2 {
		score -= 0.1
	}
	return clamp01(score)
}

func scoreCoherence(content string) float64 {
	lower := strings.ToLower(content)
	score := 0.6

	if strings.ContainsAny(content, "#*") {
		score += 0.15
	}
	switch words := len(strings.Fields(content)); {
	case words > 200:
		score += 0.1
	case words < 50:
		score -= 0.2
	}
	if countMarkers(lower, transitions) > 2 {
		score += 0.1
	}
	return clamp01(score)
}

func scoreClarity(content string) float64 {
	lower := strings.ToLower(content)
	score := 0.7

	switch avg := avgSentenceLength(content); {
	case avg > 25:
		score -= 0.15
	case avg > 0 && avg < 10:
		score += 0.1
	}
	if countMarkers(lower, clarityMarkers) > 1 {
		score += 0.1
	}
	return clamp01(score)
}

func avgSentenceLength(content string) float64 {
	sentences := strings.Split(content, ".")
	if len(sentences) == 0 {
		return 0
	}
	words := 0
	for _, s := range sentences {
		words += len(strings.Fields(s))
	}
	return float64(words) / float64(len(sentences))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
