package validation

import (
	"encoding/json"
	"sort"
)

// Pure metric helpers. Keep these side-effect free.

// CalculateAccuracy computes correct / total.
func CalculateAccuracy(correct, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return float64(correct) / float64(total)
}

// CalculatePrecision computes Precision: TP / (TP + FP)
func CalculatePrecision(tp, fp int) float64 {
	denom := tp + fp
	if denom == 0 {
		return 0.0
	}
	return float64(tp) / float64(denom)
}

// CalculateRecall computes Recall: TP / (TP + FN)
func CalculateRecall(tp, fn int) float64 {
	denom := tp + fn
	if denom == 0 {
		return 0.0
	}
	return float64(tp) / float64(denom)
}

// CalculateF1Score computes F1: 2 * (P * R) / (P + R)
func CalculateF1Score(precision, recall float64) float64 {
	sum := precision + recall
	if sum == 0 {
		return 0.0
	}
	return 2 * (precision * recall) / sum
}

// SubtypeStats holds the one-vs-rest counts of a single subtype.
type SubtypeStats struct {
	Subtype        string  `json:"subtype"`
	TruePositives  int     `json:"true_positives"`
	FalsePositives int     `json:"false_positives"`
	FalseNegatives int     `json:"false_negatives"`
	Precision      float64 `json:"precision"`
	Recall         float64 `json:"recall"`
	F1Score        float64 `json:"f1_score"`
}

// Confusion counts how often expected was classified as actual.
type Confusion struct {
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Count    int    `json:"count"`
}

// Metrics represents aggregated metrics from a validation run.
type Metrics struct {
	RunID string `json:"run_id"`

	// Overall counts
	Total     int     `json:"total"`
	Correct   int     `json:"correct"`
	Incorrect int     `json:"incorrect"`
	Accuracy  float64 `json:"accuracy"`
	MacroF1   float64 `json:"macro_f1"`

	PerSubtype []SubtypeStats `json:"per_subtype"`
	Confusion  []Confusion    `json:"confusion"`

	// Performance metrics
	AvgTimeMicros int64   `json:"avg_time_micros"`
	AvgTimeMs     float64 `json:"avg_time_ms"`

	MinAccuracy float64 `json:"min_accuracy"`
	Passed      bool    `json:"passed"`
}

// CalculateMetrics aggregates cases. Passed is true when the accuracy
// reaches minAccuracy and there is at least one case.
func CalculateMetrics(cases []Case, minAccuracy float64) *Metrics {
	m := &Metrics{Total: len(cases), MinAccuracy: minAccuracy}

	stats := map[string]*SubtypeStats{}
	get := func(subtype string) *SubtypeStats {
		s, ok := stats[subtype]
		if !ok {
			s = &SubtypeStats{Subtype: subtype}
			stats[subtype] = s
		}
		return s
	}
	confusion := map[[2]string]int{}
	var totalMicros int64

	for _, c := range cases {
		totalMicros += c.Duration.Microseconds()
		if c.Correct {
			m.Correct++
			get(c.Expected).TruePositives++
			continue
		}
		m.Incorrect++
		get(c.Expected).FalseNegatives++
		get(c.Actual).FalsePositives++
		confusion[[2]string{c.Expected, c.Actual}]++
	}

	m.Accuracy = CalculateAccuracy(m.Correct, m.Total)
	if m.Total > 0 {
		m.AvgTimeMicros = totalMicros / int64(m.Total)
		m.AvgTimeMs = float64(m.AvgTimeMicros) / 1000.0
	}

	f1Sum := 0.0
	for _, s := range stats {
		s.Precision = CalculatePrecision(s.TruePositives, s.FalsePositives)
		s.Recall = CalculateRecall(s.TruePositives, s.FalseNegatives)
		s.F1Score = CalculateF1Score(s.Precision, s.Recall)
		f1Sum += s.F1Score
		m.PerSubtype = append(m.PerSubtype, *s)
	}
	if len(stats) > 0 {
		m.MacroF1 = f1Sum / float64(len(stats))
	}
	sort.Slice(m.PerSubtype, func(i, j int) bool {
		return m.PerSubtype[i].Subtype < m.PerSubtype[j].Subtype
	})

	for k, n := range confusion {
		m.Confusion = append(m.Confusion, Confusion{Expected: k[0], Actual: k[1], Count: n})
	}
	sort.Slice(m.Confusion, func(i, j int) bool {
		a, b := m.Confusion[i], m.Confusion[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.Expected != b.Expected {
			return a.Expected < b.Expected
		}
		return a.Actual < b.Actual
	})

	m.Passed = m.Total > 0 && m.Accuracy >= minAccuracy
	return m
}

// ToJSON exports Metrics as formatted JSON for machine-readable output.
func (m *Metrics) ToJSON() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}
