package models

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Passage is a single retrieved document chunk, ordered by relevance rank
// (index 0 = most relevant). Immutable once created.
type Passage struct {
	Text     string
	SourceID string // document id or source field from the store metadata; empty when absent
	Mission  string
	Category string
}

// Turn is one message in a conversation history. Never mutated after creation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Question is one entry of a batch question set.
type Question struct {
	ID       string `json:"id,omitempty"`
	Question string `json:"question" validate:"required"`
}

// Metrics maps metric names to numeric scores. When scoring fails the mapping
// carries a single "error" key with a string message instead; string values
// are excluded from aggregation.
type Metrics map[string]interface{}

// ErrorMetrics builds the error-sentinel metrics value for an unscoreable answer.
func ErrorMetrics(msg string) Metrics {
	return Metrics{"error": msg}
}

// FromScores converts an evaluator score mapping into a Metrics value.
func FromScores(scores map[string]float64) Metrics {
	m := make(Metrics, len(scores))
	for name, v := range scores {
		m[name] = v
	}
	return m
}

// EvaluationResult is the per-question record emitted by a batch run.
type EvaluationResult struct {
	ID       string  `json:"id,omitempty"`
	Question string  `json:"question"`
	Answer   string  `json:"answer"`
	Metrics  Metrics `json:"metrics"`
}

// AggregateReport is the final artifact of a batch run: one entry per input
// question, in input order, plus the mean of each metric across the results
// where it was successfully computed.
type AggregateReport struct {
	PerQuestion []EvaluationResult `json:"per_question"`
	Aggregate   map[string]float64 `json:"aggregate"`
}
