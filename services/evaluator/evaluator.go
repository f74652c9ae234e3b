package evaluator

import "context"

// Evaluator scores a generated answer against the raw retrieved passage
// texts (not the formatted context block). Returns a metric-name to score
// mapping or an error; callers isolate failures so one unscoreable answer
// never aborts a batch run.
type Evaluator interface {
	Evaluate(ctx context.Context, question, answer string, contexts []string) (map[string]float64, error)
}
