package batch

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/astrodocs/missionqa/models"
	"github.com/astrodocs/missionqa/services"
	"github.com/astrodocs/missionqa/services/assembler"
	"github.com/astrodocs/missionqa/services/evaluator"
	"github.com/astrodocs/missionqa/services/generator"
	"github.com/astrodocs/missionqa/services/memory"
	"github.com/astrodocs/missionqa/services/retrieval"
)

// MinQuestions is the smallest question set a batch run accepts. Validated
// before any external call is made.
const MinQuestions = 5

// Config holds batch run parameters
type Config struct {
	// TopK passages retrieved per question
	TopK int

	// MaxHistoryTurns sizes the per-question conversation memory
	MaxHistoryTurns int

	// Workers bounds independent-question concurrency. 1 runs the pipeline
	// strictly sequentially; higher values process questions concurrently
	// while results stay in input order.
	Workers int
}

// Orchestrator drives the retrieve-generate-evaluate pipeline over a question
// set, isolating per-question failures so every input question yields exactly
// one result record.
type Orchestrator struct {
	gateway   *retrieval.Gateway
	generator *generator.Generator
	evaluator evaluator.Evaluator
	config    Config
	logger    *zap.Logger
}

// NewOrchestrator creates a new batch orchestrator
func NewOrchestrator(
	gateway *retrieval.Gateway,
	gen *generator.Generator,
	eval evaluator.Evaluator,
	config Config,
	logger *zap.Logger,
) *Orchestrator {
	if config.TopK <= 0 {
		config.TopK = 3
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}

	return &Orchestrator{
		gateway:   gateway,
		generator: gen,
		evaluator: eval,
		config:    config,
		logger:    logger,
	}
}

// Run processes every question in input order and returns the aggregate
// report: one per-question entry per input (same order), plus the mean of
// each metric across the results where it was numerically scored.
func (o *Orchestrator) Run(ctx context.Context, questions []models.Question) (*models.AggregateReport, error) {
	if len(questions) < MinQuestions {
		return nil, services.NewValidationError(
			fmt.Sprintf("question set must contain at least %d entries, got %d", MinQuestions, len(questions)), nil)
	}

	o.logger.Info("starting batch evaluation",
		zap.Int("questions", len(questions)),
		zap.Int("workers", o.config.Workers))

	results := make([]models.EvaluationResult, len(questions))

	if o.config.Workers == 1 {
		for i, q := range questions {
			results[i] = o.process(ctx, q)
		}
	} else {
		// Results are written by index so input order is preserved; process
		// never returns an error, so one question cannot cancel its siblings.
		g := new(errgroup.Group)
		g.SetLimit(o.config.Workers)
		for i, q := range questions {
			g.Go(func() error {
				results[i] = o.process(ctx, q)
				return nil
			})
		}
		_ = g.Wait()
	}

	report := &models.AggregateReport{
		PerQuestion: results,
		Aggregate:   Aggregate(results),
	}

	o.logger.Info("batch evaluation complete",
		zap.Int("questions", len(results)),
		zap.Int("metrics", len(report.Aggregate)))

	return report, nil
}

// process runs the full pipeline for one question. Failures at any stage are
// folded into the result record; the iteration always emits a result so the
// report cardinality equals the input cardinality.
func (o *Orchestrator) process(ctx context.Context, q models.Question) models.EvaluationResult {
	result := models.EvaluationResult{
		ID:       q.ID,
		Question: q.Question,
	}

	// Each question gets a freshly reset, independently owned conversation:
	// metric scoring assumes independence between questions.
	conv := memory.NewConversation(o.config.MaxHistoryTurns)
	conv.Reset()

	passages, err := o.gateway.Retrieve(ctx, q.Question, o.config.TopK, "")
	if err != nil {
		o.logger.Warn("question rejected by retrieval gateway",
			zap.String("id", q.ID),
			zap.Error(err))
		result.Metrics = models.ErrorMetrics(err.Error())
		return result
	}
	if len(passages) == 0 {
		// A retrieval miss is not fatal: the generator degrades to an
		// "insufficient context" answer.
		o.logger.Warn("no passages retrieved",
			zap.String("id", q.ID),
			zap.String("question", q.Question))
	}

	grounding := assembler.Format(passages)

	answer, err := o.generator.Generate(ctx, q.Question, grounding, conv.Window())
	if err != nil {
		o.logger.Warn("generation failed",
			zap.String("id", q.ID),
			zap.Error(err))
		result.Metrics = models.ErrorMetrics(err.Error())
		return result
	}
	result.Answer = answer

	conv.Append(models.Turn{Role: models.RoleUser, Content: q.Question})
	conv.Append(models.Turn{Role: models.RoleAssistant, Content: answer})

	contexts := make([]string, len(passages))
	for i, p := range passages {
		contexts[i] = p.Text
	}

	scores, err := o.evaluator.Evaluate(ctx, q.Question, answer, contexts)
	if err != nil {
		o.logger.Warn("evaluation failed",
			zap.String("id", q.ID),
			zap.Error(err))
		result.Metrics = models.ErrorMetrics(err.Error())
		return result
	}
	result.Metrics = models.FromScores(scores)

	return result
}

// Aggregate computes the arithmetic mean of every metric that appears with a
// numeric value in any result. Error-sentinel mappings contribute nothing;
// a metric present in only some results averages over those results only.
func Aggregate(results []models.EvaluationResult) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)

	for _, r := range results {
		for name, value := range r.Metrics {
			var v float64
			switch n := value.(type) {
			case float64:
				v = n
			case float32:
				v = float64(n)
			case int:
				v = float64(n)
			default:
				continue
			}
			sums[name] += v
			counts[name]++
		}
	}

	aggregate := make(map[string]float64, len(sums))
	for name, sum := range sums {
		aggregate[name] = sum / float64(counts[name])
	}
	return aggregate
}
