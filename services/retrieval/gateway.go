package retrieval

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/astrodocs/missionqa/models"
	"github.com/astrodocs/missionqa/services"
	"github.com/astrodocs/missionqa/services/vectorstore"
)

// Gateway queries the vector store for the passages most similar to a
// question and normalizes the raw response. Backend failures are coerced to
// an empty passage set at this boundary so one bad retrieval never aborts a
// batch run; callers needing strict failure visibility must treat an empty
// result as a possible outage signal.
type Gateway struct {
	store  vectorstore.Store
	logger *zap.Logger
}

// NewGateway creates a new retrieval gateway
func NewGateway(store vectorstore.Store, logger *zap.Logger) *Gateway {
	return &Gateway{
		store:  store,
		logger: logger,
	}
}

// Retrieve returns up to k passages relevant to query, most relevant first.
// mission narrows the search when set and not a wildcard ("all"/"any").
// Only invalid input produces an error; store failures yield an empty slice.
func (g *Gateway) Retrieve(ctx context.Context, query string, k int, mission string) ([]models.Passage, error) {
	if strings.TrimSpace(query) == "" {
		return nil, services.NewValidationError("query must not be empty", nil)
	}
	if k < 1 {
		return nil, services.NewValidationError("k must be at least 1", nil)
	}

	var filter map[string]string
	if !isWildcard(mission) {
		filter = map[string]string{"mission": mission}
	}

	result, err := g.store.Query(ctx, query, k, filter)
	if err != nil {
		g.logger.Warn("retrieval failed, continuing with empty passage set",
			zap.String("query", query),
			zap.Error(err))
		return []models.Passage{}, nil
	}
	if result == nil {
		g.logger.Warn("retrieval returned no result container",
			zap.String("query", query))
		return []models.Passage{}, nil
	}

	passages := make([]models.Passage, 0, len(result.Documents))
	for i, doc := range result.Documents {
		var meta map[string]interface{}
		if i < len(result.Metadatas) {
			meta = result.Metadatas[i]
		}
		passages = append(passages, models.Passage{
			Text:     doc,
			SourceID: sourceID(meta),
			Mission:  metaString(meta, "mission"),
			Category: metaString(meta, "category"),
		})
	}

	g.logger.Debug("retrieval complete",
		zap.String("query", query),
		zap.Int("passages", len(passages)))

	return passages, nil
}

// sourceID derives the attribution id with priority doc_id then source.
// Empty means the assembler synthesizes a positional label.
func sourceID(meta map[string]interface{}) string {
	if id := metaString(meta, "doc_id"); id != "" {
		return id
	}
	return metaString(meta, "source")
}

func metaString(meta map[string]interface{}, key string) string {
	if meta == nil {
		return ""
	}
	if v, ok := meta[key].(string); ok {
		return v
	}
	return ""
}

func isWildcard(mission string) bool {
	switch strings.ToLower(strings.TrimSpace(mission)) {
	case "", "all", "any":
		return true
	}
	return false
}
