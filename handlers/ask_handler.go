package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/astrodocs/missionqa/models"
	"github.com/astrodocs/missionqa/services"
	"github.com/astrodocs/missionqa/services/assembler"
	"github.com/astrodocs/missionqa/services/generator"
	"github.com/astrodocs/missionqa/services/retrieval"
	"github.com/astrodocs/missionqa/utils"
)

// AskRequest is the interactive question request
type AskRequest struct {
	Question  string `json:"question" validate:"required"`
	Mission   string `json:"mission,omitempty"`
	TopK      int    `json:"top_k,omitempty" validate:"omitempty,min=1,max=20"`
	SessionID string `json:"session_id,omitempty"`
}

// AskResponse carries the grounded answer and its attribution labels
type AskResponse struct {
	SessionID string   `json:"session_id"`
	Answer    string   `json:"answer"`
	Sources   []string `json:"sources"`
}

// AskHandler serves interactive single-question answering with multi-turn
// conversation memory per session
type AskHandler struct {
	gateway   *retrieval.Gateway
	generator *generator.Generator
	sessions  *SessionManager
	topK      int
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewAskHandler creates a new AskHandler
func NewAskHandler(
	gateway *retrieval.Gateway,
	gen *generator.Generator,
	sessions *SessionManager,
	topK int,
	logger *zap.Logger,
) *AskHandler {
	return &AskHandler{
		gateway:   gateway,
		generator: gen,
		sessions:  sessions,
		topK:      topK,
		validate:  validator.New(),
		logger:    logger,
	}
}

// HandleAsk handles POST /v1/ask
func (h *AskHandler) HandleAsk(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		_ = utils.WriteBadRequest(w, "Validation failed: "+err.Error())
		return
	}

	topK := req.TopK
	if topK == 0 {
		topK = h.topK
	}

	sessionID, session := h.sessions.Get(req.SessionID)
	session.Lock()
	defer session.Unlock()

	passages, err := h.gateway.Retrieve(r.Context(), req.Question, topK, req.Mission)
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error())
		return
	}

	grounding := assembler.Format(passages)

	conv := session.Conversation()
	answer, err := h.generator.Generate(r.Context(), req.Question, grounding, conv.Window())
	if err != nil {
		h.logger.Error("generation failed",
			zap.String("session_id", sessionID),
			zap.Error(err))
		if services.IsType(err, services.ErrorTypeGeneration) {
			_ = utils.WriteInternalError(w, "Answer generation failed")
			return
		}
		_ = utils.WriteInternalError(w, "")
		return
	}

	// Memory is updated only after a successful generation.
	conv.Append(models.Turn{Role: models.RoleUser, Content: req.Question})
	conv.Append(models.Turn{Role: models.RoleAssistant, Content: answer})

	sources := make([]string, len(passages))
	for i, p := range passages {
		sources[i] = assembler.Label(p, i+1)
	}

	_ = utils.WriteOK(w, AskResponse{
		SessionID: sessionID,
		Answer:    answer,
		Sources:   sources,
	})
}
