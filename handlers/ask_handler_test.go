package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/astrodocs/missionqa/services/generator"
	"github.com/astrodocs/missionqa/services/providers"
	"github.com/astrodocs/missionqa/services/retrieval"
	"github.com/astrodocs/missionqa/services/vectorstore"
)

type stubStore struct {
	result *vectorstore.QueryResult
	err    error
}

func (s *stubStore) Query(ctx context.Context, text string, topK int, filter map[string]string) (*vectorstore.QueryResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubProvider struct {
	lastReq *providers.ChatRequest
	err     error
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) ChatCompletion(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResponse, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return &providers.ChatResponse{
		Choices: []providers.Choice{
			{Message: providers.Message{Role: "assistant", Content: "grounded answer [apollo_11]"}},
		},
	}, nil
}

func newTestAskHandler(store vectorstore.Store, provider providers.Provider) *AskHandler {
	logger, _ := zap.NewDevelopment()
	gateway := retrieval.NewGateway(store, logger)
	gen := generator.NewGenerator(provider, generator.Config{Model: "gpt-3.5-turbo"}, logger)
	return NewAskHandler(gateway, gen, NewSessionManager(5), 3, logger)
}

func doAsk(t *testing.T, handler *AskHandler, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/v1/ask", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	handler.HandleAsk(rec, req)
	return rec
}

func TestAskHandler_HandleAsk(t *testing.T) {
	store := &stubStore{result: &vectorstore.QueryResult{
		Documents: []string{"Apollo 11 landed in 1969."},
		Metadatas: []map[string]interface{}{{"doc_id": "apollo_11"}},
	}}
	provider := &stubProvider{}
	handler := newTestAskHandler(store, provider)

	rec := doAsk(t, handler, AskRequest{Question: "When did Apollo 11 land?"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, "grounded answer [apollo_11]", resp.Answer)
	assert.Equal(t, []string{"apollo_11"}, resp.Sources)
}

func TestAskHandler_HandleAsk_MissingQuestion(t *testing.T) {
	handler := newTestAskHandler(&stubStore{result: &vectorstore.QueryResult{}}, &stubProvider{})

	rec := doAsk(t, handler, AskRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAskHandler_HandleAsk_SessionContinuity(t *testing.T) {
	store := &stubStore{result: &vectorstore.QueryResult{
		Documents: []string{"doc"},
		Metadatas: []map[string]interface{}{{"source": "src"}},
	}}
	provider := &stubProvider{}
	handler := newTestAskHandler(store, provider)

	rec := doAsk(t, handler, AskRequest{Question: "first question"})
	require.Equal(t, http.StatusOK, rec.Code)
	var first AskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))

	rec = doAsk(t, handler, AskRequest{Question: "follow-up", SessionID: first.SessionID})
	require.Equal(t, http.StatusOK, rec.Code)
	var second AskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))

	assert.Equal(t, first.SessionID, second.SessionID)

	// The second request carried the first exchange as prior history:
	// system prompt, context, user, assistant, user.
	msgs := provider.lastReq.Messages
	require.Len(t, msgs, 5)
	assert.Equal(t, "first question", msgs[2].Content)
	assert.Equal(t, "follow-up", msgs[4].Content)
}

func TestAskHandler_HandleAsk_GenerationFailure(t *testing.T) {
	store := &stubStore{result: &vectorstore.QueryResult{Documents: []string{"doc"}}}
	provider := &stubProvider{err: errors.New("quota exceeded")}
	handler := newTestAskHandler(store, provider)

	rec := doAsk(t, handler, AskRequest{Question: "q"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAskHandler_HandleAsk_RetrievalOutage(t *testing.T) {
	// A store outage degrades to an empty context, not an error response.
	store := &stubStore{err: errors.New("store down")}
	provider := &stubProvider{}
	handler := newTestAskHandler(store, provider)

	rec := doAsk(t, handler, AskRequest{Question: "q"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Sources)
	assert.NotEmpty(t, resp.Answer)
}

func TestSessionManager_Get(t *testing.T) {
	m := NewSessionManager(5)

	id1, s1 := m.Get("")
	id2, s2 := m.Get("")
	assert.NotEqual(t, id1, id2)
	assert.NotSame(t, s1, s2)

	id3, s3 := m.Get(id1)
	assert.Equal(t, id1, id3)
	assert.Same(t, s1, s3)

	// Unknown ids create a fresh session rather than failing.
	id4, _ := m.Get("not-a-session")
	assert.NotEqual(t, "not-a-session", id4)
	assert.Equal(t, 3, m.Len())
}
