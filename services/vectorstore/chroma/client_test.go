package chroma

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, queryHandler http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/collections", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(chromaCollection{ID: "col-123", Name: "nasa_missions"})
	})
	mux.HandleFunc("/api/v1/collections/col-123/query", queryHandler)
	return httptest.NewServer(mux)
}

func TestClient_Query(t *testing.T) {
	var gotReq chromaQueryRequest
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(chromaQueryResponse{
			Documents: [][]string{{"Apollo 11 was the first crewed lunar landing.", "Voyager 1 launched in 1977."}},
			Metadatas: [][]map[string]interface{}{{
				{"source": "apollo_11_summary", "mission": "apollo 11"},
				{"doc_id": "voyager_overview"},
			}},
		})
	})
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Collection: "nasa_missions"})

	result, err := client.Query(context.Background(), "first moon landing", 3, map[string]string{"mission": "apollo 11"})
	require.NoError(t, err)

	assert.Equal(t, []string{"first moon landing"}, gotReq.QueryTexts)
	assert.Equal(t, 3, gotReq.NResults)
	assert.Equal(t, map[string]interface{}{"mission": "apollo 11"}, gotReq.Where)

	require.Len(t, result.Documents, 2)
	require.Len(t, result.Metadatas, 2)
	assert.Equal(t, "apollo_11_summary", result.Metadatas[0]["source"])
	assert.Equal(t, "voyager_overview", result.Metadatas[1]["doc_id"])
}

func TestClient_Query_EmptyContainers(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		// No documents or metadatas at all in the response body.
		_, _ = w.Write([]byte(`{}`))
	})
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Collection: "nasa_missions"})

	result, err := client.Query(context.Background(), "unknown probe", 3, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Documents)
	assert.Empty(t, result.Metadatas)
}

func TestClient_Query_ServerError(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Collection: "nasa_missions"})

	_, err := client.Query(context.Background(), "q", 3, nil)
	assert.Error(t, err)
}

func TestClient_Query_CachesCollectionID(t *testing.T) {
	resolves := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/collections", func(w http.ResponseWriter, r *http.Request) {
		resolves++
		_ = json.NewEncoder(w).Encode(chromaCollection{ID: "col-123"})
	})
	mux.HandleFunc("/api/v1/collections/col-123/query", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(chromaQueryResponse{})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Collection: "nasa_missions"})

	for i := 0; i < 3; i++ {
		_, err := client.Query(context.Background(), "q", 1, nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, resolves)
}
