package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/astrodocs/missionqa/services/vectorstore"
)

const defaultTimeout = 15 * time.Second

// Config holds connection details for a ChromaDB server
type Config struct {
	// BaseURL of the Chroma HTTP API (e.g., "http://localhost:8000")
	BaseURL string

	// Collection name to query (e.g., "nasa_missions")
	Collection string

	// Timeout for requests
	Timeout time.Duration
}

// Client implements vectorstore.Store against the ChromaDB REST API.
// Chroma computes query embeddings server side, so the client submits raw
// query text.
type Client struct {
	config     Config
	httpClient *http.Client

	mu           sync.Mutex
	collectionID string
}

// NewClient creates a new Chroma client
func NewClient(config Config) *Client {
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Query performs a similarity search against the configured collection
func (c *Client) Query(ctx context.Context, text string, topK int, filter map[string]string) (*vectorstore.QueryResult, error) {
	collectionID, err := c.resolveCollection(ctx)
	if err != nil {
		return nil, err
	}

	reqBody := chromaQueryRequest{
		QueryTexts: []string{text},
		NResults:   topK,
		Include:    []string{"documents", "metadatas"},
	}
	if len(filter) > 0 {
		where := make(map[string]interface{}, len(filter))
		for k, v := range filter {
			where[k] = v
		}
		reqBody.Where = where
	}

	var resp chromaQueryResponse
	url := fmt.Sprintf("%s/api/v1/collections/%s/query", c.config.BaseURL, collectionID)
	if err := c.post(ctx, url, reqBody, &resp); err != nil {
		return nil, fmt.Errorf("chroma query: %w", err)
	}

	// Chroma nests results one level per input query; defend against absent
	// or empty containers instead of failing.
	result := &vectorstore.QueryResult{}
	if len(resp.Documents) > 0 {
		result.Documents = resp.Documents[0]
	}
	if len(resp.Metadatas) > 0 {
		result.Metadatas = resp.Metadatas[0]
	}

	return result, nil
}

// resolveCollection resolves the collection name to its id, caching the result
func (c *Client) resolveCollection(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.collectionID != "" {
		return c.collectionID, nil
	}

	var resp chromaCollection
	url := c.config.BaseURL + "/api/v1/collections"
	body := map[string]interface{}{
		"name":          c.config.Collection,
		"get_or_create": true,
	}
	if err := c.post(ctx, url, body, &resp); err != nil {
		return "", fmt.Errorf("chroma resolve collection %q: %w", c.config.Collection, err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("chroma returned no id for collection %q", c.config.Collection)
	}

	c.collectionID = resp.ID
	return c.collectionID, nil
}

func (c *Client) post(ctx context.Context, url string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %s", resp.StatusCode, respBody)
	}

	return json.Unmarshal(respBody, out)
}

// Chroma-specific request/response types

type chromaQueryRequest struct {
	QueryTexts []string               `json:"query_texts"`
	NResults   int                    `json:"n_results"`
	Where      map[string]interface{} `json:"where,omitempty"`
	Include    []string               `json:"include"`
}

type chromaQueryResponse struct {
	Documents [][]string                 `json:"documents"`
	Metadatas [][]map[string]interface{} `json:"metadatas"`
	Distances [][]float64                `json:"distances"`
	IDs       [][]string                 `json:"ids"`
}

type chromaCollection struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
