package ragas

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 120 * time.Second

// Config holds connection details for the RAGAS evaluation service
type Config struct {
	// BaseURL of the evaluation service (e.g., "http://localhost:8100")
	BaseURL string

	// Timeout for requests; metric computation involves LLM calls and is slow
	Timeout time.Duration
}

// Client implements evaluator.Evaluator against a RAGAS evaluation service
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a new RAGAS client
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

// Evaluate scores the answer against the retrieved contexts
func (c *Client) Evaluate(ctx context.Context, question, answer string, contexts []string) (map[string]float64, error) {
	reqBody, err := json.Marshal(evaluateRequest{
		Question: question,
		Answer:   answer,
		Contexts: contexts,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.config.BaseURL+"/evaluate", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("evaluation request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("evaluation status %d: %s", resp.StatusCode, respBody)
	}

	var parsed evaluateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(parsed.Metrics) == 0 {
		return nil, fmt.Errorf("evaluation returned no metrics")
	}

	return parsed.Metrics, nil
}

type evaluateRequest struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Contexts []string `json:"contexts"`
}

type evaluateResponse struct {
	Metrics map[string]float64 `json:"metrics"`
}
