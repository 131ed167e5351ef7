package query

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultHTTPTimeout = 30 * time.Second

// requestBody is the wire shape of a knowledge query.
type requestBody struct {
	Operation string   `json:"operation"`
	Models    []string `json:"models"`
}

func (k Kind) operation() string {
	switch k {
	case KindEdges:
		return "edges"
	case KindNodesEdges:
		return "nodes-edges"
	default:
		return "data"
	}
}

// NewHTTPRunner returns a Runner that POSTs the query to its URL as JSON.
// When a request carries no URL of its own, endpoint is used. A nil client
// gets a default with a request timeout.
func NewHTTPRunner(endpoint string, client *http.Client) Runner {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}

	return func(ctx context.Context, req Request) error {
		url := req.URL
		if url == "" {
			url = endpoint
		}
		if url == "" {
			return fmt.Errorf("query: no endpoint configured")
		}

		body, err := json.Marshal(requestBody{
			Operation: req.Kind.operation(),
			Models:    req.Models,
		})
		if err != nil {
			return fmt.Errorf("query: encode request: %w", err)
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("query: build request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(httpReq)
		if err != nil {
			return fmt.Errorf("query %s: %w", url, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("query %s: status %s", url, resp.Status)
		}
		return nil
	}
}
