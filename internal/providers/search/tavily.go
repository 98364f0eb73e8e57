package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/sandevgo/teammate/internal/config"
	"github.com/sandevgo/teammate/internal/core"
	"github.com/sandevgo/teammate/pkg/retry"
)

const tavilyBaseURL = "https://api.tavily.com"

// Tavily queries the Tavily search API. Result snippets are stripped of any
// markup before they reach a prompt.
type Tavily struct {
	client    *http.Client
	baseURL   string
	apiKey    string
	depth     string
	include   []string
	exclude   []string
	retrier   *retry.Retrier
	sanitizer *bluemonday.Policy
}

func NewTavily(apiKey string, cfg config.SearchConfig) *Tavily {
	return &Tavily{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:   tavilyBaseURL,
		apiKey:    apiKey,
		depth:     cfg.Depth,
		include:   cfg.IncludeDomains,
		exclude:   cfg.ExcludeDomains,
		retrier:   retry.NewDefaultRetrier(),
		sanitizer: bluemonday.StrictPolicy(),
	}
}

type tavilyRequest struct {
	APIKey         string   `json:"api_key"`
	Query          string   `json:"query"`
	SearchDepth    string   `json:"search_depth"`
	MaxResults     int      `json:"max_results"`
	IncludeDomains []string `json:"include_domains,omitempty"`
	ExcludeDomains []string `json:"exclude_domains,omitempty"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string `json:"title"`
		Content string `json:"content"`
		URL     string `json:"url"`
	} `json:"results"`
}

func (p *Tavily) Search(ctx context.Context, query string, maxResults int) ([]core.SearchResult, error) {
	if query == "" {
		return nil, &core.ValidationError{Field: "query", Reason: "must not be empty"}
	}

	var results []core.SearchResult
	err := p.retrier.Do(ctx, func() error {
		var err error
		results, err = p.searchOnce(ctx, query, maxResults)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return results, nil
}

func (p *Tavily) searchOnce(ctx context.Context, query string, maxResults int) ([]core.SearchResult, error) {
	body, err := json.Marshal(tavilyRequest{
		APIKey:         p.apiKey,
		Query:          query,
		SearchDepth:    p.depth,
		MaxResults:     maxResults,
		IncludeDomains: p.include,
		ExcludeDomains: p.exclude,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, data)
	}

	var parsed tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	results := make([]core.SearchResult, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		results = append(results, core.SearchResult{
			Title:   p.sanitizer.Sanitize(r.Title),
			Snippet: p.sanitizer.Sanitize(r.Content),
			URL:     r.URL,
		})
	}
	return results, nil
}
