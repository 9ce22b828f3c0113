package search

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Google queries a Programmable Search Engine through the Custom Search
// JSON API.
type Google struct {
	svc    *customsearch.Service
	apiKey string
	cx     string
}

// NewGoogle creates a Custom Search client for the engine cx. A non-empty
// endpoint overrides the API root.
func NewGoogle(ctx context.Context, apiKey, cx, endpoint string, httpClient *http.Client) (*Google, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating custom search service: %w", err)
	}
	return &Google{svc: svc, apiKey: apiKey, cx: cx}, nil
}

func (g *Google) Name() string { return "google" }

func (g *Google) Search(ctx context.Context, query string, max int) ([]Result, error) {
	max = clampMax(max, 10)
	// option.WithAPIKey is ignored next to WithHTTPClient, so send the key per call.
	res, err := g.svc.Cse.List().
		Cx(g.cx).
		Q(query).
		Num(int64(max)).
		Context(ctx).
		Do(googleapi.QueryParameter("key", g.apiKey))
	if err != nil {
		return nil, fmt.Errorf("custom search: %w", err)
	}
	results := make([]Result, 0, len(res.Items))
	for _, item := range res.Items {
		results = append(results, Result{Title: item.Title, URL: item.Link, Snippet: item.Snippet})
	}
	return results, nil
}
