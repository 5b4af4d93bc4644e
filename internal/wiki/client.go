package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/loreline-ai/loreline/internal/domain"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultPageSize = 50

	// requestsPerSecond throttles wiki API calls; bulk syncs otherwise
	// trip upstream rate limits.
	requestsPerSecond = 5
)

// Client implements Source against a Confluence-style REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	limiter    *rate.Limiter
}

type ClientConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// NewClient creates a wiki API client. Returns nil when BaseURL is
// empty: an unconfigured source is an explicit state callers check,
// not a runtime probe.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		return nil
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		token:      cfg.Token,
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
	}
}

// Wire shapes for the wiki's v2-style cursor pagination.
type pagedResponse struct {
	Results json.RawMessage `json:"results"`
	Links   struct {
		Next string `json:"next"`
	} `json:"_links"`
}

type spaceResult struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

type pageSummaryResult struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	HasChildren bool   `json:"hasChildren"`
}

type pageResult struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Body  struct {
		Storage struct {
			Value string `json:"value"`
		} `json:"storage"`
	} `json:"body"`
	Version struct {
		CreatedAt string `json:"createdAt"`
	} `json:"version"`
	Links struct {
		WebUI string `json:"webui"`
	} `json:"_links"`
}

// get performs one throttled, authenticated GET and decodes the body.
func (c *Client) get(ctx context.Context, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NewUpstreamError("wiki request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.NewUpstreamError(
			fmt.Sprintf("wiki returned status %d for %s: %s", resp.StatusCode, path, string(body)), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.NewUpstreamError("decode wiki response", err)
	}
	return nil
}

// collectPages follows cursor pagination until exhausted, appending
// each page of results via decode.
func (c *Client) collectPages(ctx context.Context, path string, decode func(json.RawMessage) error) error {
	cursor := ""
	for {
		u := path
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		u += fmt.Sprintf("%slimit=%d", sep, defaultPageSize)
		if cursor != "" {
			u += "&cursor=" + url.QueryEscape(cursor)
		}

		var page pagedResponse
		if err := c.get(ctx, u, &page); err != nil {
			return err
		}
		if err := decode(page.Results); err != nil {
			return domain.NewUpstreamError("decode wiki results", err)
		}

		cursor = nextCursor(page.Links.Next)
		if cursor == "" {
			return nil
		}
	}
}

// nextCursor extracts the cursor parameter from a _links.next URL.
func nextCursor(next string) string {
	if next == "" {
		return ""
	}
	parsed, err := url.Parse(next)
	if err != nil {
		return ""
	}
	return parsed.Query().Get("cursor")
}

// ListSpaces returns every space visible to the token.
func (c *Client) ListSpaces(ctx context.Context) ([]*domain.Space, error) {
	var spaces []*domain.Space
	err := c.collectPages(ctx, "/api/v2/spaces", func(raw json.RawMessage) error {
		var results []spaceResult
		if err := json.Unmarshal(raw, &results); err != nil {
			return err
		}
		for _, r := range results {
			spaces = append(spaces, &domain.Space{Key: r.Key, Name: r.Name})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return spaces, nil
}

// RootPages returns the top-level pages of a space.
func (c *Client) RootPages(ctx context.Context, spaceKey string) ([]*domain.PageSummary, error) {
	path := fmt.Sprintf("/api/v2/spaces/%s/pages?depth=root", url.PathEscape(spaceKey))
	return c.collectSummaries(ctx, path)
}

// ChildPages returns the direct children of a page.
func (c *Client) ChildPages(ctx context.Context, pageID string) ([]*domain.PageSummary, error) {
	path := fmt.Sprintf("/api/v2/pages/%s/children", url.PathEscape(pageID))
	return c.collectSummaries(ctx, path)
}

func (c *Client) collectSummaries(ctx context.Context, path string) ([]*domain.PageSummary, error) {
	var summaries []*domain.PageSummary
	err := c.collectPages(ctx, path, func(raw json.RawMessage) error {
		var results []pageSummaryResult
		if err := json.Unmarshal(raw, &results); err != nil {
			return err
		}
		for _, r := range results {
			summaries = append(summaries, &domain.PageSummary{
				ID:          r.ID,
				Title:       r.Title,
				HasChildren: r.HasChildren,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

// PageContent fetches a page body in storage format.
func (c *Client) PageContent(ctx context.Context, pageID string) (*domain.Page, error) {
	var result pageResult
	path := fmt.Sprintf("/api/v2/pages/%s?body-format=storage", url.PathEscape(pageID))
	if err := c.get(ctx, path, &result); err != nil {
		return nil, err
	}
	if result.ID == "" {
		return nil, domain.ErrPageNotFound
	}

	return &domain.Page{
		ID:           result.ID,
		Title:        result.Title,
		Content:      result.Body.Storage.Value,
		URL:          c.baseURL + result.Links.WebUI,
		LastModified: result.Version.CreatedAt,
	}, nil
}
