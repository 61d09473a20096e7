package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const (
	// DefaultBaseURL is the English Wikipedia host.
	DefaultBaseURL = "https://en.wikipedia.org"

	// DefaultUserAgent identifies parley to Wikimedia, which rejects
	// requests without a descriptive agent.
	DefaultUserAgent = "parley/0.1 (https://github.com/papercomputeco/parley)"

	summaryPath = "/api/rest_v1/page/summary/"
)

// WikipediaConfig holds configuration for the Wikipedia client.
type WikipediaConfig struct {
	// BaseURL defaults to DefaultBaseURL if empty.
	BaseURL string

	// UserAgent defaults to DefaultUserAgent if empty.
	UserAgent string

	// Timeout for a single summary request. Defaults to 10s.
	Timeout time.Duration
}

// Wikipedia looks topics up through the Wikimedia REST summary endpoint.
type Wikipedia struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// summaryResponse is the subset of the REST page summary parley reads.
type summaryResponse struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Extract     string `json:"extract"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// NewWikipedia creates a new Wikipedia lookup client.
func NewWikipedia(cfg WikipediaConfig) *Wikipedia {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Wikipedia{
		baseURL:    baseURL,
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Lookup fetches the summary for topic. A missing page or an empty extract
// yields ErrNotFound.
func (w *Wikipedia) Lookup(ctx context.Context, topic string) (Summary, error) {
	title := PageTitle(topic)
	if title == "" {
		return Summary{}, ErrEmptyTopic
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+summaryPath+url.PathEscape(title), nil)
	if err != nil {
		return Summary{}, fmt.Errorf("creating lookup request: %w", err)
	}
	req.Header.Set("User-Agent", w.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return Summary{}, fmt.Errorf("sending lookup request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Summary{}, ErrNotFound
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return Summary{}, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var sr summaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return Summary{}, fmt.Errorf("decoding lookup response: %w", err)
	}

	if strings.TrimSpace(sr.Extract) == "" {
		return Summary{}, ErrNotFound
	}

	return Summary{
		Title:   sr.Title,
		Extract: sr.Extract,
		URL:     sr.ContentURLs.Desktop.Page,
	}, nil
}

// PageTitle converts a free-form topic into a wiki page title: trimmed,
// inner whitespace collapsed to underscores, first letter upper-cased.
func PageTitle(topic string) string {
	title := strings.Join(strings.Fields(topic), "_")
	if title == "" {
		return ""
	}

	r, size := utf8.DecodeRuneInString(title)
	return string(unicode.ToUpper(r)) + title[size:]
}

// Ensure Wikipedia implements Lookuper
var _ Lookuper = (*Wikipedia)(nil)
