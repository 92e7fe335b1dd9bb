// Package websearch proxies queries to the SerpAPI Google engine. It
// shapes the request per search type, inspects the upstream payload for
// account errors, and charges a shared daily quota only for successful
// searches.
package websearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/quota"
)

// DefaultBaseURL is the production SerpAPI endpoint.
const DefaultBaseURL = "https://serpapi.com/search.json"

// ErrPlanLimit means the upstream account has no searches left, as
// opposed to our own daily quota.
var ErrPlanLimit = errors.New("websearch: upstream plan limit reached")

// Search types.
const (
	TypeAll    = "all"
	TypeImages = "images"
	TypeVideos = "videos"
)

var planLimitRe = regexp.MustCompile(`(?i)plan limit|account.*limit|insufficient|exceeded.*plan|disabled`)

// emptyResults is what a blank query returns.
var emptyResults = json.RawMessage(`{"organic_results":[]}`)

// Client is the search proxy.
type Client struct {
	http    *http.Client
	logger  *slog.Logger
	baseURL string
	apiKey  string
	quota   *quota.DailyCounter
}

// Options configure a Client.
type Options struct {
	APIKey  string
	BaseURL string
	// Quota is the shared daily budget. Only successful upstream
	// searches are charged against it.
	Quota  *quota.DailyCounter
	HTTP   *http.Client
	Logger *slog.Logger
}

// NewClient builds a search proxy client.
func NewClient(opts Options) *Client {
	c := &Client{
		http:    opts.HTTP,
		logger:  opts.Logger,
		baseURL: opts.BaseURL,
		apiKey:  opts.APIKey,
		quota:   opts.Quota,
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 20 * time.Second}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.quota == nil {
		c.quota = quota.NewDailyCounter(120, nil)
	}
	return c
}

// Search runs one query and returns the upstream payload verbatim. A
// blank query short-circuits to an empty result set without touching
// the quota. Exhausted daily quota comes back as apperr.ErrQuotaExceeded.
func (c *Client) Search(ctx context.Context, query, searchType string) (json.RawMessage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return emptyResults, nil
	}
	if !c.quota.Allow("") {
		return nil, fmt.Errorf("websearch: daily quota: %w", apperr.ErrQuotaExceeded)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(query, searchType), nil)
	if err != nil {
		return nil, fmt.Errorf("websearch: build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("websearch: fetch: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("websearch: read response: %w", err)
	}

	if msg := upstreamError(raw); resp.StatusCode >= 400 || msg != "" {
		if planLimitRe.MatchString(msg) {
			return nil, ErrPlanLimit
		}
		c.logger.Warn("websearch: upstream error", "status", resp.StatusCode, "message", msg)
		if msg == "" {
			msg = fmt.Sprintf("upstream status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("websearch: %s", msg)
	}

	c.quota.Take("")
	return json.RawMessage(raw), nil
}

// buildURL shapes the SerpAPI request: images get 50 results on the
// isch engine, videos 15 on vid, everything else 10 organic results.
func (c *Client) buildURL(query, searchType string) string {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("q", query)
	params.Set("engine", "google")
	switch strings.ToLower(searchType) {
	case TypeImages:
		params.Set("num", "50")
		params.Set("tbm", "isch")
	case TypeVideos:
		params.Set("num", "15")
		params.Set("tbm", "vid")
	default:
		params.Set("num", "10")
	}
	return c.baseURL + "?" + params.Encode()
}

// upstreamError digs the error message out of a SerpAPI payload, if
// any. SerpAPI reports failures inside a 200 body as often as not.
func upstreamError(raw []byte) string {
	var body struct {
		Error          string `json:"error"`
		ErrorMessage   string `json:"error_message"`
		SearchMetadata struct {
			Status string `json:"status"`
		} `json:"search_metadata"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return "unparseable upstream response"
	}
	if body.Error != "" {
		return body.Error
	}
	if body.ErrorMessage != "" {
		return body.ErrorMessage
	}
	if body.SearchMetadata.Status == "Error" {
		return "search error"
	}
	return ""
}
