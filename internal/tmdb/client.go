package tmdb

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"cinelytics/internal/config"
	"cinelytics/internal/logger"
)

// Enrichment holds the metadata extracted from the top search result.
// Every field is optional; a movie with no match gets all-nil enrichment.
type Enrichment struct {
	PosterURL  *string
	Rating     *float64
	Overview   *string
	TmdbID     *int64
}

type searchResult struct {
	Results []struct {
		PosterPath  string  `json:"poster_path"`
		VoteAverage float64 `json:"vote_average"`
		Overview    string  `json:"overview"`
		ID          int64   `json:"id"`
	} `json:"results"`
}

type Client struct {
	cfg    config.TmdbConfig
	client *http.Client
	logger *logger.Logger
}

func NewClient(cfg config.TmdbConfig, client *http.Client, log *logger.Logger) *Client {
	return &Client{cfg: cfg, client: client, logger: log}
}

// Lookup searches for a title and returns enrichment from the first result.
// Lookup never fails the caller: empty results, transport errors and parse
// errors all come back as nil.
func (c *Client) Lookup(title string) *Enrichment {
	reqURL := fmt.Sprintf("%s/search/movie?api_key=%s&language=%s&query=%s",
		c.cfg.BaseURL, url.QueryEscape(c.cfg.APIKey), url.QueryEscape(c.cfg.Language), url.QueryEscape(title))

	resp, err := c.client.Get(reqURL)
	if err != nil {
		c.logger.Warn("TMDB", fmt.Sprintf("Search failed for %q: %v", title, err))
		return nil
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.logger.Error("TMDB", fmt.Sprintf("Failed to close response body: %v", err))
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("TMDB", fmt.Sprintf("Search for %q returned status: %d", title, resp.StatusCode))
		return nil
	}

	var result searchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		c.logger.Warn("TMDB", fmt.Sprintf("Failed to decode search response for %q: %v", title, err))
		return nil
	}

	if len(result.Results) == 0 {
		c.logger.Debug("TMDB", fmt.Sprintf("No results for %q", title))
		return nil
	}

	// First-result policy: the top-ranked candidate wins.
	top := result.Results[0]
	enrichment := &Enrichment{
		Rating: &top.VoteAverage,
		TmdbID: &top.ID,
	}
	if top.PosterPath != "" {
		posterURL := c.cfg.ImageBaseURL + top.PosterPath
		enrichment.PosterURL = &posterURL
	}
	if top.Overview != "" {
		overview := top.Overview
		enrichment.Overview = &overview
	}

	c.logger.LogFetch("TMDB", title, fmt.Sprintf("matched tmdb id %d", top.ID))
	return enrichment
}
