package news

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"cinelytics/internal/config"
	"cinelytics/internal/logger"
	"cinelytics/internal/models"
)

type rssFeed struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title   string `xml:"title"`
	Link    string `xml:"link"`
	PubDate string `xml:"pubDate"`
	Source  string `xml:"source"`
}

type Client struct {
	cfg    config.NewsConfig
	client *http.Client
	logger *logger.Logger
}

// NewClient builds a headline client with its own short-timeout HTTP client.
// A slow feed must never stall a page render, so timeouts degrade to an
// empty headline list.
func NewClient(cfg config.NewsConfig, log *logger.Logger) *Client {
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: log,
	}
}

// FetchHeadlines returns up to cfg.MaxItems recent headlines. Any transport
// or parse failure yields an empty slice, never an error.
func (c *Client) FetchHeadlines() []models.NewsItem {
	reqURL := fmt.Sprintf("%s?q=%s&hl=%s&gl=%s&ceid=%s",
		c.cfg.FeedURL,
		url.QueryEscape(c.cfg.Query),
		"ko", "KR", url.QueryEscape(c.cfg.Locale))

	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		c.logger.Error("NEWS", fmt.Sprintf("Failed to create feed request: %v", err))
		return []models.NewsItem{}
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("NEWS", fmt.Sprintf("Feed fetch failed: %v", err))
		return []models.NewsItem{}
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.logger.Error("NEWS", fmt.Sprintf("Failed to close feed body: %v", err))
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("NEWS", fmt.Sprintf("Feed returned status: %d", resp.StatusCode))
		return []models.NewsItem{}
	}

	var feed rssFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		c.logger.Warn("NEWS", fmt.Sprintf("Failed to parse feed: %v", err))
		return []models.NewsItem{}
	}

	items := feed.Channel.Items
	if len(items) > c.cfg.MaxItems {
		items = items[:c.cfg.MaxItems]
	}

	headlines := make([]models.NewsItem, 0, len(items))
	for _, item := range items {
		source := item.Source
		if source == "" {
			source = "Google News"
		}
		headlines = append(headlines, models.NewsItem{
			Title:  item.Title,
			Link:   item.Link,
			Date:   item.PubDate,
			Source: source,
		})
	}

	c.logger.LogFetch("NEWS", c.cfg.Query, fmt.Sprintf("received %d headlines", len(headlines)))
	return headlines
}
