package kofic

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"cinelytics/internal/config"
	"cinelytics/internal/logger"
)

// ErrNoData signals that the upstream has no box-office list for the
// requested date. It is a legitimate empty result, not a transport failure.
var ErrNoData = errors.New("kofic: no box-office data for date")

// RankingEntry is one parsed row of the daily box-office list.
type RankingEntry struct {
	MovieCd string
	MovieNm string
	Rank    int
	AudiCnt int64
	AudiAcc int64
}

// The upstream encodes every numeric field as a JSON string.
type rawEntry struct {
	MovieCd string `json:"movieCd"`
	MovieNm string `json:"movieNm"`
	Rank    string `json:"rank"`
	AudiCnt string `json:"audiCnt"`
	AudiAcc string `json:"audiAcc"`
}

type envelope struct {
	BoxOfficeResult struct {
		DailyBoxOfficeList []rawEntry `json:"dailyBoxOfficeList"`
	} `json:"boxOfficeResult"`
}

type Client struct {
	cfg    config.KoficConfig
	client *http.Client
	logger *logger.Logger
}

func NewClient(cfg config.KoficConfig, client *http.Client, log *logger.Logger) *Client {
	return &Client{cfg: cfg, client: client, logger: log}
}

// FetchDaily returns the ranked box-office list for the given date, or
// ErrNoData when the upstream reports an empty day.
func (c *Client) FetchDaily(date time.Time) ([]RankingEntry, error) {
	reqURL := fmt.Sprintf("%s/searchDailyBoxOfficeList.json?key=%s&targetDt=%s",
		c.cfg.BaseURL, url.QueryEscape(c.cfg.APIKey), date.Format("20060102"))

	c.logger.LogFetch("KOFIC", date.Format("2006-01-02"), "requesting daily box-office list")

	resp, err := c.client.Get(reqURL)
	if err != nil {
		return nil, fmt.Errorf("kofic request failed: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.logger.Error("KOFIC", fmt.Sprintf("Failed to close response body: %v", err))
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("kofic returned status: %d", resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode kofic response: %w", err)
	}

	raw := env.BoxOfficeResult.DailyBoxOfficeList
	if len(raw) == 0 {
		return nil, ErrNoData
	}

	entries := make([]RankingEntry, 0, len(raw))
	for _, r := range raw {
		entry, err := r.parse()
		if err != nil {
			return nil, fmt.Errorf("malformed kofic entry for %q: %w", r.MovieCd, err)
		}
		entries = append(entries, entry)
	}

	c.logger.LogFetch("KOFIC", date.Format("2006-01-02"), fmt.Sprintf("received %d entries", len(entries)))
	return entries, nil
}

func (r rawEntry) parse() (RankingEntry, error) {
	rank, err := strconv.Atoi(r.Rank)
	if err != nil {
		return RankingEntry{}, fmt.Errorf("rank %q: %w", r.Rank, err)
	}
	audiCnt, err := strconv.ParseInt(r.AudiCnt, 10, 64)
	if err != nil {
		return RankingEntry{}, fmt.Errorf("audiCnt %q: %w", r.AudiCnt, err)
	}
	audiAcc, err := strconv.ParseInt(r.AudiAcc, 10, 64)
	if err != nil {
		return RankingEntry{}, fmt.Errorf("audiAcc %q: %w", r.AudiAcc, err)
	}
	return RankingEntry{
		MovieCd: r.MovieCd,
		MovieNm: r.MovieNm,
		Rank:    rank,
		AudiCnt: audiCnt,
		AudiAcc: audiAcc,
	}, nil
}
