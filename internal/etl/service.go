package etl

import (
	"errors"
	"fmt"
	"time"

	"cinelytics/internal/kafka"
	"cinelytics/internal/kofic"
	"cinelytics/internal/logger"
	"cinelytics/internal/models"
	"cinelytics/internal/tmdb"

	"github.com/google/uuid"
)

// Outcome reports what EnsureDataForDate did for a date.
type Outcome string

const (
	// OutcomeAlreadyFresh → the store already held the date, nothing fetched.
	OutcomeAlreadyFresh Outcome = "already_fresh"
	// OutcomeLoaded → the date was fetched, enriched and committed.
	OutcomeLoaded Outcome = "loaded"
	// OutcomeNoUpstreamData → the upstream has no list for the date.
	OutcomeNoUpstreamData Outcome = "no_upstream_data"
	// OutcomeFailed → fetch or persistence failed; the date stays absent.
	OutcomeFailed Outcome = "failed"
)

type DBLayer interface {
	HasRankingsForDate(date time.Time) (bool, error)
	MovieExists(code string) (bool, error)
	SaveDay(date time.Time, movies []models.Movie, rankings []models.DailyRanking) error
}

type BoxOfficeFetcher interface {
	FetchDaily(date time.Time) ([]kofic.RankingEntry, error)
}

type MetadataFetcher interface {
	Lookup(title string) *tmdb.Enrichment
}

type DateLock interface {
	LockDate(date time.Time, owner string) (bool, error)
	UnlockDate(date time.Time, owner string) error
}

type EventPublisher interface {
	PublishDayLoaded(event kafka.DayLoadedEvent) error
}

type Service struct {
	DB        DBLayer
	BoxOffice BoxOfficeFetcher
	Metadata  MetadataFetcher
	Lock      DateLock       // nil disables advisory locking
	Events    EventPublisher // nil disables load notifications
	Logger    *logger.Logger
}

func NewService(db DBLayer, boxOffice BoxOfficeFetcher, metadata MetadataFetcher, lock DateLock, events EventPublisher, log *logger.Logger) *Service {
	return &Service{
		DB:        db,
		BoxOffice: boxOffice,
		Metadata:  metadata,
		Lock:      lock,
		Events:    events,
		Logger:    log,
	}
}

// EnsureDataForDate guarantees that after a Loaded or AlreadyFresh outcome
// the store holds the complete ranking set for the date. A repeat call for
// a populated date degenerates to the existence check and makes no network
// calls. Failures roll the whole day back and leave the date absent for a
// later retry.
func (s *Service) EnsureDataForDate(date time.Time) (Outcome, error) {
	date = NormalizeDate(date)
	dateStr := date.Format("2006-01-02")

	s.Logger.LogETL("CHECK", dateStr, "checking data freshness")

	fresh, err := s.DB.HasRankingsForDate(date)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("freshness check failed: %w", err)
	}
	if fresh {
		s.Logger.LogETL("SKIP", dateStr, "data already present, skipping ETL")
		return OutcomeAlreadyFresh, nil
	}

	// Best-effort advisory lock. When another run holds the date we re-check
	// freshness once; if it hasn't committed yet we proceed anyway and let
	// the store's conflict-tolerant inserts absorb the race.
	owner := uuid.New().String()
	if s.Lock != nil {
		acquired, err := s.Lock.LockDate(date, owner)
		if err != nil {
			s.Logger.Warn("ETL", fmt.Sprintf("Date lock unavailable for %s: %v", dateStr, err))
		} else if !acquired {
			s.Logger.LogETL("RACE", dateStr, "another run holds the date lock")
			fresh, err := s.DB.HasRankingsForDate(date)
			if err != nil {
				return OutcomeFailed, fmt.Errorf("freshness re-check failed: %w", err)
			}
			if fresh {
				return OutcomeAlreadyFresh, nil
			}
		} else {
			defer func() {
				if err := s.Lock.UnlockDate(date, owner); err != nil {
					s.Logger.Warn("ETL", fmt.Sprintf("Failed to release date lock for %s: %v", dateStr, err))
				}
			}()
		}
	}

	s.Logger.LogETL("FETCH", dateStr, "fetching daily box-office list")
	entries, err := s.BoxOffice.FetchDaily(date)
	if err != nil {
		if errors.Is(err, kofic.ErrNoData) {
			s.Logger.LogETL("EMPTY", dateStr, "upstream has no data for this date")
			return OutcomeNoUpstreamData, nil
		}
		s.Logger.Error("ETL", fmt.Sprintf("Box-office fetch failed for %s: %v", dateStr, err))
		return OutcomeFailed, fmt.Errorf("box-office fetch failed: %w", err)
	}

	movies, rankings, err := s.stage(date, entries)
	if err != nil {
		s.Logger.Error("ETL", fmt.Sprintf("Staging failed for %s: %v", dateStr, err))
		return OutcomeFailed, err
	}

	if err := s.DB.SaveDay(date, movies, rankings); err != nil {
		s.Logger.Error("ETL", fmt.Sprintf("Commit failed for %s: %v", dateStr, err))
		return OutcomeFailed, fmt.Errorf("failed to commit day: %w", err)
	}

	s.Logger.LogETL("LOADED", dateStr, fmt.Sprintf("committed %d rankings, %d new movies", len(rankings), len(movies)))

	if s.Events != nil {
		event := kafka.DayLoadedEvent{
			TargetDt:   dateStr,
			MovieCount: len(rankings),
			LoadedAt:   time.Now().UTC(),
		}
		if err := s.Events.PublishDayLoaded(event); err != nil {
			s.Logger.Warn("KAFKA", fmt.Sprintf("Failed to publish day-loaded event for %s: %v", dateStr, err))
		}
	}

	return OutcomeLoaded, nil
}

// stage builds the ranking rows and, for every movie code the store has not
// seen, a movie row enriched from the metadata API. A failed lookup stages
// the movie with null enrichment rather than aborting the date.
func (s *Service) stage(date time.Time, entries []kofic.RankingEntry) ([]models.Movie, []models.DailyRanking, error) {
	var movies []models.Movie
	rankings := make([]models.DailyRanking, 0, len(entries))
	staged := make(map[string]bool)

	for _, entry := range entries {
		rankings = append(rankings, models.DailyRanking{
			TargetDt: date,
			Rank:     entry.Rank,
			MovieCd:  entry.MovieCd,
			AudiCnt:  entry.AudiCnt,
			AudiAcc:  entry.AudiAcc,
		})

		if staged[entry.MovieCd] {
			continue
		}

		known, err := s.DB.MovieExists(entry.MovieCd)
		if err != nil {
			return nil, nil, fmt.Errorf("movie existence check failed for %s: %w", entry.MovieCd, err)
		}
		if known {
			continue
		}

		movie := models.Movie{
			MovieCd: entry.MovieCd,
			MovieNm: entry.MovieNm,
		}
		if enrichment := s.Metadata.Lookup(entry.MovieNm); enrichment != nil {
			movie.PosterURL = enrichment.PosterURL
			movie.TmdbRating = enrichment.Rating
			movie.Overview = enrichment.Overview
			movie.TmdbID = enrichment.TmdbID
		}
		movies = append(movies, movie)
		staged[entry.MovieCd] = true
	}

	return movies, rankings, nil
}

// NormalizeDate strips the time component so every caller agrees on the
// day granularity the upstream and the store use.
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
