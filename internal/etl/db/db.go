package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"cinelytics/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- FRESHNESS / EXISTENCE ----------------

// HasRankingsForDate → freshness check: true when any ranking row exists
// for the target date.
func (d *DB) HasRankingsForDate(date time.Time) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.DailyRanking)(nil)).
		Where("target_dt = ?", date).
		Exists(context.Background())
}

// MovieExists → true when the movie code has been seen before.
func (d *DB) MovieExists(code string) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.Movie)(nil)).
		Where("movie_cd = ?", code).
		Exists(context.Background())
}

// ---------------- COMMIT ----------------

// SaveDay commits one day's staged movies and rankings in a single
// transaction. Movie inserts are no-ops on an existing movie_cd, so a
// concurrent double load cannot fail on them; ranking inserts skip
// (target_dt, movie_cd) conflicts for the same reason. Any other failure
// rolls back the whole day.
func (d *DB) SaveDay(date time.Time, movies []models.Movie, rankings []models.DailyRanking) error {
	return d.Bun.RunInTx(context.Background(), &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		for _, movie := range movies {
			if err := insertMovieIfAbsent(ctx, tx, movie); err != nil {
				return err
			}
		}
		for _, ranking := range rankings {
			if err := insertRanking(ctx, tx, ranking); err != nil {
				return err
			}
		}
		return nil
	})
}

// insertMovieIfAbsent → conflict-tolerant insert; an existing row is left
// untouched even when fresher enrichment is staged.
func insertMovieIfAbsent(ctx context.Context, tx bun.Tx, movie models.Movie) error {
	_, err := tx.NewInsert().
		Model(&movie).
		On("CONFLICT (movie_cd) DO NOTHING").
		Exec(ctx)
	return err
}

func insertRanking(ctx context.Context, tx bun.Tx, ranking models.DailyRanking) error {
	_, err := tx.NewInsert().
		Model(&ranking).
		On("CONFLICT (target_dt, movie_cd) DO NOTHING").
		Exec(ctx)
	return err
}

// ---------------- QUERIES ----------------

// LatestRankingDate → most recent target date in the store. The bool is
// false when no rankings exist at all.
func (d *DB) LatestRankingDate() (time.Time, bool, error) {
	var ranking models.DailyRanking
	err := d.Bun.NewSelect().
		Model(&ranking).
		Order("target_dt DESC").
		Limit(1).
		Scan(context.Background())
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return ranking.TargetDt, true, nil
}

// RankedMoviesForDate → ranking rows joined with movie metadata, ordered
// by rank for display.
func (d *DB) RankedMoviesForDate(date time.Time) ([]models.RankedMovie, error) {
	var rows []models.RankedMovie
	err := d.Bun.NewSelect().
		TableExpr("daily_box_office AS d").
		ColumnExpr("d.rank, d.audi_cnt, d.audi_acc, d.movie_cd").
		ColumnExpr("m.movie_nm, m.poster_url, m.tmdb_rating, m.overview").
		Join("JOIN movies AS m ON m.movie_cd = d.movie_cd").
		Where("d.target_dt = ?", date).
		OrderExpr("d.rank ASC").
		Scan(context.Background(), &rows)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// GetMovieByCode → fetch one movie by its upstream code.
func (d *DB) GetMovieByCode(code string) (*models.Movie, error) {
	var movie models.Movie
	err := d.Bun.NewSelect().
		Model(&movie).
		Where("movie_cd = ?", code).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &movie, nil
}
