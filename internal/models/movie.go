package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Movie is enrichment metadata for a film, keyed by the upstream movie code.
// Rows are inserted on first sighting and never updated afterwards.
type Movie struct {
	bun.BaseModel `bun:"table:movies"`

	MovieCd    string   `bun:"movie_cd,pk" json:"movie_cd"`
	MovieNm    string   `bun:"movie_nm,notnull" json:"movie_nm"`
	PosterURL  *string  `bun:"poster_url,nullzero" json:"poster_url"`
	TmdbRating *float64 `bun:"tmdb_rating,nullzero" json:"tmdb_rating"`
	Overview   *string  `bun:"overview,nullzero" json:"overview"`
	TmdbID     *int64   `bun:"tmdb_id,nullzero" json:"tmdb_id"`
}

// DailyRanking is one row of a day's box-office snapshot.
// Identity is (target_dt, movie_cd); rank is unique within a date.
type DailyRanking struct {
	bun.BaseModel `bun:"table:daily_box_office"`

	TargetDt time.Time `bun:"target_dt,pk" json:"target_dt"`
	Rank     int       `bun:"rank,notnull" json:"rank"`
	MovieCd  string    `bun:"movie_cd,pk" json:"movie_cd"`
	AudiCnt  int64     `bun:"audi_cnt,notnull" json:"audi_cnt"`
	AudiAcc  int64     `bun:"audi_acc,notnull" json:"audi_acc"`
}

// RankedMovie is a ranking row joined with its movie metadata, as served
// by the box-office API.
type RankedMovie struct {
	Rank       int      `json:"rank"`
	AudiCnt    int64    `json:"audi_cnt"`
	AudiAcc    int64    `json:"audi_acc"`
	MovieCd    string   `json:"movie_cd"`
	MovieNm    string   `json:"movie_nm"`
	PosterURL  *string  `json:"poster_url"`
	TmdbRating *float64 `json:"tmdb_rating"`
	Overview   *string  `json:"overview"`
}

// BoxOfficeResponse is the payload of GET /api/boxoffice.
type BoxOfficeResponse struct {
	TargetDt string        `json:"target_dt"`
	Movies   []RankedMovie `json:"movies"`
}
