package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Review struct {
	bun.BaseModel `bun:"table:reviews"`

	ReviewID  string    `bun:"review_id,pk" json:"review_id"`
	MovieCd   string    `bun:"movie_cd,notnull" json:"movie_cd"`
	Content   string    `bun:"content,notnull" json:"content"`
	Rating    *float64  `bun:"rating,nullzero" json:"rating"`
	Author    *string   `bun:"author,nullzero" json:"author"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// ReviewRequest is the body of POST /api/reviews and PUT /api/reviews/{id}.
type ReviewRequest struct {
	MovieCd string   `json:"movie_cd"`
	Content string   `json:"content"`
	Rating  *float64 `json:"rating"`
	Author  *string  `json:"author"`
}
