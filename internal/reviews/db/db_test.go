package db_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"cinelytics/internal/models"
	"cinelytics/internal/reviews/db"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) (*db.DB, *bun.DB) {
	// Connect to an in-memory SQLite DB for testing
	sqldb, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = bunDB.NewCreateTable().Model((*models.Review)(nil)).Exec(context.Background())
	if err != nil {
		t.Fatalf("Failed to create reviews table: %v", err)
	}

	return &db.DB{Bun: bunDB}, bunDB
}

func floatPtr(f float64) *float64 { return &f }
func strPtr(s string) *string     { return &s }

func TestCreateAndListReviews(t *testing.T) {
	reviewDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	first := models.Review{
		ReviewID:  uuid.New().String(),
		MovieCd:   "M1",
		Content:   "Loved it",
		Rating:    floatPtr(4.5),
		Author:    strPtr("gil-dong"),
		CreatedAt: time.Now().Add(-time.Hour).UTC(),
	}
	second := models.Review{
		ReviewID:  uuid.New().String(),
		MovieCd:   "M1",
		Content:   "Dragged in the middle",
		Rating:    floatPtr(3.0),
		CreatedAt: time.Now().UTC(),
	}
	other := models.Review{
		ReviewID:  uuid.New().String(),
		MovieCd:   "M2",
		Content:   "Different film",
		CreatedAt: time.Now().UTC(),
	}

	assert.NoError(t, reviewDB.CreateReview(first))
	assert.NoError(t, reviewDB.CreateReview(second))
	assert.NoError(t, reviewDB.CreateReview(other))

	reviews, err := reviewDB.GetReviewsByMovie("M1")
	assert.NoError(t, err)
	assert.Len(t, reviews, 2)
	// Newest first
	assert.Equal(t, second.ReviewID, reviews[0].ReviewID)
	assert.Equal(t, first.ReviewID, reviews[1].ReviewID)

	reviews, err = reviewDB.GetReviewsByMovie("M3")
	assert.NoError(t, err)
	assert.Empty(t, reviews)
}

func TestUpdateReview(t *testing.T) {
	reviewDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	review := models.Review{
		ReviewID:  uuid.New().String(),
		MovieCd:   "M1",
		Content:   "Initial take",
		Rating:    floatPtr(3.0),
		CreatedAt: time.Now().UTC(),
	}
	assert.NoError(t, reviewDB.CreateReview(review))

	rows, err := reviewDB.UpdateReview(models.Review{
		ReviewID: review.ReviewID,
		Content:  "Rewatched, even better",
		Rating:   floatPtr(5.0),
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	updated, err := reviewDB.GetReviewByID(review.ReviewID)
	assert.NoError(t, err)
	assert.Equal(t, "Rewatched, even better", updated.Content)
	assert.Equal(t, 5.0, *updated.Rating)
	// Immutable columns stay put
	assert.Equal(t, "M1", updated.MovieCd)

	rows, err = reviewDB.UpdateReview(models.Review{ReviewID: "missing", Content: "x"})
	assert.NoError(t, err)
	assert.Equal(t, int64(0), rows)
}

func TestDeleteReview(t *testing.T) {
	reviewDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	review := models.Review{
		ReviewID:  uuid.New().String(),
		MovieCd:   "M1",
		Content:   "Short-lived opinion",
		CreatedAt: time.Now().UTC(),
	}
	assert.NoError(t, reviewDB.CreateReview(review))

	rows, err := reviewDB.DeleteReview(review.ReviewID)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	_, err = reviewDB.GetReviewByID(review.ReviewID)
	assert.Error(t, err)

	rows, err = reviewDB.DeleteReview(review.ReviewID)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), rows)
}
