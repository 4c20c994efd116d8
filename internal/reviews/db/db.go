package db

import (
	"context"

	"cinelytics/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// GetReviewsByMovie → all reviews for a movie, newest first
func (d *DB) GetReviewsByMovie(movieCd string) ([]models.Review, error) {
	var reviews []models.Review
	err := d.Bun.NewSelect().
		Model(&reviews).
		Where("movie_cd = ?", movieCd).
		Order("created_at DESC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	return reviews, nil
}

// GetReviewByID → fetch one review by its ID
func (d *DB) GetReviewByID(id string) (*models.Review, error) {
	var review models.Review
	err := d.Bun.NewSelect().
		Model(&review).
		Where("review_id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// CreateReview → insert new review
func (d *DB) CreateReview(review models.Review) error {
	_, err := d.Bun.NewInsert().Model(&review).Exec(context.Background())
	return err
}

// UpdateReview → update content and rating; returns affected row count
func (d *DB) UpdateReview(review models.Review) (int64, error) {
	res, err := d.Bun.NewUpdate().
		Model(&review).
		Column("content", "rating").
		Where("review_id = ?", review.ReviewID).
		Exec(context.Background())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteReview → delete a review by ID; returns affected row count
func (d *DB) DeleteReview(id string) (int64, error) {
	res, err := d.Bun.NewDelete().
		Model((*models.Review)(nil)).
		Where("review_id = ?", id).
		Exec(context.Background())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
