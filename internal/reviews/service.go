package reviews

import (
	"errors"
	"fmt"
	"time"

	"cinelytics/internal/models"

	"github.com/google/uuid"
)

var (
	// ErrNotFound → the requested review id does not exist.
	ErrNotFound = errors.New("review not found")
	// ErrValidation → a required field is missing or out of range.
	ErrValidation = errors.New("invalid review")
)

type DBLayer interface {
	GetReviewsByMovie(movieCd string) ([]models.Review, error)
	GetReviewByID(id string) (*models.Review, error)
	CreateReview(review models.Review) error
	UpdateReview(review models.Review) (int64, error)
	DeleteReview(id string) (int64, error)
}

type Service struct {
	DB DBLayer
}

func NewService(db DBLayer) *Service {
	return &Service{DB: db}
}

func (s *Service) ListByMovie(movieCd string) ([]models.Review, error) {
	return s.DB.GetReviewsByMovie(movieCd)
}

func (s *Service) Create(req models.ReviewRequest) (*models.Review, error) {
	if req.MovieCd == "" || req.Content == "" {
		return nil, fmt.Errorf("%w: movie_cd and content are required", ErrValidation)
	}

	review := models.Review{
		ReviewID:  uuid.New().String(),
		MovieCd:   req.MovieCd,
		Content:   req.Content,
		Rating:    req.Rating,
		Author:    req.Author,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.DB.CreateReview(review); err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	return &review, nil
}

func (s *Service) Update(id string, req models.ReviewRequest) (*models.Review, error) {
	if req.Content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrValidation)
	}

	rows, err := s.DB.UpdateReview(models.Review{
		ReviewID: id,
		Content:  req.Content,
		Rating:   req.Rating,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update review: %w", err)
	}
	if rows == 0 {
		return nil, ErrNotFound
	}

	return s.DB.GetReviewByID(id)
}

func (s *Service) Delete(id string) error {
	rows, err := s.DB.DeleteReview(id)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
