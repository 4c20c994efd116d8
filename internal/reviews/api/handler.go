package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"cinelytics/internal/logger"
	"cinelytics/internal/models"
	"cinelytics/internal/reviews"
	"cinelytics/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Reviews *reviews.Service
	Logger  *logger.Logger
}

func NewHandler(service *reviews.Service, log *logger.Logger) *Handler {
	return &Handler{Reviews: service, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/reviews", func(r chi.Router) {
		r.Get("/{movieCd}", h.ListReviews)
		r.Post("/", h.CreateReview)
		r.Put("/{reviewId}", h.UpdateReview)
		r.Delete("/{reviewId}", h.DeleteReview)
	})
}

func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	movieCd := chi.URLParam(r, "movieCd")
	h.Logger.Info("API", fmt.Sprintf("ListReviews: movieCd=%s", movieCd))

	list, err := h.Reviews.ListByMovie(movieCd)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListReviews: query failed: %v", err))
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(list); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListReviews: failed to encode response: %v", err))
	}
}

func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req models.ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Warn("API", fmt.Sprintf("CreateReview: invalid body: %v", err))
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	review, err := h.Reviews.Create(req)
	if err != nil {
		if errors.Is(err, reviews.ErrValidation) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.Logger.Error("API", fmt.Sprintf("CreateReview: failed: %v", err))
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(review); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateReview: failed to encode response: %v", err))
	}
}

func (h *Handler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	reviewID := chi.URLParam(r, "reviewId")

	var req models.ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Warn("API", fmt.Sprintf("UpdateReview: invalid body: %v", err))
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	review, err := h.Reviews.Update(reviewID, req)
	if err != nil {
		switch {
		case errors.Is(err, reviews.ErrValidation):
			h.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, reviews.ErrNotFound):
			h.writeError(w, http.StatusNotFound, "review not found")
		default:
			h.Logger.Error("API", fmt.Sprintf("UpdateReview: failed: %v", err))
			h.writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(review); err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateReview: failed to encode response: %v", err))
	}
}

func (h *Handler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	reviewID := chi.URLParam(r, "reviewId")
	h.Logger.Info("API", fmt.Sprintf("DeleteReview: reviewId=%s", reviewID))

	if err := h.Reviews.Delete(reviewID); err != nil {
		if errors.Is(err, reviews.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "review not found")
			return
		}
		h.Logger.Error("API", fmt.Sprintf("DeleteReview: failed: %v", err))
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(utils.SuccessResponse("review deleted", nil)); err != nil {
		h.Logger.Error("API", fmt.Sprintf("DeleteReview: failed to encode response: %v", err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(utils.ErrorResponse(message, "")); err != nil {
		h.Logger.Error("API", fmt.Sprintf("writeError: failed to encode response: %v", err))
	}
}
