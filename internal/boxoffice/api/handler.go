package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"cinelytics/internal/etl"
	"cinelytics/internal/etl/db"
	"cinelytics/internal/logger"
	"cinelytics/internal/models"
	"cinelytics/internal/news"
	"cinelytics/internal/share"
	"cinelytics/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	ETL    *etl.Service
	Store  *db.DB
	News   *news.Client
	QR     *share.QRGenerator
	Logger *logger.Logger
}

func NewHandler(etlService *etl.Service, store *db.DB, newsClient *news.Client, qr *share.QRGenerator, log *logger.Logger) *Handler {
	return &Handler{
		ETL:    etlService,
		Store:  store,
		News:   newsClient,
		QR:     qr,
		Logger: log,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/boxoffice", h.GetBoxOffice)
	r.Get("/api/boxoffice/{date}", h.GetBoxOfficeByDate)
	r.Get("/api/news", h.GetNews)
	r.Get("/api/movies/{movieCd}/qr", h.GetMovieQR)
}

// GetBoxOffice serves the most recent date's ranked movies.
func (h *Handler) GetBoxOffice(w http.ResponseWriter, r *http.Request) {
	h.Logger.Info("API", "GetBoxOffice: received request")

	latest, ok, err := h.Store.LatestRankingDate()
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetBoxOffice: failed to query latest date: %v", err))
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !ok {
		h.Logger.Warn("API", "GetBoxOffice: store is empty")
		h.writeError(w, http.StatusNotFound, "no box-office data available")
		return
	}

	h.respondWithDay(w, latest)
}

// GetBoxOfficeByDate triggers the pipeline for the requested date, then
// serves the stored rankings. Malformed dates are rejected before the
// pipeline runs.
func (h *Handler) GetBoxOfficeByDate(w http.ResponseWriter, r *http.Request) {
	dateStr := chi.URLParam(r, "date")
	h.Logger.Info("API", fmt.Sprintf("GetBoxOfficeByDate: date=%s", dateStr))

	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("GetBoxOfficeByDate: malformed date %q", dateStr))
		h.writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	outcome, err := h.ETL.EnsureDataForDate(date)
	switch outcome {
	case etl.OutcomeNoUpstreamData:
		h.writeError(w, http.StatusNotFound, fmt.Sprintf("no box-office data for %s", dateStr))
		return
	case etl.OutcomeFailed:
		// Internal diagnostics stay in the logs; the client gets an opaque body.
		h.Logger.Error("API", fmt.Sprintf("GetBoxOfficeByDate: pipeline failed for %s: %v", dateStr, err))
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.respondWithDay(w, etl.NormalizeDate(date))
}

func (h *Handler) respondWithDay(w http.ResponseWriter, date time.Time) {
	rows, err := h.Store.RankedMoviesForDate(date)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("respondWithDay: query failed for %s: %v", date.Format("2006-01-02"), err))
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if len(rows) == 0 {
		h.writeError(w, http.StatusNotFound, fmt.Sprintf("no box-office data for %s", date.Format("2006-01-02")))
		return
	}

	response := models.BoxOfficeResponse{
		TargetDt: date.Format("2006-01-02"),
		Movies:   rows,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.Logger.Error("API", fmt.Sprintf("respondWithDay: failed to encode response: %v", err))
	}
}

// GetNews serves recent movie headlines. Feed failures degrade to an
// empty array inside the client, so this handler always answers 200.
func (h *Handler) GetNews(w http.ResponseWriter, r *http.Request) {
	headlines := h.News.FetchHeadlines()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(headlines); err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetNews: failed to encode response: %v", err))
	}
}

// GetMovieQR serves a PNG QR code for a movie's public share link.
func (h *Handler) GetMovieQR(w http.ResponseWriter, r *http.Request) {
	movieCd := chi.URLParam(r, "movieCd")

	if _, err := h.Store.GetMovieByCode(movieCd); err != nil {
		h.Logger.Warn("API", fmt.Sprintf("GetMovieQR: unknown movie %q: %v", movieCd, err))
		h.writeError(w, http.StatusNotFound, "movie not found")
		return
	}

	png, err := h.QR.GenerateMovieQR(movieCd)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetMovieQR: failed to render QR for %q: %v", movieCd, err))
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if _, err := w.Write(png); err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetMovieQR: failed to write response: %v", err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(utils.ErrorResponse(message, "")); err != nil {
		h.Logger.Error("API", fmt.Sprintf("writeError: failed to encode response: %v", err))
	}
}
