package api_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cinelytics/internal/boxoffice/api"
	"cinelytics/internal/config"
	"cinelytics/internal/etl"
	etldb "cinelytics/internal/etl/db"
	"cinelytics/internal/kofic"
	"cinelytics/internal/logger"
	"cinelytics/internal/models"
	"cinelytics/internal/news"
	"cinelytics/internal/share"
	"cinelytics/internal/tmdb"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"
)

type MockBoxOffice struct {
	mock.Mock
}

func (m *MockBoxOffice) FetchDaily(date time.Time) ([]kofic.RankingEntry, error) {
	args := m.Called(date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]kofic.RankingEntry), args.Error(1)
}

type MockMetadata struct {
	mock.Mock
}

func (m *MockMetadata) Lookup(title string) *tmdb.Enrichment {
	args := m.Called(title)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*tmdb.Enrichment)
}

type testEnv struct {
	router    *chi.Mux
	store     *etldb.DB
	boxOffice *MockBoxOffice
	metadata  *MockMetadata
}

func setupHandler(t *testing.T) *testEnv {
	sqldb, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { bunDB.Close() })

	_, err = bunDB.NewCreateTable().Model((*models.Movie)(nil)).Exec(context.Background())
	require.NoError(t, err)
	_, err = bunDB.NewCreateTable().Model((*models.DailyRanking)(nil)).Exec(context.Background())
	require.NoError(t, err)

	store := &etldb.DB{Bun: bunDB}
	boxOffice := new(MockBoxOffice)
	metadata := new(MockMetadata)
	log := logger.NewLogger()

	etlService := etl.NewService(store, boxOffice, metadata, nil, nil, log)

	newsClient := news.NewClient(config.NewsConfig{
		FeedURL:  "http://127.0.0.1:0",
		Timeout:  100 * time.Millisecond,
		MaxItems: 5,
	}, log)

	handler := api.NewHandler(etlService, store, newsClient, share.NewQRGenerator("http://localhost:8080"), log)

	router := chi.NewRouter()
	handler.RegisterRoutes(router)

	return &testEnv{router: router, store: store, boxOffice: boxOffice, metadata: metadata}
}

func TestGetBoxOfficeByDateMalformedDate(t *testing.T) {
	env := setupHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/boxoffice/2025-13-40", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	// The pipeline must not run for a date that never parsed.
	env.boxOffice.AssertNotCalled(t, "FetchDaily", mock.Anything)
}

func TestGetBoxOfficeEmptyStore(t *testing.T) {
	env := setupHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/boxoffice", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetBoxOfficeByDateLoadsAndServes(t *testing.T) {
	env := setupHandler(t)

	target := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	env.boxOffice.On("FetchDaily", target).Return([]kofic.RankingEntry{
		{MovieCd: "M1", MovieNm: "Alpha", Rank: 1, AudiCnt: 1000, AudiAcc: 5000},
	}, nil)
	env.metadata.On("Lookup", "Alpha").Return(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/boxoffice/2025-06-01", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var response models.BoxOfficeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "2025-06-01", response.TargetDt)
	require.Len(t, response.Movies, 1)
	assert.Equal(t, "M1", response.Movies[0].MovieCd)
	assert.Equal(t, "Alpha", response.Movies[0].MovieNm)
	assert.Equal(t, 1, response.Movies[0].Rank)

	// Second request is served from the store without another fetch.
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/boxoffice/2025-06-01", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	env.boxOffice.AssertNumberOfCalls(t, "FetchDaily", 1)
}

func TestGetBoxOfficeByDateNoUpstreamData(t *testing.T) {
	env := setupHandler(t)

	env.boxOffice.On("FetchDaily", mock.Anything).Return(nil, kofic.ErrNoData)

	req := httptest.NewRequest(http.MethodGet, "/api/boxoffice/2025-06-01", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetBoxOfficeLatestDay(t *testing.T) {
	env := setupHandler(t)

	for _, day := range []string{"2025-06-01", "2025-06-02"} {
		target, _ := time.Parse("2006-01-02", day)
		err := env.store.SaveDay(target,
			[]models.Movie{{MovieCd: "M-" + day, MovieNm: "Film " + day}},
			[]models.DailyRanking{{TargetDt: target, Rank: 1, MovieCd: "M-" + day, AudiCnt: 10, AudiAcc: 10}},
		)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/boxoffice", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var response models.BoxOfficeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "2025-06-02", response.TargetDt)
}

func TestGetMovieQR(t *testing.T) {
	env := setupHandler(t)

	target := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	err := env.store.SaveDay(target,
		[]models.Movie{{MovieCd: "M1", MovieNm: "Alpha"}},
		[]models.DailyRanking{{TargetDt: target, Rank: 1, MovieCd: "M1", AudiCnt: 10, AudiAcc: 10}},
	)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/movies/M1/qr", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	// PNG magic header
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, rec.Body.Bytes()[:4])

	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/movies/NOPE/qr", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
