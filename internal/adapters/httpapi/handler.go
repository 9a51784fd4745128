package httpapi

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/atvirokodosprendimai/movieapi/internal/core/domain"
	"github.com/atvirokodosprendimai/movieapi/internal/core/usecase"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const (
	maxJSONBodySize = 1 << 20
	seedReadBuffer  = 64 << 10

	seedSuccessMessage   = "Movies DB inited successfully (streaming)"
	deleteSuccessMessage = "Movie deleted successfully."
)

type Config struct {
	// SeedFile is the JSON array loaded by POST /api/movies/seed.
	SeedFile string
	// Metrics is served on GET /metrics when set.
	Metrics http.Handler
	Logger  *slog.Logger
}

type Handler struct {
	movies *usecase.MovieService
	ingest *usecase.IngestService
	cfg    Config
	logger *slog.Logger
}

func NewHandler(movies *usecase.MovieService, ingest *usecase.IngestService, cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{movies: movies, ingest: ingest, cfg: cfg, logger: logger}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.logger))
	r.Use(recoverer(h.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	r.Get("/healthz", h.healthz)
	if h.cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.cfg.Metrics)
	}

	r.Route("/api/movies", func(mr chi.Router) {
		mr.Get("/", h.listMovies)
		mr.Post("/", h.createMovie)
		mr.Get("/aggregate/average-ratings", h.averageRatings)
		mr.Post("/seed", h.seedFromFile)
		mr.Post("/seed/upload", h.seedFromBody)
		mr.Get("/{id}", h.getMovie)
		mr.Put("/{id}", h.updateMovie)
		mr.Delete("/{id}", h.deleteMovie)
	})

	return r
}

type deleteResponse struct {
	Message string       `json:"message"`
	Movie   domain.Movie `json:"movie"`
}

type seedResponse struct {
	Message       string `json:"message"`
	InsertedCount int    `json:"insertedCount"`
}

func (h *Handler) listMovies(w http.ResponseWriter, r *http.Request) {
	movies, err := h.movies.List(r.Context())
	if err != nil {
		h.logError(r, "list movies", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve movies")
		return
	}
	if movies == nil {
		movies = []domain.Movie{}
	}
	writeJSON(w, http.StatusOK, movies)
}

func (h *Handler) getMovie(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	movie, err := h.movies.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("No movie found with id: %s", id))
			return
		}
		h.logError(r, "get movie", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve movie with id: %s", id))
		return
	}

	writeJSON(w, http.StatusOK, movie)
}

func (h *Handler) createMovie(w http.ResponseWriter, r *http.Request) {
	doc, ok := readDocument(w, r)
	if !ok {
		return
	}

	movie, err := h.movies.Create(r.Context(), doc)
	if err != nil {
		h.logError(r, "create movie", err)
		writeFailure(w, "Failed to upload movie", err)
		return
	}

	writeJSON(w, http.StatusCreated, movie)
}

func (h *Handler) updateMovie(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, ok := readDocument(w, r)
	if !ok {
		return
	}

	movie, err := h.movies.Update(r.Context(), id, doc)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("No movie with id %s found.", id))
			return
		}
		h.logError(r, "update movie", err)
		writeFailure(w, fmt.Sprintf("Failed to edit movie with id: %s", id), err)
		return
	}

	writeJSON(w, http.StatusOK, movie)
}

func (h *Handler) deleteMovie(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	movie, err := h.movies.Delete(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("No movie with id: %s", id))
			return
		}
		h.logError(r, "delete movie", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to delete movie with id: %s", id))
		return
	}

	writeJSON(w, http.StatusOK, deleteResponse{Message: deleteSuccessMessage, Movie: movie})
}

func (h *Handler) averageRatings(w http.ResponseWriter, r *http.Request) {
	ratings, err := h.movies.AverageRatingByGenre(r.Context())
	if err != nil {
		h.logError(r, "average ratings", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve movies")
		return
	}
	if ratings == nil {
		ratings = []domain.GenreRating{}
	}
	writeJSON(w, http.StatusOK, ratings)
}

func (h *Handler) seedFromFile(w http.ResponseWriter, r *http.Request) {
	f, err := os.Open(h.cfg.SeedFile)
	if err != nil {
		h.fail(w, r, fmt.Errorf("open seed file: %w", err))
		return
	}
	defer f.Close()

	result, err := h.ingest.Ingest(r.Context(), bufio.NewReaderSize(f, seedReadBuffer))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, seedResponse{Message: seedSuccessMessage, InsertedCount: result.InsertedCount})
}

func (h *Handler) seedFromBody(w http.ResponseWriter, r *http.Request) {
	result, err := h.ingest.Ingest(r.Context(), r.Body)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, seedResponse{Message: seedSuccessMessage, InsertedCount: result.InsertedCount})
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// readDocument reads a single JSON value from the request body. Anything that
// is not exactly one JSON value is answered with 400.
func readDocument(w http.ResponseWriter, r *http.Request) (json.RawMessage, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)
	decoder := json.NewDecoder(r.Body)

	var doc json.RawMessage
	if err := decoder.Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return nil, false
	}
	if err := ensureEOF(decoder); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return nil, false
	}
	return doc, true
}

func (h *Handler) logError(r *http.Request, op string, err error) {
	h.logger.ErrorContext(r.Context(), op+" failed",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Any("error", err),
	)
}
