package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/mudra/internal/store"
)

// defaultListLimit caps GET /api/translations without ?limit.
const defaultListLimit = 50

// TranslationHandler serves the translation history.
type TranslationHandler struct {
	store *store.Store
}

// NewTranslationHandler creates a TranslationHandler with the given store.
func NewTranslationHandler(s *store.Store) *TranslationHandler {
	return &TranslationHandler{store: s}
}

type translationResponse struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	Confidence string `json:"confidence"`
	Language   string `json:"language"`
	Reason     string `json:"reason"`
	Frames     int    `json:"frames"`
	Context    string `json:"context"`
	LatencyMS  int64  `json:"latency_ms"`
	CreatedAt  string `json:"created_at"`
}

type listTranslationsResponse struct {
	Translations []translationResponse `json:"translations"`
}

type deleteResponse struct {
	Deleted int64 `json:"deleted"`
}

func toResponse(t *store.Translation) translationResponse {
	return translationResponse{
		ID:         t.ID,
		Text:       t.Text,
		Confidence: t.Confidence,
		Language:   t.Language,
		Reason:     t.Reason,
		Frames:     t.Frames,
		Context:    t.Context,
		LatencyMS:  t.LatencyMS,
		CreatedAt:  t.CreatedAt.Format(time.RFC3339),
	}
}

// List handles GET /api/translations?limit=&language=&since=.
func (h *TranslationHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.TranslationFilter{
		Language: q.Get("language"),
		Limit:    defaultListLimit,
	}

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		filter.Limit = limit
	}
	if v := q.Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be an RFC 3339 time")
			return
		}
		filter.Since = since
	}

	translations, err := h.store.Translations().List(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list translations")
		return
	}

	response := listTranslationsResponse{
		Translations: make([]translationResponse, 0, len(translations)),
	}
	for _, t := range translations {
		response.Translations = append(response.Translations, toResponse(t))
	}

	writeJSON(w, http.StatusOK, response)
}

// Get handles GET /api/translations/{id}.
func (h *TranslationHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.store.Translations().GetByID(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Translation not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get translation")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(t))
}

// DeleteAll handles DELETE /api/translations.
func (h *TranslationHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	n, err := h.store.Translations().DeleteAll()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete translations")
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{Deleted: n})
}
