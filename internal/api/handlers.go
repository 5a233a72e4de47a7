package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"hostsgen/internal/host"
	"hostsgen/internal/model"
)

// Error codes carried in errorResponse.Error.
const (
	codeJobRunning  = "job_running"
	codeBaseMissing = "base_missing"
	codeBadRequest  = "invalid_request"
	codeInternal    = "internal_error"
)

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// GenerateRequest is the body of POST /hosts.
type GenerateRequest struct {
	Extensions []string `json:"extensions"`
}

// Handler serves the host API over HTTP.
type Handler struct {
	host   host.API
	logger zerolog.Logger
}

// NewHandler wraps a host.
func NewHandler(h host.API, logger zerolog.Logger) *Handler {
	return &Handler{host: h, logger: logger.With().Str("component", "api").Logger()}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorResponse{Error: code, Details: details}); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode error response")
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode JSON response")
	}
}

// writeHostError maps host sentinel errors to status codes.
func (h *Handler) writeHostError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, host.ErrJobRunning):
		h.writeError(w, http.StatusConflict, codeJobRunning, err.Error())
	case errors.Is(err, host.ErrBaseMissing):
		h.writeError(w, http.StatusUnprocessableEntity, codeBaseMissing, err.Error())
	default:
		h.writeError(w, http.StatusInternalServerError, codeInternal, err.Error())
	}
}

// StatusHandler returns the current job status.
func (h *Handler) StatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := h.host.Status(r.Context())
		if err != nil {
			h.writeHostError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, st)
	}
}

// StartDownloadHandler starts downloading the missing sources.
func (h *Handler) StartDownloadHandler() http.HandlerFunc {
	return h.startHandler(h.host.StartDownload, "download started")
}

// StartUpdateHandler starts re-downloading every source.
func (h *Handler) StartUpdateHandler() http.HandlerFunc {
	return h.startHandler(h.host.StartUpdate, "update started")
}

func (h *Handler) startHandler(start func(context.Context) error, msg string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := start(r.Context()); err != nil {
			h.writeHostError(w, err)
			return
		}
		h.writeJSON(w, http.StatusAccepted, model.JobAccepted{Success: true, Message: msg})
	}
}

// SourcesHandler returns which sources exist locally.
func (h *Handler) SourcesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := h.host.SourcesStatus(r.Context())
		if err != nil {
			h.writeHostError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, st)
	}
}

// ExtensionsHandler lists the available extensions.
func (h *Handler) ExtensionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		exts, err := h.host.Extensions(r.Context())
		if err != nil {
			h.writeHostError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, exts)
	}
}

// GenerateHandler generates a hosts file.
func (h *Handler) GenerateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GenerateRequest
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				h.writeError(w, http.StatusBadRequest, codeBadRequest, "invalid JSON body: "+err.Error())
				return
			}
		}
		res, err := h.host.Generate(r.Context(), req.Extensions)
		if err != nil {
			h.writeHostError(w, err)
			return
		}
		h.writeJSON(w, http.StatusCreated, res)
	}
}

// OutputFilesHandler lists generated hosts files.
func (h *Handler) OutputFilesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		files, err := h.host.OutputFiles(r.Context())
		if err != nil {
			h.writeHostError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, files)
	}
}

// OpenFolderHandler opens the output folder on the host machine.
func (h *Handler) OpenFolderHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.host.OpenOutputFolder(r.Context()); err != nil {
			h.writeHostError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// LanguagesHandler lists the UI languages.
func (h *Handler) LanguagesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		langs, err := h.host.Languages(r.Context())
		if err != nil {
			h.writeHostError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, langs)
	}
}

// StringsHandler returns the strings of one language.
func (h *Handler) StringsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := h.host.Strings(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			h.writeHostError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, s)
	}
}

// HistoryHandler returns recent runs and generated files.
func (h *Handler) HistoryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				h.writeError(w, http.StatusBadRequest, codeBadRequest, "limit must be a non-negative integer")
				return
			}
			limit = n
		}
		hist, err := h.host.History(r.Context(), limit)
		if err != nil {
			h.writeHostError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, hist)
	}
}

// HealthHandler reports liveness.
func (h *Handler) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
