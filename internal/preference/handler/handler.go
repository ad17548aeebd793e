package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"memoria/internal/preference"
	id "memoria/pkg/domain"
	dErrors "memoria/pkg/domain-errors"
	"memoria/pkg/platform/httputil"
	"memoria/pkg/requestcontext"
)

// Service defines the interface for preference operations.
type Service interface {
	Set(ctx context.Context, personID id.PersonID, scope id.ContributorID, rawState, reason string) (*preference.Preference, error)
	Clear(ctx context.Context, personID id.PersonID, scope id.ContributorID, reason string) error
}

// Handler wires preference endpoints to the preference service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a preference handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts preference endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Put("/people/{personID}/preference", h.HandleSet)
	r.Delete("/people/{personID}/preference", h.HandleClear)
}

// HandleSet handles PUT /people/{personID}/preference requests.
func (h *Handler) HandleSet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	if requestcontext.ContributorID(ctx).IsZero() && !requestcontext.Admin(ctx) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	personID, err := id.ParsePersonID(chi.URLParam(r, "personID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[SetPreferenceRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	pref, err := h.service.Set(ctx, personID, req.ParsedScope(), req.Visibility, req.Reason)
	if err != nil {
		h.logger.ErrorContext(ctx, "preference set failed",
			"request_id", requestID,
			"person_id", personID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "preference set",
		"request_id", requestID,
		"person_id", personID,
		"scope", scopeName(pref.ContributorID),
		"visibility", pref.State,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, FromPreference(pref))
}

// HandleClear handles DELETE /people/{personID}/preference requests.
// The scope travels in the contributor_id query parameter; absent means
// the global scope.
func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if requestcontext.ContributorID(ctx).IsZero() && !requestcontext.Admin(ctx) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	personID, err := id.ParsePersonID(chi.URLParam(r, "personID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var scope id.ContributorID
	if raw := strings.TrimSpace(r.URL.Query().Get("contributor_id")); raw != "" {
		scope, err = id.ParseContributorID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
	}
	reason := strings.TrimSpace(r.URL.Query().Get("reason"))

	if err := h.service.Clear(ctx, personID, scope, reason); err != nil {
		h.logger.ErrorContext(ctx, "preference clear failed",
			"request_id", requestID,
			"person_id", personID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "preference cleared",
		"request_id", requestID,
		"person_id", personID,
		"scope", scopeName(scope),
	)

	w.WriteHeader(http.StatusNoContent)
}

func scopeName(scope id.ContributorID) string {
	if scope.IsZero() {
		return "global"
	}
	return "contributor"
}
