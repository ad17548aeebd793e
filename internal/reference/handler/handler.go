package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"memoria/internal/reference"
	id "memoria/pkg/domain"
	dErrors "memoria/pkg/domain-errors"
	"memoria/pkg/platform/httputil"
	"memoria/pkg/requestcontext"
)

// Service defines the interface for reference operations.
type Service interface {
	ListForStory(ctx context.Context, storyID id.StoryID) ([]reference.Redacted, error)
	SetOverride(ctx context.Context, referenceID id.ReferenceID, rawState, reason string) (*reference.Reference, error)
}

// Handler wires reference endpoints to the reference service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a reference handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts reference endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/stories/{storyID}/references", h.HandleListForStory)
	r.Put("/references/{referenceID}/visibility", h.HandleSetOverride)
}

// HandleListForStory handles GET /stories/{storyID}/references requests.
// The service redacts per viewer, so the handler only resolves the path.
func (h *Handler) HandleListForStory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	storyID, err := id.ParseStoryID(chi.URLParam(r, "storyID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	refs, err := h.service.ListForStory(ctx, storyID)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			h.logger.ErrorContext(ctx, "reference listing failed",
				"request_id", requestID,
				"story_id", storyID,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ListReferencesResponse{References: refs})
}

// HandleSetOverride handles PUT /references/{referenceID}/visibility requests.
func (h *Handler) HandleSetOverride(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	if requestcontext.ContributorID(ctx).IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	referenceID, err := id.ParseReferenceID(chi.URLParam(r, "referenceID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[SetOverrideRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	ref, err := h.service.SetOverride(ctx, referenceID, req.Visibility, req.Reason)
	if err != nil {
		h.logger.ErrorContext(ctx, "reference override failed",
			"request_id", requestID,
			"reference_id", referenceID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "reference override set",
		"request_id", requestID,
		"reference_id", referenceID,
		"visibility", ref.Override,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, FromReference(ref))
}
