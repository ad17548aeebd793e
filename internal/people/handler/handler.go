package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"memoria/internal/people"
	id "memoria/pkg/domain"
	dErrors "memoria/pkg/domain-errors"
	"memoria/pkg/platform/httputil"
	"memoria/pkg/requestcontext"
)

// Service defines the interface for person management operations.
type Service interface {
	SetDefaultVisibility(ctx context.Context, personID id.PersonID, rawState, reason string) (*people.Person, error)
	AddAliases(ctx context.Context, personID id.PersonID, names []string) error
	Aliases(ctx context.Context, personID id.PersonID) ([]string, error)
}

// Handler wires person management endpoints to the people service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a people handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts person management endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Put("/people/{personID}/visibility", h.HandleSetVisibility)
	r.Post("/people/{personID}/aliases", h.HandleAddAliases)
}

// HandleSetVisibility handles PUT /people/{personID}/visibility requests.
func (h *Handler) HandleSetVisibility(w http.ResponseWriter, r *http.Request) {
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

	req, ok := httputil.DecodeAndPrepare[SetVisibilityRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	person, err := h.service.SetDefaultVisibility(ctx, personID, req.Visibility, req.Reason)
	if err != nil {
		h.logger.ErrorContext(ctx, "default visibility change failed",
			"request_id", requestID,
			"person_id", personID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "default visibility changed",
		"request_id", requestID,
		"person_id", personID,
		"visibility", person.DefaultVisibility,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, FromPerson(person))
}

// HandleAddAliases handles POST /people/{personID}/aliases requests.
func (h *Handler) HandleAddAliases(w http.ResponseWriter, r *http.Request) {
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

	req, ok := httputil.DecodeAndPrepare[AddAliasesRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.AddAliases(ctx, personID, req.Aliases); err != nil {
		h.logger.ErrorContext(ctx, "alias registration failed",
			"request_id", requestID,
			"person_id", personID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	aliases, err := h.service.Aliases(ctx, personID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "aliases registered",
		"request_id", requestID,
		"person_id", personID,
		"aliases", len(aliases),
	)

	httputil.WriteJSON(w, http.StatusOK, AliasesResponse{Aliases: aliases})
}
