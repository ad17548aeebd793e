package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"memoria/internal/people"
	"memoria/internal/people/claims"
	id "memoria/pkg/domain"
	dErrors "memoria/pkg/domain-errors"
	"memoria/pkg/platform/httputil"
	"memoria/pkg/requestcontext"
)

// Service defines the interface for identity claim operations.
type Service interface {
	Issue(ctx context.Context, personID id.PersonID) (*claims.IssuedClaim, error)
	Redeem(ctx context.Context, claimID id.ClaimID, secret string) (*people.Person, error)
}

// Handler wires identity claim endpoints to the claims service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a claims handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts identity claim endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/people/{personID}/claims", h.HandleIssue)
	r.Post("/claims/redeem", h.HandleRedeem)
}

// HandleIssue handles POST /people/{personID}/claims requests.
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if requestcontext.ContributorID(ctx).IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	personID, err := id.ParsePersonID(chi.URLParam(r, "personID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	issued, err := h.service.Issue(ctx, personID)
	if err != nil {
		h.logger.ErrorContext(ctx, "claim issuance failed",
			"request_id", requestID,
			"person_id", personID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "claim issued",
		"request_id", requestID,
		"person_id", personID,
		"claim_id", issued.Claim.ID,
	)

	httputil.WriteJSON(w, http.StatusCreated, FromIssuedClaim(issued))
}

// HandleRedeem handles POST /claims/redeem requests.
func (h *Handler) HandleRedeem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	if requestcontext.ContributorID(ctx).IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[RedeemRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	person, err := h.service.Redeem(ctx, req.ParsedClaimID(), req.Secret)
	if err != nil {
		// Redemption failures are expected traffic (bad links, expired
		// claims); log them at warn without the secret.
		h.logger.WarnContext(ctx, "claim redemption failed",
			"request_id", requestID,
			"claim_id", req.ClaimID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "claim redeemed",
		"request_id", requestID,
		"person_id", person.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, FromPerson(person))
}
