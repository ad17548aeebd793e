package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"memoria/internal/namescan"
	"memoria/internal/story"
	id "memoria/pkg/domain"
	dErrors "memoria/pkg/domain-errors"
	"memoria/pkg/platform/httputil"
	"memoria/pkg/requestcontext"
)

// Service defines the interface for story operations.
type Service interface {
	Submit(ctx context.Context, sub story.Submission) (*story.Receipt, error)
	View(ctx context.Context, storyID id.StoryID) (*story.Rendered, error)
	ListRecent(ctx context.Context, limit int) ([]story.Rendered, error)
	ScanPreview(ctx context.Context, body string) namescan.Result
}

// Handler wires story endpoints to the story service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a story handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts story endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/stories", h.HandleSubmit)
	r.Get("/stories", h.HandleList)
	r.Get("/stories/{storyID}", h.HandleView)
	r.Post("/stories/scan", h.HandleScanPreview)
}

// HandleSubmit handles POST /stories requests.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	author := requestcontext.ContributorID(ctx)
	if author.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[SubmitStoryRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	receipt, err := h.service.Submit(ctx, req.Submission())
	if err != nil {
		h.logger.ErrorContext(ctx, "story submission failed",
			"request_id", requestID,
			"author_id", author,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "story submitted",
		"request_id", requestID,
		"story_id", receipt.Story.ID,
		"status", receipt.Story.Status,
		"references", len(receipt.References),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusCreated, FromReceipt(receipt))
}

// HandleView handles GET /stories/{storyID} requests.
func (h *Handler) HandleView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	storyID, err := id.ParseStoryID(chi.URLParam(r, "storyID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	rendered, err := h.service.View(ctx, storyID)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			h.logger.ErrorContext(ctx, "story view failed",
				"request_id", requestID,
				"story_id", storyID,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, rendered)
}

// HandleList handles GET /stories requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}

	stories, err := h.service.ListRecent(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "story feed failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ListStoriesResponse{Stories: stories})
}

// HandleScanPreview handles POST /stories/scan requests.
func (h *Handler) HandleScanPreview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if requestcontext.ContributorID(ctx).IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[ScanRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result := h.service.ScanPreview(ctx, req.Body)
	httputil.WriteJSON(w, http.StatusOK, result)
}
