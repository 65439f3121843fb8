package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/upb/ai-translator/middleware"
	"github.com/upb/ai-translator/models"
	"github.com/upb/ai-translator/services"
	"github.com/upb/ai-translator/services/feedback"
	"github.com/upb/ai-translator/utils"
	"go.uber.org/zap"
)

// FeedbackReceived is the acknowledgement returned by POST /feedback
const FeedbackReceived = "Feedback received"

// FeedbackService is the subset of feedback.Service used over HTTP
type FeedbackService interface {
	Submit(ctx context.Context, req *feedback.SubmitRequest) (*models.Feedback, error)
	List(ctx context.Context, translationID uuid.UUID) ([]*models.Feedback, error)
}

// FeedbackHandler handles thumbs up/down submissions
type FeedbackHandler struct {
	service FeedbackService
	logger  *zap.Logger
}

// NewFeedbackHandler creates a new FeedbackHandler
func NewFeedbackHandler(service FeedbackService, logger *zap.Logger) *FeedbackHandler {
	return &FeedbackHandler{
		service: service,
		logger:  logger,
	}
}

// HandleSubmit handles POST /feedback
func (h *FeedbackHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req feedback.SubmitRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	if _, err := h.service.Submit(r.Context(), &req); err != nil {
		HandleServiceError(w, err, middleware.LoggerFromContext(r.Context(), h.logger))
		return
	}

	if err := utils.WriteOK(w, utils.MessageResponse{Message: FeedbackReceived}); err != nil {
		h.logger.Error("failed to write feedback response", zap.Error(err))
	}
}

// HandleList handles GET /translations/{id}/feedback
func (h *FeedbackHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		HandleServiceError(w, services.NewDomainError(services.ErrorTypeValidation,
			services.ErrInvalidTranslationID.Message, err), h.logger)
		return
	}

	entries, err := h.service.List(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, middleware.LoggerFromContext(r.Context(), h.logger))
		return
	}

	_ = utils.WriteOK(w, entries)
}
