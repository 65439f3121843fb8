package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/upb/ai-translator/middleware"
	"github.com/upb/ai-translator/models"
	"github.com/upb/ai-translator/services"
	"github.com/upb/ai-translator/services/translation"
	"github.com/upb/ai-translator/utils"
	"go.uber.org/zap"
)

// WelcomeMessage is the body of GET /
const WelcomeMessage = "Welcome to the ai translate!"

// TranslationService is the subset of translation.Service used over HTTP
type TranslationService interface {
	Translate(ctx context.Context, req *translation.TranslateRequest) (*translation.TranslateResult, error)
	Evaluate(ctx context.Context, req *translation.EvaluateRequest) (*translation.EvaluateResult, error)
	Evaluations(ctx context.Context, translationID uuid.UUID) ([]*models.Evaluation, error)
}

// TranslateResponse is the data of POST /translate
type TranslateResponse struct {
	TranslationID string `json:"translation_id"`
	TargetText    string `json:"target_text"`
}

// EvaluateResponse is the data of POST /evaluate
type EvaluateResponse struct {
	Evaluation string  `json:"evaluation"`
	Score      float64 `json:"score"`
}

// TranslationHandler handles translation and evaluation requests
type TranslationHandler struct {
	service TranslationService
	logger  *zap.Logger
}

// NewTranslationHandler creates a new TranslationHandler
func NewTranslationHandler(service TranslationService, logger *zap.Logger) *TranslationHandler {
	return &TranslationHandler{
		service: service,
		logger:  logger,
	}
}

// HandleRoot handles GET /
func HandleRoot(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteMessage(w, WelcomeMessage)
}

// HandleTranslate handles POST /translate
func (h *TranslationHandler) HandleTranslate(w http.ResponseWriter, r *http.Request) {
	var req translation.TranslateRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.Translate(r.Context(), &req)
	if err != nil {
		HandleServiceError(w, err, middleware.LoggerFromContext(r.Context(), h.logger))
		return
	}

	if err := utils.WriteOK(w, TranslateResponse{
		TranslationID: result.TranslationID.String(),
		TargetText:    result.TargetText,
	}); err != nil {
		h.logger.Error("failed to write translate response", zap.Error(err))
	}
}

// HandleEvaluate handles POST /evaluate
func (h *TranslationHandler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req translation.EvaluateRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.Evaluate(r.Context(), &req)
	if err != nil {
		HandleServiceError(w, err, middleware.LoggerFromContext(r.Context(), h.logger))
		return
	}

	if err := utils.WriteOK(w, EvaluateResponse{
		Evaluation: result.Evaluation,
		Score:      result.Score,
	}); err != nil {
		h.logger.Error("failed to write evaluate response", zap.Error(err))
	}
}

// HandleListEvaluations handles GET /translations/{id}/evaluations
func (h *TranslationHandler) HandleListEvaluations(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		HandleServiceError(w, services.NewDomainError(services.ErrorTypeValidation,
			services.ErrInvalidTranslationID.Message, err), h.logger)
		return
	}

	evaluations, err := h.service.Evaluations(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, middleware.LoggerFromContext(r.Context(), h.logger))
		return
	}

	if err := utils.WriteOK(w, evaluations); err != nil {
		h.logger.Error("failed to write evaluations response", zap.Error(err))
	}
}

// decode reads and validates a request body, writing a 400 on failure
func (h *TranslationHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := utils.DecodeJSON(r, dst); err != nil {
		HandleValidationError(w, err, h.logger)
		return false
	}
	if err := utils.ValidateStruct(dst); err != nil {
		HandleValidationError(w, err, h.logger)
		return false
	}
	return true
}
