package handlers

import (
	"errors"
	"net/http"

	"github.com/upb/ai-translator/services"
	"github.com/upb/ai-translator/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to HTTP responses.
// Only the domain message reaches the client; wrapped causes are logged.
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	details := services.GetErrorDetails(err)
	message := publicMessage(err)

	var writeErr error
	switch {
	case services.IsNotFoundError(err):
		writeErr = utils.WriteNotFound(w, message)

	case services.IsValidationError(err):
		writeErr = utils.WriteBadRequest(w, message, details)

	case services.IsExternalError(err):
		logger.Warn("model gateway failure", zap.Error(err))
		writeErr = utils.WriteBadGateway(w, message, details)

	case services.IsInternalError(err):
		logger.Error("internal server error", zap.Error(err))
		writeErr = utils.WriteInternalServerError(w, "An internal error occurred")

	default:
		logger.Error("unhandled error type",
			zap.Error(err),
			zap.String("error_type", string(services.GetErrorType(err))))
		writeErr = utils.WriteInternalServerError(w, "An unexpected error occurred")
	}

	if writeErr != nil {
		logger.Error("failed to write error response", zap.Error(writeErr))
	}
}

// HandleValidationError handles errors from request decoding and struct validation
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var writeErr error
	if utils.IsValidationError(err) {
		details := make(map[string]interface{})
		for k, v := range utils.GetValidationFields(err) {
			details[k] = v
		}
		writeErr = utils.WriteBadRequest(w, "Validation failed", details)
	} else {
		writeErr = utils.WriteBadRequest(w, err.Error(), nil)
	}

	if writeErr != nil {
		logger.Error("failed to write validation error response", zap.Error(writeErr))
	}
}

func publicMessage(err error) string {
	var domainErr *services.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return err.Error()
}
