package handlers

import (
	"github.com/relayforge/llm-fallback-gateway/services"
	"github.com/relayforge/llm-fallback-gateway/utils"
	"go.uber.org/zap"
	"net/http"
)

// HandleServiceError maps domain errors to HTTP responses.
// Thin handlers delegate every error path here.
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	details := services.GetErrorDetails(err)

	switch services.GetErrorType(err) {
	case services.ErrorTypeValidation:
		_ = utils.WriteBadRequest(w, err.Error(), details)

	case services.ErrorTypeConfiguration:
		// Bad chain/model references are a caller problem
		_ = utils.WriteBadRequest(w, err.Error(), details)

	case services.ErrorTypeNotFound:
		_ = utils.WriteNotFound(w, err.Error())

	case services.ErrorTypeUnauthorized, services.ErrorTypeAuthentication:
		_ = utils.WriteUnauthorized(w, err.Error())

	case services.ErrorTypeConflict:
		_ = utils.WriteConflict(w, err.Error(), details)

	case services.ErrorTypeExhausted:
		// Every model in the chain failed; the upstreams are at fault
		logger.Error("chain exhausted", zap.Error(err))
		_ = utils.WriteBadGateway(w, err.Error(), details)

	case services.ErrorTypeInternal:
		logger.Error("internal server error", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "An internal error occurred")

	default:
		logger.Error("unhandled error type",
			zap.Error(err),
			zap.String("error_type", string(services.GetErrorType(err))))
		_ = utils.WriteInternalServerError(w, "An unexpected error occurred")
	}
}

// HandleValidationError handles validation errors from request parsing
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if utils.IsValidationError(err) {
		fields := utils.GetValidationFields(err)
		details := make(map[string]interface{}, len(fields))
		for k, v := range fields {
			details[k] = v
		}
		_ = utils.WriteBadRequest(w, "Validation failed", details)
		return
	}

	if writeErr := utils.WriteBadRequest(w, err.Error(), nil); writeErr != nil {
		logger.Error("failed to write validation error response", zap.Error(writeErr))
	}
}
