package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"letraz-jobboard/internal/logging"
	"letraz-jobboard/pkg/models"
	"letraz-jobboard/pkg/utils"
)

// respondError writes err as an ErrorResponse with the status its kind maps to
func respondError(c echo.Context, requestID string, err error) error {
	ce := utils.FromExtractionError(err)

	fields := map[string]interface{}{
		"status": ce.Code,
		"kind":   string(utils.KindOf(err)),
		"error":  err.Error(),
	}
	if ce.Code >= http.StatusInternalServerError {
		logging.LogWithRequestID(requestID).Error("Request failed", fields)
	} else {
		logging.LogWithRequestID(requestID).Warn("Request rejected", fields)
	}

	code := errorCode(ce.Code)
	if utils.KindOf(err) == utils.KindUnsupportedPlatform {
		code = "unsupported_platform"
	}

	return c.JSON(ce.Code, models.ErrorResponse{
		Error:     code,
		Message:   ce.Error(),
		RequestID: requestID,
		Timestamp: time.Now(),
	})
}

func invalidBody(c echo.Context, requestID string) error {
	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:     "invalid_request",
		Message:   "Invalid request format",
		RequestID: requestID,
		Timestamp: time.Now(),
	})
}

// errorCode turns a status into a snake_case code, e.g. 422 -> unprocessable_entity
func errorCode(status int) string {
	if status == http.StatusBadRequest {
		return "validation_failed"
	}
	return strings.ReplaceAll(strings.ToLower(http.StatusText(status)), " ", "_")
}
