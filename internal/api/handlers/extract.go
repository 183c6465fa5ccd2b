package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"letraz-jobboard/internal/api/middleware"
	"letraz-jobboard/internal/extraction"
	"letraz-jobboard/internal/logging"
	"letraz-jobboard/pkg/models"
	"letraz-jobboard/pkg/utils"
)

var validate = extraction.NewValidator()

// Service is the extraction surface the handlers expose; *extraction.Engine implements it
type Service interface {
	Extract(ctx context.Context, req models.ExtractRequest) (*models.ExtractResult, error)
	ExtractCareerPage(ctx context.Context, req models.CareerPageRequest) (*models.CareerPageResult, error)
	ClassifyURL(rawURL string) models.Classification
	ValidateURL(rawURL string) models.URLValidationResponse
	Platforms() []models.PlatformInfo
	Stats() []models.PlatformStats
}

// ExtractHandler runs a board search. Platform failures come back inside a
// 200 result; only invalid criteria are rejected.
func ExtractHandler(svc Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := middleware.RequestID(c)
		logger := logging.LogWithRequestID(requestID)

		var req models.ExtractRequest
		if err := c.Bind(&req); err != nil {
			logger.Warn("Failed to bind extract request", map[string]interface{}{"error": err.Error()})
			return invalidBody(c, requestID)
		}

		result, err := svc.Extract(c.Request().Context(), req)
		if err != nil {
			return respondError(c, requestID, err)
		}

		logger.Info("Extract request completed", map[string]interface{}{
			"run_id":      result.Metadata.RunID,
			"total_found": result.TotalFound,
			"errors":      len(result.Errors),
		})
		return c.JSON(http.StatusOK, result)
	}
}

// CareerPageHandler extracts and filters jobs from a company career page
func CareerPageHandler(svc Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := middleware.RequestID(c)

		var req models.CareerPageRequest
		if err := c.Bind(&req); err != nil {
			return invalidBody(c, requestID)
		}

		result, err := svc.ExtractCareerPage(c.Request().Context(), req)
		if err != nil {
			return respondError(c, requestID, err)
		}
		return c.JSON(http.StatusOK, result)
	}
}

// ClassifyHandler reports the ATS behind a career page URL. Unmatched URLs
// are a 200 with type "unknown".
func ClassifyHandler(svc Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := middleware.RequestID(c)

		req, err := bindURL(c)
		if err != nil {
			return respondError(c, requestID, err)
		}
		return c.JSON(http.StatusOK, svc.ClassifyURL(req.URL))
	}
}

// ValidateURLHandler reports whether a URL points at a single posting
func ValidateURLHandler(svc Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := middleware.RequestID(c)

		req, err := bindURL(c)
		if err != nil {
			return respondError(c, requestID, err)
		}
		return c.JSON(http.StatusOK, svc.ValidateURL(req.URL))
	}
}

// PlatformsHandler lists registered boards
func PlatformsHandler(svc Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"platforms": svc.Platforms(),
		})
	}
}

// PlatformStatsHandler reports per-platform request and failure counters
func PlatformStatsHandler(svc Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"stats":     svc.Stats(),
			"timestamp": time.Now(),
		})
	}
}

func bindURL(c echo.Context) (models.URLRequest, error) {
	var req models.URLRequest
	if err := c.Bind(&req); err != nil {
		return req, utils.NewBadRequestError("Invalid request format")
	}
	if err := validate.Struct(req); err != nil {
		return req, utils.NewValidationError(err.Error())
	}
	return req, nil
}
