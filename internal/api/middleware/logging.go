package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"letraz-jobboard/internal/logging"
)

// RequestLogger writes one structured line per request
func RequestLogger(logger logging.Logger) echo.MiddlewareFunc {
	logger = logger.WithField("component", "http")
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogError:     true,
		HandleError:  true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := map[string]interface{}{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"remote_ip":  v.RemoteIP,
				"request_id": RequestID(c),
			}
			l := logger.WithContext(c.Request().Context())
			switch {
			case v.Error != nil:
				fields["error"] = v.Error.Error()
				l.Error("Request failed", fields)
			case v.Status >= 500:
				l.Warn("Request completed", fields)
			default:
				l.Info("Request completed", fields)
			}
			return nil
		},
	})
}
