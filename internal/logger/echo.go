package logger

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// EchoRequestLogger logs HTTP requests served by echo.
func EchoRequestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/healthz"
		},
		LogLatency:   true,
		LogRemoteIP:  true,
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogError:     true,
		LogUserAgent: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("http.method", v.Method),
				zap.String("http.path", v.URIPath),
				zap.Int("http.status", v.Status),
				zap.Duration("http.latency", v.Latency),
				zap.String("http.remote_ip", v.RemoteIP),
				zap.String("http.user_agent", v.UserAgent),
			}
			switch {
			case v.Error != nil:
				logger.Error("http request failed", append(fields, zap.Error(v.Error))...)
			case v.Status >= 500:
				logger.Error("http request", fields...)
			case v.Status >= 400:
				logger.Warn("http request", fields...)
			default:
				logger.Info("http request", fields...)
			}
			return nil
		},
	})
}
