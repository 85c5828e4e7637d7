// Package web serves the browser-facing HTTP surface: CORS, request
// logging, a health check and the grpc-web / JSON bridge.
package web

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"medtrack-api/internal/api"
	"medtrack-api/internal/logger"
)

type Server struct {
	e *echo.Echo
}

// NewServer routes POST /<service>/<method> to bridge. Only origins in
// allowOrigins may call it from a browser.
func NewServer(bridge http.Handler, allowOrigins []string, log *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.IPExtractor = echo.ExtractIPDirect()

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowOrigins,
		AllowMethods: []string{http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization,
			"X-Grpc-Web", "X-User-Agent",
		},
		ExposeHeaders: []string{"Grpc-Status", "Grpc-Message", "Grpc-Status-Details-Bin"},
		MaxAge:        86400,
	}))
	e.Use(logger.EchoRequestLogger(log))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	relay := echo.WrapHandler(bridge)
	e.POST("/"+api.ServiceName+"/:method", func(c echo.Context) error {
		c.Request().Header.Set("X-Real-IP", c.RealIP())
		return relay(c)
	})

	return &Server{e: e}
}

func (s *Server) Handler() http.Handler { return s.e }

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}
