package router

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github/chapool/go-relay/internal/api"
	"github/chapool/go-relay/internal/api/handlers"
	"github/chapool/go-relay/internal/api/middleware"
	"github/chapool/go-relay/internal/auth"
)

// Init wires the echo instance, the middleware stack and all routes into the
// server.
func Init(s *api.Server) {
	s.Echo = echo.New()
	s.Echo.Debug = false
	s.Echo.HideBanner = true
	s.Echo.HTTPErrorHandler = HTTPErrorHandlerWithConfig(HTTPErrorHandlerConfig{
		HideInternalServerErrorDetails: s.Config.Echo.HideInternalServerErrorDetails,
	})

	s.Echo.Pre(echoMiddleware.RemoveTrailingSlash())
	s.Echo.Use(echoMiddleware.Recover())
	s.Echo.Use(echoMiddleware.RequestID())
	s.Echo.Use(middleware.Logger())
	s.Echo.Use(auth.Middleware())

	if s.Config.Echo.EnablePrometheusMiddleware {
		s.Echo.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Registerer: s.Metrics.Registry,
		}))
	}

	mgmtKeyAuth := echoMiddleware.KeyAuthWithConfig(echoMiddleware.KeyAuthConfig{
		KeyLookup: "query:mgmt-secret",
		Validator: func(key string, _ echo.Context) (bool, error) {
			return key == s.Config.Management.Secret, nil
		},
	})

	s.Router = &api.Router{
		Routes: nil, // will be populated by handlers.AttachAllRoutes(s)

		Root:            s.Echo.Group(""),
		Management:      s.Echo.Group("/-", mgmtKeyAuth),
		APIV1Relay:      s.Echo.Group("/api/v1/relay"),
		APIV1RelayAdmin: s.Echo.Group("/api/v1/relay", mgmtKeyAuth),
	}

	if s.Config.Echo.EnablePrometheusMiddleware {
		s.Router.Management.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
			Gatherer: s.Metrics.Registry,
		}))
	}

	handlers.AttachAllRoutes(s)
}
