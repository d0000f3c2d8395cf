package http

import (
	"log/slog"

	"github.com/geocoder89/authbase/internal/config"
	"github.com/geocoder89/authbase/internal/http/handlers"
	"github.com/geocoder89/authbase/internal/http/middlewares"
	"github.com/geocoder89/authbase/internal/observability"
	"github.com/geocoder89/authbase/internal/ratelimit"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const docsPath = "/api-docs"

type Deps struct {
	Auth     handlers.Authenticator
	Verifier middlewares.TokenVerifier
	Limiter  ratelimit.Limiter
	Prom     *observability.Prom
	// Checks are pinged by /ready.
	Checks map[string]handlers.Pinger
	// Draining makes /ready fail once shutdown has begun.
	Draining func() bool
}

func NewRouter(cfg config.Config, log *slog.Logger, deps Deps) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.HandleMethodNotAllowed = false

	withStack := !cfg.IsProduction()

	// middleware
	r.Use(middlewares.Recovery(log, withStack))
	r.Use(middlewares.RequestID())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(middlewares.RequestLogger(log))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders(docsPath, cfg.IsProduction()))
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	r.Use(middlewares.ErrorHandler(log, withStack))

	limiter := deps.Limiter
	if limiter == nil {
		limiter = ratelimit.Noop{}
	}
	rl := middlewares.NewRateLimiter(limiter, deps.Prom, log)
	authMW := middlewares.NewAuthMiddleware(deps.Verifier, log)

	// outside the API prefix
	r.GET("/", handlers.Welcome(cfg.APIPrefix, docsPath))
	r.GET(docsPath, handlers.SwaggerUI(docsPath+"/openapi.yaml"))
	r.GET(docsPath+"/openapi.yaml", handlers.OpenAPISpec(cfg.APIPrefix))
	if deps.Prom != nil {
		r.GET("/metrics", gin.WrapH(deps.Prom.Handler()))
	}

	api := r.Group(cfg.APIPrefix)

	health := handlers.NewHealthHandler(deps.Checks, deps.Draining)
	api.GET("/health", health.Health)
	api.GET("/ready", health.Ready)

	authHandler := handlers.NewAuthHandler(deps.Auth, deps.Prom)

	authGroup := api.Group("/auth")
	authGroup.POST("/register",
		rl.RateLimiterMiddleware(middlewares.KeyByIP),
		middlewares.RequireJSON(),
		authHandler.Register,
	)
	authGroup.POST("/login",
		rl.RateLimiterMiddleware(middlewares.KeyByIP),
		middlewares.RequireJSON(),
		authHandler.Login,
	)
	authGroup.GET("/me",
		authMW.RequireAuth(),
		rl.RateLimiterMiddleware(middlewares.KeyByUserOrIP),
		authHandler.Me,
	)

	r.NoRoute(handlers.NotFound)

	return r
}

