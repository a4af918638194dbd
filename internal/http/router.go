// Package httpapi wires the Gin transport to the game services, middleware
// and route handlers. It centralizes the cross-cutting concerns: tracing,
// correlation ids, logging with redaction, panic recovery, compression,
// metrics, rate limiting, CORS and security headers.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/Flint2004/infinite-crafting/internal/config"
	"github.com/Flint2004/infinite-crafting/internal/content"
	"github.com/Flint2004/infinite-crafting/internal/domain"
	"github.com/Flint2004/infinite-crafting/internal/http/handlers"
	"github.com/Flint2004/infinite-crafting/internal/http/middleware"
	"github.com/Flint2004/infinite-crafting/internal/llm"
	"github.com/Flint2004/infinite-crafting/internal/repo"
	"github.com/Flint2004/infinite-crafting/internal/services"
)

const (
	maxBodyBytes = 1 << 20

	// Per-user craft limit, on top of the global per-IP limiter. Uncached
	// crafts cost a model call each.
	craftRPS   = 1.0
	craftBurst = 5
)

// userRepoShim adapts the repository free functions to services.UserRepo.
type userRepoShim struct{}

// CreateUser proxies repo.CreateUser.
func (userRepoShim) CreateUser(ctx context.Context, db *gorm.DB, username, token string) (*domain.User, error) {
	return repo.CreateUser(ctx, db, username, token)
}

// GetUserByToken proxies repo.GetUserByToken.
func (userRepoShim) GetUserByToken(ctx context.Context, db *gorm.DB, token string) (*domain.User, error) {
	return repo.GetUserByToken(ctx, db, token)
}

// UsernameExists proxies repo.UsernameExists.
func (userRepoShim) UsernameExists(ctx context.Context, db *gorm.DB, username string) (bool, error) {
	return repo.UsernameExists(ctx, db, username)
}

// TokenExists proxies repo.TokenExists.
func (userRepoShim) TokenExists(ctx context.Context, db *gorm.DB, token string) (bool, error) {
	return repo.TokenExists(ctx, db, token)
}

// Services bundles the application services behind the routes.
type Services struct {
	Auth     *services.AuthService
	Elements *services.ElementService
	Craft    *services.CraftService
	Presets  *services.PresetService
	Guess    *services.GuessService
}

// NewServices builds the services from the database, the generation backend
// and the content sources. promptRules is appended to every craft prompt.
func NewServices(db *gorm.DB, gen llm.Generator, src content.Router, promptRules string, cfg config.Config) (*Services, error) {
	mode, _ := domain.ParseLanguageMode(cfg.Game.LanguageMode)
	loc, err := cfg.Guess.Location()
	if err != nil {
		return nil, err
	}

	presets := &services.PresetService{
		DB:           db,
		Path:         cfg.Game.PresetsPath,
		Mode:         mode,
		OrderMatters: cfg.Game.CraftOrderMatters,
	}
	return &Services{
		Auth:     services.NewAuthService(db, userRepoShim{}),
		Elements: &services.ElementService{DB: db},
		Craft: &services.CraftService{
			DB:           db,
			Generator:    gen,
			Examples:     presets,
			Mode:         mode,
			OrderMatters: cfg.Game.CraftOrderMatters,
			FewShotLimit: cfg.Game.FewShotLimit,
			PromptRules:  promptRules,
			Temperature:  cfg.AI.Temperature,
			MaxTokens:    cfg.AI.MaxTokens,
		},
		Presets: presets,
		Guess: &services.GuessService{
			DB:       db,
			Words:    &services.WordGenerator{DB: db, Generator: gen, Retries: cfg.Guess.WordRetries},
			Content:  src,
			Location: loc,
			Now:      time.Now,
		},
	}, nil
}

// RegisterRoutes attaches all middleware and endpoints to r.
//
// Middleware order:
//  1. OpenTelemetry
//  2. RequestID
//  3. Access logging (console logger when LogPretty, redacting otherwise)
//  4. Recovery
//  5. Body size limit
//  6. Gzip (optional)
//  7. Metrics
//  8. Rate limiter per IP
//  9. CORS and security headers
func RegisterRoutes(r *gin.Engine, svc *Services, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	if cfg.LogPretty {
		r.Use(middleware.Logger())
	} else {
		r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))
	}
	r.Use(middleware.Recovery())
	r.Use(limitBody(maxBodyBytes))
	if cfg.GzipEnabled {
		r.Use(gzip.Gzip(gzip.DefaultCompression))
	}

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rl := middleware.NewRateLimiter("global", cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	mode, _ := domain.ParseLanguageMode(cfg.Game.LanguageMode)
	h := handlers.New(handlers.Deps{
		Auth:     svc.Auth,
		Elements: svc.Elements,
		Craft:    svc.Craft,
		Presets:  svc.Presets,
		Guess:    svc.Guess,
		Game: handlers.GameConfig{
			LanguageMode:      mode,
			CraftOrderMatters: cfg.Game.CraftOrderMatters,
		},
	})

	auth := middleware.Auth(svc.Auth)
	craftRL := middleware.NewRateLimiter("craft", craftRPS, craftBurst, middleware.KeyByUserOrIP())

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.GET("/config", h.Config)

		account := api.Group("", middleware.NoStore())
		account.POST("/register", h.Register)
		account.POST("/login", h.Login)

		api.GET("/elements/base", h.BaseElements)
		api.GET("/elements/discovered", auth, h.DiscoveredElements)
		api.GET("/elements/:id/details", h.ElementDetails)

		api.POST("/craft", auth, craftRL.Handler(), h.Craft)

		guess := api.Group("/guess", auth)
		guess.GET("/history", h.GuessHistory)
		guess.GET("/:"+handlers.GuessParam, h.GetQuestion)
		guess.POST("/:"+handlers.GuessParam+"/submit", h.SubmitGuess)
		guess.POST("/:"+handlers.GuessParam+"/batch-submit", h.BatchSubmitGuess)

		admin := api.Group("/admin", middleware.AdminOnly(cfg.Game.AdminKey), middleware.NoStore())
		admin.POST("/reload", h.Reload)
		admin.POST("/guess/generate", h.GenerateQuestion)
		admin.POST("/guess/batch-generate", h.BatchGenerateQuestions)
		admin.GET("/guess/questions", h.ListQuestions)
	}
}

// corsMiddleware allows every origin when none is configured, otherwise only
// the listed ones.
func corsMiddleware(origins []string) []gin.HandlerFunc {
	base := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		base.AllowAllOrigins = true
		// ACAO: * even without an Origin header (health checks, curl).
		return []gin.HandlerFunc{
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(base),
		}
	}
	base.AllowOrigins = origins
	return []gin.HandlerFunc{cors.New(base)}
}

// limitBody caps request bodies at maxBytes; larger bodies fail to bind.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
