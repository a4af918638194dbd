// Command server runs the infinite crafting and guess-word API.
//
//	@title						Infinite Crafting API
//	@version					1.0
//	@description				Alchemy crafting game backed by a language model, plus a daily guess-word game.
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Player token: "Bearer <token>".
//	@securityDefinitions.apikey	AdminKey
//	@in							header
//	@name						Authorization
//	@description				Admin key: "Bearer <ADMIN_KEY>".
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Flint2004/infinite-crafting/docs"
	"github.com/Flint2004/infinite-crafting/internal/config"
	"github.com/Flint2004/infinite-crafting/internal/content"
	"github.com/Flint2004/infinite-crafting/internal/domain"
	httpapi "github.com/Flint2004/infinite-crafting/internal/http"
	"github.com/Flint2004/infinite-crafting/internal/llm"
	"github.com/Flint2004/infinite-crafting/internal/observability"
	"github.com/Flint2004/infinite-crafting/internal/repo"
	"github.com/Flint2004/infinite-crafting/internal/search"
	"github.com/Flint2004/infinite-crafting/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 30 * time.Second

func main() {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	sysutil.SetupLogging(os.Stderr, cfg.LogLevel, cfg.LogPretty)

	if _, ok := domain.ParseLanguageMode(cfg.Game.LanguageMode); !ok {
		log.Fatal().Str("language_mode", cfg.Game.LanguageMode).Msg("unknown language mode")
	}
	if cfg.Game.AdminKey == "" {
		log.Warn().Msg("ADMIN_KEY is empty, admin routes are disabled")
	}

	ctx := context.Background()
	shutdownTracing, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("tracing setup failed")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	gen, err := llm.New(cfg.AI)
	if err != nil {
		log.Fatal().Err(err).Msg("generation backend")
	}
	log.Info().Str("mode", cfg.AI.Mode).Str("model", cfg.AI.ModelName()).Msg("generation backend ready")

	rules, err := search.LoadPromptRules(cfg.Game.PromptRulesPath)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.Game.PromptRulesPath).Msg("prompt rules not loaded")
	}

	client := &http.Client{Timeout: cfg.Guess.ContentTimeout}
	src := content.Router{
		Prefix: cfg.Guess.SpecialPrefix,
		Special: content.NewMCWiki(cfg.Guess.MCWikiURL, client, func(ctx context.Context, title string) (bool, error) {
			return repo.QuestionTitleExists(ctx, db, title)
		}),
		Default: content.NewBaike(cfg.Guess.BaikeURL, client),
	}

	svc, err := httpapi.NewServices(db, gen, src, rules, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("build services")
	}
	stats, err := svc.Presets.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Game.PresetsPath).Msg("load presets")
	}
	log.Info().
		Int("base_elements", stats.BaseElements).
		Int("recipes", stats.Recipes).
		Int("examples", stats.Examples).
		Msg("presets loaded")

	gin.SetMode(cfg.GinMode)
	docs.SwaggerInfo.BasePath = cfg.APIBasePath
	docs.SwaggerInfo.Version = version

	r := gin.New()
	httpapi.RegisterRoutes(r, svc, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info().Str("signal", sig.String()).Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("tracing shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("server exited")
}
