// Package handlers provides the HTTP handlers of the crafting API.
//
// Handlers are transport-thin: they bind input, call a service and translate
// the result (or the service error, see errors.go) into a response.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Flint2004/infinite-crafting/internal/domain"
	"github.com/Flint2004/infinite-crafting/internal/http/middleware"
	"github.com/Flint2004/infinite-crafting/internal/repo"
	"github.com/Flint2004/infinite-crafting/internal/services"
	"github.com/Flint2004/infinite-crafting/internal/utils"
)

//
// Service contracts (context-aware)
//

// AuthService registers and logs in players.
type AuthService interface {
	Register(ctx context.Context, username string) (*domain.User, error)
	Login(ctx context.Context, token string) (*domain.User, error)
}

// ElementService serves element reads.
type ElementService interface {
	Base(ctx context.Context) ([]domain.Element, error)
	Details(ctx context.Context, id string) (*services.ElementDetails, error)
	Discovered(ctx context.Context, userID string) ([]domain.Element, error)
	DiscoveredStats(ctx context.Context, userID string) (int64, *time.Time, error)
}

// CraftService combines two elements.
type CraftService interface {
	Craft(ctx context.Context, user *domain.User, firstID, secondID string) (*services.CraftResult, error)
}

// PresetService reseeds the crafting state.
type PresetService interface {
	Reload(ctx context.Context) (*services.LoadStats, error)
}

// GuessService runs the guess-word game.
type GuessService interface {
	GetOrCreate(ctx context.Context, seed, userID string) (*domain.GuessQuestion, error)
	View(ctx context.Context, q *domain.GuessQuestion, userID string) (*services.QuestionView, error)
	Submit(ctx context.Context, userID string, questionID uint, character string) (*services.SubmitResult, error)
	BatchSubmit(ctx context.Context, userID string, questionID uint, characters []string) (*services.BatchResult, error)
	History(ctx context.Context, userID string) ([]repo.HistoryRow, error)
	Generate(ctx context.Context, seed string) (*domain.GuessQuestion, error)
	BatchGenerate(ctx context.Context, seeds []string) *services.BatchGenerateReport
	ListQuestions(ctx context.Context, page, pageSize int) ([]repo.QuestionStats, int64, error)
}

//
// Handler wiring
//

// GameConfig is the client-visible game configuration.
type GameConfig struct {
	LanguageMode      domain.LanguageMode
	CraftOrderMatters bool
}

// Deps bundles the services behind the handlers.
type Deps struct {
	Auth     AuthService
	Elements ElementService
	Craft    CraftService
	Presets  PresetService
	Guess    GuessService
	Game     GameConfig
}

// Handlers groups the HTTP endpoints of the game API.
type Handlers struct {
	authSvc    AuthService
	elementSvc ElementService
	craftSvc   CraftService
	presetSvc  PresetService
	guessSvc   GuessService
	game       GameConfig
}

// New constructs Handlers bound to the given services.
func New(d Deps) *Handlers {
	return &Handlers{
		authSvc:    d.Auth,
		elementSvc: d.Elements,
		craftSvc:   d.Craft,
		presetSvc:  d.Presets,
		guessSvc:   d.Guess,
		game:       d.Game,
	}
}

//
// DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

func newPagination(p utils.Page, total int64) Pagination {
	totalPages := p.TotalPages(total)
	return Pagination{
		Page:       p.Number,
		PageSize:   p.Size,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    p.Number < totalPages,
	}
}

//
// Helpers
//

// clampPagination reads page (>= 1) and page_size (1..100, default 20).
func clampPagination(c *gin.Context) utils.Page {
	return utils.ParsePage(c.Query("page"), c.Query("page_size"))
}

// currentUser returns the player set by middleware.Auth. Routes using it are
// always mounted behind Auth; a missing user answers 401.
func currentUser(c *gin.Context) (*domain.User, bool) {
	u := middleware.UserFrom(c)
	if u == nil {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return nil, false
	}
	return u, true
}
