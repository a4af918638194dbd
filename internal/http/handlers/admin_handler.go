// Admin HTTP handlers. All routes sit behind middleware.AdminOnly.
//
//   - POST /admin/reload                 (wipe crafted state, reseed presets)
//   - POST /admin/guess/generate         (generate one question)
//   - POST /admin/guess/batch-generate   (generate many questions)
//   - GET  /admin/guess/questions        (paginated listing with counts)
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Flint2004/infinite-crafting/internal/domain"
	"github.com/Flint2004/infinite-crafting/internal/repo"
	"github.com/Flint2004/infinite-crafting/internal/services"
)

// ReloadResponse reports a preset reload.
type ReloadResponse struct {
	Success bool                `json:"success" example:"true"`
	Message string              `json:"message" example:"presets reloaded"`
	Stats   *services.LoadStats `json:"stats"`
}

// GenerateRequest is the JSON payload for generating one question.
type GenerateRequest struct {
	SeedString string `json:"seedString" example:"2025-06-02"`
}

// GenerateResponse carries a generated question.
type GenerateResponse struct {
	Success  bool                  `json:"success" example:"true"`
	Message  string                `json:"message" example:"题目生成成功"`
	Question *domain.GuessQuestion `json:"question"`
}

// QuestionExistsResponse is the 400 body for a taken seed; it includes the
// stored question.
type QuestionExistsResponse struct {
	ErrorResponse
	Question *domain.GuessQuestion `json:"question"`
}

// BatchGenerateRequest is the JSON payload for batch generation.
type BatchGenerateRequest struct {
	SeedStrings []string `json:"seedStrings" example:"2025-06-02,2025-06-03"`
}

// BatchGenerateResponse reports a batch generation.
type BatchGenerateResponse struct {
	Success bool                          `json:"success" example:"true"`
	Message string                        `json:"message" example:"批量生成完成：成功 2，失败 0，跳过 0"`
	Results *services.BatchGenerateReport `json:"results"`
}

// ListQuestionsResponse is a page of questions with player statistics.
type ListQuestionsResponse struct {
	Success    bool                 `json:"success" example:"true"`
	Count      int                  `json:"count"`
	Questions  []repo.QuestionStats `json:"questions"`
	Pagination Pagination           `json:"pagination"`
}

// Reload godoc
// @ID          adminReload
// @Summary     Reload presets
// @Description Deletes every crafted element, cached recipe and discovery credit, then reseeds base elements and preset recipes.
// @Tags        Admin
// @Produce     json
// @Security    AdminKey
// @Success     200  {object}  handlers.ReloadResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Reload failed"
// @Router      /admin/reload [post]
func (h *Handlers) Reload(c *gin.Context) {
	stats, err := h.presetSvc.Reload(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, ErrCodeReloadFailed, "reload failed")
		return
	}
	ok(c, http.StatusOK, ReloadResponse{Success: true, Message: "presets reloaded", Stats: stats})
}

// GenerateQuestion godoc
// @ID          adminGenerateQuestion
// @Summary     Generate a question for a seed
// @Tags        Admin
// @Accept      json
// @Produce     json
// @Security    AdminKey
// @Param       body  body      handlers.GenerateRequest  true  "Seed"
// @Success     200   {object}  handlers.GenerateResponse
// @Failure     400   {object}  handlers.QuestionExistsResponse  "Seed missing or already generated"
// @Failure     401   {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500   {object}  handlers.ErrorResponse  "Generation failed"
// @Router      /admin/guess/generate [post]
func (h *Handlers) GenerateQuestion(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	seed := strings.TrimSpace(req.SeedString)
	if seed == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, services.ErrInvalidSeed.Error())
		return
	}

	q, err := h.guessSvc.Generate(c.Request.Context(), seed)
	if errors.Is(err, services.ErrQuestionExists) {
		c.AbortWithStatusJSON(http.StatusBadRequest, QuestionExistsResponse{
			ErrorResponse: ErrorResponse{
				RequestID: c.Writer.Header().Get("X-Request-ID"),
				Code:      ErrCodeQuestionExists,
				Message:   "题目已存在",
			},
			Question: q,
		})
		return
	}
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, GenerateResponse{Success: true, Message: "题目生成成功", Question: q})
}

// BatchGenerateQuestions godoc
// @ID          adminBatchGenerateQuestions
// @Summary     Generate questions for several seeds
// @Description Seeds are processed in order. Existing seeds are skipped and failures are reported per seed.
// @Tags        Admin
// @Accept      json
// @Produce     json
// @Security    AdminKey
// @Param       body  body      handlers.BatchGenerateRequest  true  "Seeds"
// @Success     200   {object}  handlers.BatchGenerateResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Seeds missing"
// @Failure     401   {object}  handlers.ErrorResponse  "Unauthorized"
// @Router      /admin/guess/batch-generate [post]
func (h *Handlers) BatchGenerateQuestions(c *gin.Context) {
	var req BatchGenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.SeedStrings) == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "seedStrings must be a non-empty array")
		return
	}

	report := h.guessSvc.BatchGenerate(c.Request.Context(), req.SeedStrings)
	ok(c, http.StatusOK, BatchGenerateResponse{Success: true, Message: report.Summary(), Results: report})
}

// ListQuestions godoc
// @ID          adminListQuestions
// @Summary     List questions (paginated)
// @Tags        Admin
// @Produce     json
// @Security    AdminKey
// @Param       page       query  int  false  "Page number"     minimum(1) default(1)
// @Param       page_size  query  int  false  "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListQuestionsResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /admin/guess/questions [get]
func (h *Handlers) ListQuestions(c *gin.Context) {
	p := clampPagination(c)
	items, total, err := h.guessSvc.ListQuestions(c.Request.Context(), p.Number, p.Size)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListQuestionsResponse{
		Success:    true,
		Count:      len(items),
		Questions:  items,
		Pagination: newPagination(p, total),
	})
}
