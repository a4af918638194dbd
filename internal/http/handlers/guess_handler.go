// Guess-game HTTP handlers.
//
//   - GET  /guess/history              (questions the player has played)
//   - GET  /guess/:seed                (masked question, guesses, leaderboard)
//   - POST /guess/:id/submit           (guess one character)
//   - POST /guess/:id/batch-submit     (guess several characters)
//
// The seed and question id share one route parameter (":key") because Gin
// requires a single wildcard name per path segment.
package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Flint2004/infinite-crafting/internal/repo"
	"github.com/Flint2004/infinite-crafting/internal/services"
)

// GuessParam is the shared route parameter of the guess routes.
const GuessParam = "key"

// SubmitRequest is the JSON payload for a single guess.
type SubmitRequest struct {
	Character string `json:"character" example:"熊"`
}

// BatchSubmitRequest is the JSON payload for several guesses.
type BatchSubmitRequest struct {
	Characters []string `json:"characters" example:"熊,猫"`
}

// SubmitResponse is the reveal for one character.
type SubmitResponse struct {
	Success bool `json:"success" example:"true"`
	services.SubmitResult
}

// BatchSubmitResponse is the reveal for a batch.
type BatchSubmitResponse struct {
	Success bool `json:"success" example:"true"`
	services.BatchResult
}

// HistoryResponse lists the questions a player has played.
type HistoryResponse struct {
	History []repo.HistoryRow `json:"history"`
}

// GetQuestion godoc
// @ID          getQuestion
// @Summary     Get (or create today's) question
// @Description Returns the masked question for a seed with the player's guesses and the leaderboard. Only today's date (YYYY-MM-DD) is generated on demand; other unknown seeds return 404.
// @Tags        Guess
// @Produce     json
// @Security    BearerAuth
// @Param       seed  path      string  true  "Seed string"  example(2025-06-01)
// @Success     200   {object}  services.QuestionView
// @Failure     401   {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404   {object}  handlers.ErrorResponse  "Question not generated"
// @Failure     500   {object}  handlers.ErrorResponse  "Generation failed"
// @Router      /guess/{seed} [get]
func (h *Handlers) GetQuestion(c *gin.Context) {
	u, authed := currentUser(c)
	if !authed {
		return
	}
	seed := strings.TrimSpace(c.Param(GuessParam))
	ctx := c.Request.Context()

	q, err := h.guessSvc.GetOrCreate(ctx, seed, u.ID)
	if err != nil {
		failErr(c, err)
		return
	}
	view, err := h.guessSvc.View(ctx, q, u.ID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, view)
}

// SubmitGuess godoc
// @ID          submitGuess
// @Summary     Guess a character
// @Tags        Guess
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path      int                      true  "Question ID"
// @Param       body  body      handlers.SubmitRequest   true  "Single character"
// @Success     200   {object}  handlers.SubmitResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Not one character, or already guessed"
// @Failure     401   {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404   {object}  handlers.ErrorResponse  "Question not found"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /guess/{id}/submit [post]
func (h *Handlers) SubmitGuess(c *gin.Context) {
	u, authed := currentUser(c)
	if !authed {
		return
	}
	qid, valid := questionID(c)
	if !valid {
		return
	}
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	res, err := h.guessSvc.Submit(c.Request.Context(), u.ID, qid, req.Character)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, SubmitResponse{Success: true, SubmitResult: *res})
}

// BatchSubmitGuess godoc
// @ID          batchSubmitGuess
// @Summary     Guess several characters
// @Description Entries that are not exactly one character are skipped; characters guessed before return their stored result.
// @Tags        Guess
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path      int                           true  "Question ID"
// @Param       body  body      handlers.BatchSubmitRequest   true  "Characters"
// @Success     200   {object}  handlers.BatchSubmitResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Empty batch"
// @Failure     401   {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404   {object}  handlers.ErrorResponse  "Question not found"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /guess/{id}/batch-submit [post]
func (h *Handlers) BatchSubmitGuess(c *gin.Context) {
	u, authed := currentUser(c)
	if !authed {
		return
	}
	qid, valid := questionID(c)
	if !valid {
		return
	}
	var req BatchSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "characters must be an array of strings")
		return
	}

	res, err := h.guessSvc.BatchSubmit(c.Request.Context(), u.ID, qid, req.Characters)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, BatchSubmitResponse{Success: true, BatchResult: *res})
}

// GuessHistory godoc
// @ID          guessHistory
// @Summary     Player's guess history
// @Description Completed questions first (latest completion first). word and title are only present for completed questions.
// @Tags        Guess
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.HistoryResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /guess/history [get]
func (h *Handlers) GuessHistory(c *gin.Context) {
	u, authed := currentUser(c)
	if !authed {
		return
	}
	rows, err := h.guessSvc.History(c.Request.Context(), u.ID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, HistoryResponse{History: rows})
}

// questionID parses the numeric question id or answers 400.
func questionID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(GuessParam), 10, 0)
	if err != nil || id == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "question id must be a positive integer")
		return 0, false
	}
	return uint(id), true
}
