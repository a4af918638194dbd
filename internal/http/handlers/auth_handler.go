// Auth HTTP handlers.
//
//   - POST /register  (create a player, returns its token)
//   - POST /login     (resolve a token to its player)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Flint2004/infinite-crafting/internal/domain"
)

// RegisterRequest is the JSON payload for registration.
type RegisterRequest struct {
	// Username must be at least 2 characters after trimming.
	Username string `json:"username" example:"alice"`
}

// LoginRequest is the JSON payload for login.
type LoginRequest struct {
	Token string `json:"token" example:"A1B2C3"`
}

// UserDTO is the public view of a player. The token is the player's only
// credential.
type UserDTO struct {
	ID       string `json:"id"       example:"6f1c3c1e-2f44-4c8e-9a53-0a8b3c1f9e21"`
	Username string `json:"username" example:"alice"`
	Token    string `json:"token"    example:"A1B2C3"`
}

// UserResponse wraps a player.
type UserResponse struct {
	User UserDTO `json:"user"`
}

func userDTO(u *domain.User) UserDTO {
	return UserDTO{ID: u.ID, Username: u.Username, Token: u.Token}
}

// Register godoc
// @ID          register
// @Summary     Register a player
// @Description Creates a player and returns its 6-character bearer token.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.RegisterRequest  true  "Registration payload"
// @Success     200   {object}  handlers.UserResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Username too short or taken"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /register [post]
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	u, err := h.authSvc.Register(c.Request.Context(), req.Username)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, UserResponse{User: userDTO(u)})
}

// Login godoc
// @ID          login
// @Summary     Log in with a token
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.LoginRequest  true  "Login payload"
// @Success     200   {object}  handlers.UserResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Token missing"
// @Failure     401   {object}  handlers.ErrorResponse  "Invalid token"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	u, err := h.authSvc.Login(c.Request.Context(), req.Token)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, UserResponse{User: userDTO(u)})
}
