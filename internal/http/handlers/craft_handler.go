// Craft and config HTTP handlers.
//
//   - POST /craft   (combine two elements)
//   - GET  /config  (client-visible game settings)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Flint2004/infinite-crafting/internal/domain"
)

// CraftRequest is the JSON payload for crafting.
type CraftRequest struct {
	FirstElementID  string `json:"firstElementId"  example:"base_water"`
	SecondElementID string `json:"secondElementId" example:"base_fire"`
}

// CraftResponse is the craft outcome. IsNew is true only for the request
// that minted the element.
type CraftResponse struct {
	Success bool            `json:"success" example:"true"`
	Element *domain.Element `json:"element"`
	IsNew   bool            `json:"isNew"`
}

// ConfigResponse exposes the game settings a client needs.
type ConfigResponse struct {
	LanguageMode      domain.LanguageMode `json:"languageMode" example:"both"`
	CraftOrderMatters bool                `json:"craftOrderMatters"`
}

// Craft godoc
// @ID          craft
// @Summary     Craft two elements
// @Description Returns the cached result of the pair, generating it on first use. Generation failures leave the pair uncached; retrying is safe.
// @Tags        Craft
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body      handlers.CraftRequest  true  "Element pair"
// @Success     200   {object}  handlers.CraftResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Missing element ids"
// @Failure     401   {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404   {object}  handlers.ErrorResponse  "Unknown element"
// @Failure     429   {object}  handlers.ErrorResponse  "Rate limited"
// @Failure     500   {object}  handlers.ErrorResponse  "Generation failed"
// @Router      /craft [post]
func (h *Handlers) Craft(c *gin.Context) {
	u, authed := currentUser(c)
	if !authed {
		return
	}
	var req CraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	res, err := h.craftSvc.Craft(c.Request.Context(), u, req.FirstElementID, req.SecondElementID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, CraftResponse{Success: true, Element: res.Element, IsNew: res.IsNew})
}

// Config godoc
// @ID          config
// @Summary     Game configuration
// @Tags        Config
// @Produce     json
// @Success     200  {object}  handlers.ConfigResponse
// @Router      /config [get]
func (h *Handlers) Config(c *gin.Context) {
	ok(c, http.StatusOK, ConfigResponse{
		LanguageMode:      h.game.LanguageMode,
		CraftOrderMatters: h.game.CraftOrderMatters,
	})
}
