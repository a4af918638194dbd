// Element HTTP handlers.
//
//   - GET /elements/base          (seeded base set, public)
//   - GET /elements/:id/details   (element plus first-discovery credit)
//   - GET /elements/discovered    (the player's discovered set, ETag support)
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Flint2004/infinite-crafting/internal/domain"
)

// ElementsResponse wraps a list of elements.
type ElementsResponse struct {
	Elements []domain.Element `json:"elements"`
}

// BaseElements godoc
// @ID          baseElements
// @Summary     List base elements
// @Tags        Elements
// @Produce     json
// @Success     200  {object}  handlers.ElementsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /elements/base [get]
func (h *Handlers) BaseElements(c *gin.Context) {
	els, err := h.elementSvc.Base(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ElementsResponse{Elements: els})
}

// ElementDetails godoc
// @ID          elementDetails
// @Summary     Element details
// @Description Returns the element and who first discovered it from which inputs. discovery is null for base elements.
// @Tags        Elements
// @Produce     json
// @Param       id   path      string  true  "Element ID"  example(base_fire)
// @Success     200  {object}  services.ElementDetails
// @Failure     404  {object}  handlers.ErrorResponse  "Element not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /elements/{id}/details [get]
func (h *Handlers) ElementDetails(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "element id required")
		return
	}
	d, err := h.elementSvc.Details(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, d)
}

// DiscoveredElements godoc
// @ID          discoveredElements
// @Summary     List discovered elements
// @Description Elements the player obtained by crafting, newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Elements
// @Produce     json
// @Security    BearerAuth
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"  example(W/\"discovered:u1:3:1719830000\")
// @Success     200  {object}  handlers.ElementsResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /elements/discovered [get]
func (h *Handlers) DiscoveredElements(c *gin.Context) {
	u, authed := currentUser(c)
	if !authed {
		return
	}
	ctx := c.Request.Context()

	// ETag pre-check (best effort).
	if count, latest, err := h.elementSvc.DiscoveredStats(ctx, u.ID); err == nil {
		var ts int64
		if latest != nil {
			ts = latest.Unix()
		}
		etag := fmt.Sprintf(`W/"discovered:%s:%d:%d"`, u.ID, count, ts)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	els, err := h.elementSvc.Discovered(ctx, u.ID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ElementsResponse{Elements: els})
}
