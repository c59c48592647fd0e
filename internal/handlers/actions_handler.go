package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/laserowo/studio-manager/internal/actions"
	"github.com/laserowo/studio-manager/internal/httperr"
	"github.com/laserowo/studio-manager/internal/httpresp"
	"github.com/laserowo/studio-manager/internal/middleware"
)

// maxActionBody caps the JSON args of one action.
const maxActionBody = 1 << 20

// ActionsHandler serves the presentation action surface.
type ActionsHandler struct {
	dispatcher *actions.Dispatcher
}

func NewActionsHandler(d *actions.Dispatcher) *ActionsHandler {
	return &ActionsHandler{dispatcher: d}
}

func (h *ActionsHandler) List(c *gin.Context) {
	httpresp.List(c, h.dispatcher.Names())
}

// Run executes POST /api/actions/:action with the request body as args.
func (h *ActionsHandler) Run(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxActionBody+1))
	if err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}
	if len(body) > maxActionBody {
		httperr.Write(c, http.StatusRequestEntityTooLarge, "request_too_large", "action arguments exceed 1 MiB")
		return
	}
	if len(body) > 0 && !json.Valid(body) {
		httperr.BadRequest(c, "invalid_json", "request body is not valid JSON")
		return
	}

	action := c.Param("action")
	if h.dispatcher.AdminOnly(action) && c.GetString(middleware.ContextUserRole) != RoleAdmin {
		httperr.Write(c, http.StatusForbidden, "forbidden", "action requires the admin role")
		return
	}

	ctx := actions.Remote(c.Request.Context())
	out, err := h.dispatcher.Dispatch(ctx, middleware.UserID(c), action, body)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.OK(c, out)
}
