package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/laserowo/studio-manager/internal/httperr"
	"github.com/laserowo/studio-manager/internal/httpresp"
	"github.com/laserowo/studio-manager/internal/middleware"
	ucClient "github.com/laserowo/studio-manager/internal/usecase/client"
)

type ClientHandler struct {
	search     *ucClient.SearchClients
	get        *ucClient.GetClient
	deactivate *ucClient.DeactivateClient
}

func NewClientHandler(
	search *ucClient.SearchClients,
	get *ucClient.GetClient,
	deactivate *ucClient.DeactivateClient,
) *ClientHandler {
	return &ClientHandler{
		search:     search,
		get:        get,
		deactivate: deactivate,
	}
}

// ======================================================
// LIST CLIENTS
// ======================================================
func (h *ClientHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	clients, err := h.search.Execute(c.Request.Context(), c.Query("query"), limit)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.List(c, clients)
}

func (h *ClientHandler) Get(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	client, err := h.get.Execute(c.Request.Context(), id)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.OK(c, client)
}

// Deactivate removes a client without history, otherwise marks it inactive.
func (h *ClientHandler) Deactivate(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	res, err := h.deactivate.Execute(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.OK(c, res)
}
