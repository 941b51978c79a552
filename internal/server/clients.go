package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mara/billdesk/internal/app"
	"github.com/mara/billdesk/internal/domain"
)

type clientHandler struct {
	app *app.App
}

func newClientHandler(application *app.App) *clientHandler {
	return &clientHandler{app: application}
}

func (h *clientHandler) registerRoutes(router *gin.RouterGroup) {
	clients := router.Group("/clients")
	{
		clients.POST("", h.create)
		clients.GET("", h.list)
		clients.GET("/:id", h.get)
		clients.PUT("/:id", h.update)
		clients.POST("/:id/archive", h.archive)
		clients.POST("/:id/unarchive", h.unarchive)
	}
}

type clientRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email"`
	Company string `json:"company"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

type clientResponse struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	Company    string    `json:"company,omitempty"`
	Address    string    `json:"address,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	IsArchived bool      `json:"isArchived"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toClientResponse(client *domain.Client) clientResponse {
	return clientResponse{
		ID:         client.ID,
		Name:       client.Name,
		Email:      client.Email,
		Company:    client.Company,
		Address:    client.Address,
		Notes:      client.Notes,
		IsArchived: client.IsArchived,
		CreatedAt:  client.CreatedAt,
	}
}

func (h *clientHandler) create(c *gin.Context) {
	var req clientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	client := domain.NewClient(currentUserID(c), req.Name)
	client.Email = req.Email
	client.Company = req.Company
	client.Address = req.Address
	client.Notes = req.Notes

	if err := client.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.app.ClientRepo.Create(c.Request.Context(), client); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toClientResponse(client))
}

func (h *clientHandler) list(c *gin.Context) {
	includeArchived := c.Query("includeArchived") == "true"

	clients, err := h.app.ClientRepo.List(c.Request.Context(), currentUserID(c), includeArchived)
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]clientResponse, 0, len(clients))
	for _, client := range clients {
		out = append(out, toClientResponse(client))
	}
	c.JSON(http.StatusOK, gin.H{"clients": out, "totalCount": len(out)})
}

func (h *clientHandler) get(c *gin.Context) {
	client, err := h.fetchOwned(c)
	if err != nil {
		return
	}
	c.JSON(http.StatusOK, toClientResponse(client))
}

func (h *clientHandler) update(c *gin.Context) {
	client, err := h.fetchOwned(c)
	if err != nil {
		return
	}

	var req clientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	client.Name = req.Name
	client.Email = req.Email
	client.Company = req.Company
	client.Address = req.Address
	client.Notes = req.Notes
	client.UpdatedAt = time.Now()

	if err := client.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.app.ClientRepo.Update(c.Request.Context(), client); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toClientResponse(client))
}

func (h *clientHandler) archive(c *gin.Context) {
	client, err := h.fetchOwned(c)
	if err != nil {
		return
	}
	if err := h.app.ClientRepo.Archive(c.Request.Context(), client.ID, currentUserID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"archived": true})
}

func (h *clientHandler) unarchive(c *gin.Context) {
	client, err := h.fetchOwned(c)
	if err != nil {
		return
	}
	if err := h.app.ClientRepo.Unarchive(c.Request.Context(), client.ID, currentUserID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"archived": false})
}

// fetchOwned loads the path client scoped to the acting user, writing the
// error response itself when the lookup fails.
func (h *clientHandler) fetchOwned(c *gin.Context) (*domain.Client, error) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid client id"})
		return nil, err
	}

	client, err := h.app.ClientRepo.GetOwned(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		writeError(c, err)
		return nil, err
	}
	if client == nil {
		writeError(c, domain.ErrClientNotFound)
		return nil, domain.ErrClientNotFound
	}
	return client, nil
}
