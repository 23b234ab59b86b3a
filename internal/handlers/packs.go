package handlers

import (
	"net/http"

	"github.com/rufio-world/little-lies-game/internal/packs"
	"github.com/rufio-world/little-lies-game/internal/services"

	"github.com/gin-gonic/gin"
)

type PacksHandler struct {
	registry    *packs.Registry
	authService *services.AuthService
}

func NewPacksHandler(registry *packs.Registry, authService *services.AuthService) *PacksHandler {
	return &PacksHandler{registry: registry, authService: authService}
}

type PackSummary struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Language      string `json:"language"`
	Theme         string `json:"theme"`
	Free          bool   `json:"free"`
	QuestionCount int    `json:"question_count"`
}

func (h *PacksHandler) ListPacks(c *gin.Context) {
	language := c.DefaultQuery("language", "en")

	list := h.registry.List(language)
	summaries := make([]PackSummary, len(list))
	for i, p := range list {
		summaries[i] = PackSummary{
			ID:            p.ID,
			Name:          p.Name,
			Language:      p.Language,
			Theme:         p.Theme,
			Free:          p.Free,
			QuestionCount: len(p.Questions),
		}
	}
	c.JSON(http.StatusOK, summaries)
}

func (h *PacksHandler) UnlockPack(c *gin.Context) {
	userID := c.GetUint("user_id")
	packID := c.Param("id")

	if _, ok := h.registry.Pack(packID, "en"); !ok {
		if _, ok := h.registry.Pack(packID, "es"); !ok {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "pack not found"})
			return
		}
	}

	user, err := h.authService.UnlockPack(userID, packID)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, user)
}
