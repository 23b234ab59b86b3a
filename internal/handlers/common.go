package handlers

import (
	"github.com/rufio-world/little-lies-game/internal/apperrors"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func abortWithError(c *gin.Context, err error) {
	c.JSON(apperrors.HTTPStatus(err), ErrorResponse{Error: err.Error()})
}
