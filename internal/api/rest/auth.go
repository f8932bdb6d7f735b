package rest

import (
	"errors"
	"net/http"

	"github.com/KevinKickass/donp/internal/auth"
	"github.com/KevinKickass/donp/internal/types"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type tokenRequest struct {
	Key string `json:"key" binding:"required"`
}

// guard protects routes that change system state when auth is enabled.
func (s *Server) guard() gin.HandlerFunc {
	if s.auth == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return s.auth.Middleware()
}

func (s *Server) issueToken(c *gin.Context) {
	if s.auth == nil {
		c.JSON(http.StatusNotFound, types.NewErrorResponse("AUTH_DISABLED", "authentication is not enabled", nil))
		return
	}

	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("AUTH_400", "invalid request body", err.Error()))
		return
	}

	token, expires, err := s.auth.Login(req.Key)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidKey) {
			c.JSON(http.StatusUnauthorized, types.NewErrorResponse("AUTH_401", "invalid operator key", nil))
			return
		}
		s.logger.Error("Failed to issue token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse("AUTH_500", "failed to issue token", nil))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"token_type": "Bearer",
		"expires_at": expires,
	})
}
