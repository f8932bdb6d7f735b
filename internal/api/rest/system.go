package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/KevinKickass/donp/internal/types"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GET /api/v1/system/status
func (s *Server) getSystemStatus(c *gin.Context) {
	status := s.lm.GetCurrentStatus()
	c.JSON(http.StatusOK, status)
}

// POST /api/v1/system/reload
func (s *Server) reloadDefinition(c *gin.Context) {
	if err := s.lm.Reload(); err != nil {
		var cfgErr *types.ConfigurationError
		if errors.As(err, &cfgErr) {
			c.JSON(http.StatusUnprocessableEntity, types.NewErrorResponse("SYSTEM_422", "Invalid protocol definition", gin.H{
				"path":   cfgErr.Path,
				"reason": cfgErr.Reason,
			}))
			return
		}
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse("SYSTEM_500", "Failed to reload definition", err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Definition reloaded",
		"status":  s.lm.GetCurrentStatus(),
	})
}

// POST /api/v1/system/shutdown
func (s *Server) shutdown(c *gin.Context) {
	c.JSON(http.StatusAccepted, gin.H{
		"message": "Shutdown initiated",
	})

	// The request context ends with this handler
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.lm.Config().Server.ShutdownTimeout)
		defer cancel()
		if err := s.lm.Shutdown(ctx); err != nil {
			s.logger.Error("Shutdown failed", zap.Error(err))
		}
	}()
}
