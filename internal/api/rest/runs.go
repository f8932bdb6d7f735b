package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/KevinKickass/donp/internal/interfaces"
	"github.com/KevinKickass/donp/internal/protocol"
	"github.com/KevinKickass/donp/internal/storage"
	"github.com/KevinKickass/donp/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// POST /api/v1/runs
func (s *Server) startRun(c *gin.Context) {
	report, err := s.lm.RunProtocol(c.Request.Context())
	if err != nil {
		if errors.Is(err, protocol.ErrNotConfigured) || errors.Is(err, protocol.ErrInvalidTransition) {
			c.JSON(http.StatusConflict, types.NewErrorResponse("RUN_409", "Protocol cannot run", err.Error()))
			return
		}
		s.logger.Error("Run failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse("RUN_500", "Run failed", err.Error()))
		return
	}
	c.JSON(http.StatusOK, report)
}

// GET /api/v1/runs/last
func (s *Server) getLastRun(c *gin.Context) {
	report, err := s.lm.LastReport()
	if err != nil {
		c.JSON(http.StatusNotFound, types.NewErrorResponse("RUN_404", "No run available", err.Error()))
		return
	}
	c.JSON(http.StatusOK, report)
}

// GET /api/v1/runs?limit=N
func (s *Server) listRuns(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("RUN_400", "Invalid limit", c.Query("limit")))
		return
	}

	runs, err := s.lm.ListRuns(c.Request.Context(), limit)
	if err != nil {
		s.storageError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"runs":  runs,
		"count": len(runs),
	})
}

// GET /api/v1/runs/:id/results
func (s *Server) getRunResults(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("RUN_400", "Invalid run ID", err.Error()))
		return
	}

	results, err := s.lm.RunResults(c.Request.Context(), runID)
	if err != nil {
		s.storageError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"run_id":  runID,
		"results": results,
		"count":   len(results),
	})
}

func (s *Server) storageError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, interfaces.ErrStorageDisabled):
		c.JSON(http.StatusServiceUnavailable, types.NewErrorResponse("STORAGE_503", "Run storage is disabled", nil))
	case errors.Is(err, storage.ErrRunNotFound):
		c.JSON(http.StatusNotFound, types.NewErrorResponse("RUN_404", "Run not found", err.Error()))
	default:
		s.logger.Error("Storage query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse("STORAGE_500", "Storage query failed", err.Error()))
	}
}
