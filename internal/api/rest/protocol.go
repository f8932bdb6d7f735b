package rest

import (
	"net/http"

	"github.com/KevinKickass/donp/internal/types"
	"github.com/gin-gonic/gin"
)

// GET /api/v1/protocol
func (s *Server) getProtocol(c *gin.Context) {
	c.JSON(http.StatusOK, s.lm.ProtocolSnapshot())
}

// GET /api/v1/devices
func (s *Server) listDevices(c *gin.Context) {
	snap := s.lm.ProtocolSnapshot()

	response := make([]gin.H, 0, len(snap.Devices))
	for _, device := range snap.Devices {
		response = append(response, gin.H{
			"id":       device.ID,
			"name":     device.Name,
			"address":  device.Address,
			"messages": len(device.Messages),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"devices": response,
		"count":   len(response),
	})
}

// GET /api/v1/devices/:name
func (s *Server) getDevice(c *gin.Context) {
	name := c.Param("name")
	device, ok := s.lm.Device(name)
	if !ok {
		c.JSON(http.StatusNotFound, types.NewErrorResponse("DEVICE_404", "Device not found", name))
		return
	}
	c.JSON(http.StatusOK, device)
}

// GET /api/v1/prototypes
func (s *Server) listPrototypes(c *gin.Context) {
	prototypes := s.lm.Prototypes()
	c.JSON(http.StatusOK, gin.H{
		"prototypes": prototypes,
		"count":      len(prototypes),
	})
}

// GET /api/v1/prototypes/:name
func (s *Server) getPrototype(c *gin.Context) {
	name := c.Param("name")
	proto, ok := s.lm.Prototype(name)
	if !ok {
		c.JSON(http.StatusNotFound, types.NewErrorResponse("PROTOTYPE_404", "Prototype not found", name))
		return
	}
	c.JSON(http.StatusOK, proto)
}
