package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListRooms GET /rooms 返回所有房间概览
func (s *Server) ListRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": s.rooms.ListRooms()})
}

// DeleteRoom DELETE /rooms/:key 删除房间并停止其 Tick 循环
func (s *Server) DeleteRoom(c *gin.Context) {
	if err := s.rooms.DeleteRoom(c.Param("key")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ResetRoom POST /rooms/:key/reset 重开一局，玩家名单保留
func (s *Server) ResetRoom(c *gin.Context) {
	if err := s.rooms.ResetRoom(c.Param("key")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RoomMetrics GET /rooms/:key/metrics 输出指定房间的运行指标
func (s *Server) RoomMetrics(c *gin.Context) {
	key := c.Param("key")
	metrics, err := s.rooms.Metrics(key)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": key, "metrics": metrics})
}
