package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zapcore"
)

// Server HTTP + WebSocket 入口
type Server struct {
	cfg    Config
	rooms  *RoomManager
	ctx    context.Context // 进程退出信号，WS 连接据此发送关闭帧
	engine *gin.Engine
}

// GinMode 按日志级别选择 gin 运行模式：只有 debug 级别保留 gin 的调试输出
func GinMode(level string) string {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil || lvl > zapcore.DebugLevel {
		return gin.ReleaseMode
	}
	return gin.DebugMode
}

// NewServer 组装路由
func NewServer(ctx context.Context, cfg Config, rooms *RoomManager) *Server {
	s := &Server{cfg: cfg, rooms: rooms, ctx: ctx}

	e := gin.New()
	e.Use(gin.Recovery(), ginLogger(), corsMiddleware(cfg.CORS))

	e.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	e.POST("/rooms", s.CreateRoom)
	e.GET("/rooms", s.ListRooms)
	e.GET("/rooms/:key/join", s.JoinRoom)
	e.GET("/rooms/:key/state", s.RoomState)
	e.POST("/rooms/:key/reset", s.ResetRoom)
	e.DELETE("/rooms/:key", s.DeleteRoom)
	e.GET("/rooms/:key/metrics", s.RoomMetrics)
	e.GET("/ws/rooms/:key", s.HandleWS)

	s.engine = e
	return s
}

// Handler 返回 http.Handler，供 http.Server 使用
func (s *Server) Handler() http.Handler { return s.engine }

func corsMiddleware(cfg CORSConfig) gin.HandlerFunc {
	cc := cors.DefaultConfig()
	cc.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}
	if len(cfg.AllowedOrigins) == 0 {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = cfg.AllowedOrigins
	}
	return cors.New(cc)
}

// writeError 输出结构化错误：{"error":{"kind":...,"message":...}}
func writeError(c *gin.Context, err error) {
	ae := AsAppError(err)
	c.AbortWithStatusJSON(ae.HTTPStatus(), gin.H{"error": ae})
}

// CreateRoom POST /rooms?players=2|4
func (s *Server) CreateRoom(c *gin.Context) {
	players := 0
	if v := c.Query("players"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(c, &AppError{Kind: KindBadRequest, Message: "players must be an integer"})
			return
		}
		players = n
	}
	key, err := s.rooms.CreateRoom(players)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"room_id": key})
}

// JoinRoom GET /rooms/:key/join 客户端连接 WS 前确认房间存在
func (s *Server) JoinRoom(c *gin.Context) {
	info, err := s.rooms.Room(c.Param("key"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// RoomState GET /rooms/:key/state 当前权威快照
func (s *Server) RoomState(c *gin.Context) {
	snap, err := s.rooms.PlayersState(c.Param("key"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, PositionsEvent{Type: EventPositions, Snapshot: snap})
}
