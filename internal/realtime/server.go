package realtime

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/cheezy-bite/internal/config"
	"github.com/cheezy-bite/internal/http/response"
	"github.com/cheezy-bite/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Server 实时推送服务，暴露 WebSocket 入口与内部桥接口。
type Server struct {
	hub          *Hub
	bridgeSecret string
}

// NewServer 创建实时服务
func NewServer(hub *Hub, cfg *config.RealtimeConfig) *Server {
	secret := ""
	if cfg != nil {
		secret = cfg.BridgeSecret
	}
	return &Server{hub: hub, bridgeSecret: secret}
}

// Hub 暴露扇出中心（进程内发布用）
func (s *Server) Hub() *Hub {
	return s.hub
}

// RegisterRoutes 挂载实时路由
func (s *Server) RegisterRoutes(r gin.IRouter) {
	r.GET("/ws", s.handleWS)
	r.POST("/internal/broadcast", s.handleBroadcast)
	r.GET("/stats", s.handleStats)
}

// handleWS 升级连接并进入订阅循环
func (s *Server) handleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warnw("realtime_upgrade_failed", "error", err, "remote", c.ClientIP())
		return
	}
	client := NewClient(conn)
	s.hub.Register(client)
	go client.ReadLoop(s.hub)
}

// handleBroadcast 内部桥接口，只认共享密钥。
func (s *Server) handleBroadcast(c *gin.Context) {
	token := c.GetHeader("X-Bridge-Token")
	if s.bridgeSecret == "" ||
		subtle.ConstantTimeCompare([]byte(token), []byte(s.bridgeSecret)) != 1 {
		response.Unauthorized(c, "invalid bridge token")
		return
	}

	var payload bridgePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.BadRequest(c, "invalid payload")
		return
	}
	if payload.Event == "" || len(payload.Rooms) == 0 {
		response.BadRequest(c, "event and rooms required")
		return
	}

	now := time.Now().UnixMilli()
	for _, room := range payload.Rooms {
		s.hub.Broadcast(room, Frame{Event: payload.Event, Room: room, Data: payload.Data, Ts: now})
	}
	response.Success(c, gin.H{"delivered": len(payload.Rooms)})
}

// handleStats 连接统计
func (s *Server) handleStats(c *gin.Context) {
	response.Success(c, gin.H{
		"connections": s.hub.ConnCount(""),
		"rooms":       s.hub.RoomCount(),
	})
}
