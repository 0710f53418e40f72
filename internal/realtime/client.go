package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/cheezy-bite/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	writeTimeout = 7 * time.Second
	pingInterval = 30 * time.Second
	readLimit    = 4096
)

// Client 单个 WebSocket 连接，写操作串行化。
type Client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// NewClient 包装一条连接
func NewClient(conn *websocket.Conn) *Client {
	return &Client{conn: conn}
}

func (c *Client) writeText(raw []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, raw)
}

// WriteJSON 序列化后写出
func (c *Client) WriteJSON(v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.writeText(raw)
}

func (c *Client) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeTimeout))
}

func (c *Client) close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Close()
}

// clientFrame 客户端上行帧，目前只有 join / leave。
type clientFrame struct {
	Action string `json:"action"`
	Room   string `json:"room"`
}

// ReadLoop 消费上行订阅指令直到连接断开。
// 非法房间名的订阅请求直接忽略并回一条错误帧。
func (c *Client) ReadLoop(hub *Hub) {
	defer func() {
		hub.Remove(c)
		_ = c.close()
	}()
	c.conn.SetReadLimit(readLimit)

	stopPing := make(chan struct{})
	defer close(stopPing)
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stopPing:
				return
			case <-ticker.C:
				if err := c.ping(); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var frame clientFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			logger.Debugw("realtime_bad_frame", "error", err)
			continue
		}
		switch frame.Action {
		case "join":
			if !AllowedRoom(frame.Room) {
				_ = c.WriteJSON(map[string]interface{}{"event": "error", "msg": "unknown room"})
				continue
			}
			hub.Join(frame.Room, c)
			_ = c.WriteJSON(map[string]interface{}{"event": "joined", "room": frame.Room})
		case "leave":
			hub.Leave(frame.Room, c)
		}
	}
}
