package realtime

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cheezy-bite/internal/logger"
)

// Frame 广播帧，推给客户端的统一结构
type Frame struct {
	Event string      `json:"event"`
	Room  string      `json:"room"`
	Data  interface{} `json:"data"`
	Ts    int64       `json:"ts"`
}

// Publisher 事件发布接口。业务侧投递即返回，失败只记日志不回传。
type Publisher interface {
	Publish(event string, rooms []string, data interface{})
}

// HubPublisher 进程内直连 Hub 的发布器（all 模式）
type HubPublisher struct {
	hub *Hub
}

// NewHubPublisher 创建进程内发布器
func NewHubPublisher(hub *Hub) *HubPublisher {
	return &HubPublisher{hub: hub}
}

// Publish 直接经 Hub 扇出
func (p *HubPublisher) Publish(event string, rooms []string, data interface{}) {
	if p.hub == nil {
		return
	}
	now := time.Now().UnixMilli()
	for _, room := range rooms {
		p.hub.Broadcast(room, Frame{Event: event, Room: room, Data: data, Ts: now})
	}
}

// HTTPPublisher 经内部桥接口投递到独立的实时进程（api 模式）。
// 投递在后台协程完成，带 3 秒超时。
type HTTPPublisher struct {
	bridgeURL    string
	bridgeSecret string
	client       *http.Client
}

// NewHTTPPublisher 创建桥接发布器
func NewHTTPPublisher(bridgeURL, bridgeSecret string) *HTTPPublisher {
	return &HTTPPublisher{
		bridgeURL:    bridgeURL,
		bridgeSecret: bridgeSecret,
		client:       &http.Client{Timeout: 3 * time.Second},
	}
}

type bridgePayload struct {
	Event string      `json:"event"`
	Rooms []string    `json:"rooms"`
	Data  interface{} `json:"data"`
}

// Publish 异步投递一条广播
func (p *HTTPPublisher) Publish(event string, rooms []string, data interface{}) {
	if p.bridgeURL == "" {
		return
	}
	go func() {
		body, err := json.Marshal(bridgePayload{Event: event, Rooms: rooms, Data: data})
		if err != nil {
			logger.Warnw("realtime_bridge_marshal_failed", "event", event, "error", err)
			return
		}
		req, err := http.NewRequest(http.MethodPost, p.bridgeURL, bytes.NewReader(body))
		if err != nil {
			logger.Warnw("realtime_bridge_request_failed", "event", event, "error", err)
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Bridge-Token", p.bridgeSecret)
		resp, err := p.client.Do(req)
		if err != nil {
			logger.Warnw("realtime_bridge_post_failed", "event", event, "error", err)
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			logger.Warnw("realtime_bridge_rejected", "event", event, "status", resp.StatusCode)
		}
	}()
}

// NopPublisher 空实现（worker 模式等不需要广播的场景）
type NopPublisher struct{}

// Publish 丢弃事件
func (NopPublisher) Publish(string, []string, interface{}) {}
