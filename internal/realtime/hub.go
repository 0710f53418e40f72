package realtime

import (
	"encoding/json"
	"sync"
)

// Hub 房间制扇出中心。客户端按房间订阅，广播只投给该房间的连接。
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
	conns map[*Client]struct{}
}

// NewHub 创建扇出中心
func NewHub() *Hub {
	return &Hub{
		rooms: map[string]map[*Client]struct{}{},
		conns: map[*Client]struct{}{},
	}
}

// Register 连接建立即登记，未订阅任何房间也能收到全局广播。
func (h *Hub) Register(c *Client) {
	if h == nil || c == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c] = struct{}{}
}

// Join 将客户端加入房间
func (h *Hub) Join(room string, c *Client) {
	if h == nil || room == "" || c == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c] = struct{}{}
	members := h.rooms[room]
	if members == nil {
		members = map[*Client]struct{}{}
		h.rooms[room] = members
	}
	members[c] = struct{}{}
}

// Leave 将客户端移出房间，空房间随手回收。
func (h *Hub) Leave(room string, c *Client) {
	if h == nil || room == "" || c == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	members := h.rooms[room]
	if members == nil {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// Remove 客户端断开时从所有房间移除
func (h *Hub) Remove(c *Client) {
	if h == nil || c == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, c)
	for room, members := range h.rooms {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

func (h *Hub) list(room string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if room == "" {
		out := make([]*Client, 0, len(h.conns))
		for c := range h.conns {
			out = append(out, c)
		}
		return out
	}
	members := h.rooms[room]
	if len(members) == 0 {
		return nil
	}
	out := make([]*Client, 0, len(members))
	for c := range members {
		out = append(out, c)
	}
	return out
}

// Broadcast 向房间内全部连接投递一帧，room 为空时投给全部连接。
// 写失败的连接当场清理。
func (h *Hub) Broadcast(room string, payload interface{}) {
	if h == nil {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	for _, c := range h.list(room) {
		if err := c.writeText(raw); err != nil {
			h.Remove(c)
			_ = c.close()
		}
	}
}

// ConnCount 统计房间连接数，room 为空时统计全部去重连接。
func (h *Hub) ConnCount(room string) int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if room != "" {
		return len(h.rooms[room])
	}
	return len(h.conns)
}

// RoomCount 当前活跃房间数
func (h *Hub) RoomCount() int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}
