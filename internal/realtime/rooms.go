package realtime

import (
	"strings"

	"github.com/cheezy-bite/internal/constants"
)

// 固定房间集合，前缀房间按订单号/用户 ID 动态生成。
var fixedRooms = map[string]struct{}{
	constants.RoomAdminDashboard: {},
	constants.RoomAdminOrders:    {},
	constants.RoomCustomers:      {},
	constants.RoomMenuUpdates:    {},
}

// AllowedRoom 校验房间名是否可订阅
func AllowedRoom(room string) bool {
	room = strings.TrimSpace(room)
	if room == "" {
		return false
	}
	if _, ok := fixedRooms[room]; ok {
		return true
	}
	if strings.HasPrefix(room, constants.RoomOrderPrefix) {
		return len(room) > len(constants.RoomOrderPrefix)
	}
	if strings.HasPrefix(room, constants.RoomUserPrefix) {
		return len(room) > len(constants.RoomUserPrefix)
	}
	return false
}
