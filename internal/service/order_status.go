package service

import (
	"time"

	"github.com/cheezy-bite/internal/constants"
	"github.com/cheezy-bite/internal/models"
)

// CanTransition 判断一次阶段变更是否合法。
// 规则：同阶段幂等放行；只能从 Placed 取消；正常推进每次只进一步；
// staffOverride 允许越级跳到任意未完结的更高阶段（不含 Delivered）。
func CanTransition(current, target int, staffOverride bool) bool {
	if !validStage(current) || !validStage(target) {
		return false
	}
	if target == current {
		return true
	}
	if IsTerminalStage(current) {
		return false
	}
	if target == constants.StageCancelled {
		return current == constants.StagePlaced
	}
	if target == current+1 {
		return true
	}
	if staffOverride && target > current && target < constants.StageDelivered {
		return true
	}
	return false
}

// IsTerminalStage 已取消与已送达之后不再变更
func IsTerminalStage(stage int) bool {
	return stage == constants.StageCancelled || stage == constants.StageDelivered
}

func validStage(stage int) bool {
	return stage >= constants.StageCancelled && stage <= constants.StageDelivered
}

// appendStageHistory 追加一条阶段轨迹，轨迹只增不减。
func appendStageHistory(history models.StageHistory, stage int, at time.Time) models.StageHistory {
	return append(history, models.StageEntry{
		Stage:     stage,
		Label:     constants.StageLabel(stage),
		Timestamp: at,
	})
}
