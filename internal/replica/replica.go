// Package replica 维护一份在途订单的本地副本：定时推进阶段做进度动画，
// 写透到存储，回写镜像到权威库，并与同 scope 的其他副本保持收敛。
package replica

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cheezy-bite/internal/config"
	"github.com/cheezy-bite/internal/constants"
	"github.com/cheezy-bite/internal/logger"
	"github.com/cheezy-bite/internal/models"

	"github.com/google/uuid"
)

const (
	activeKeySuffix  = ":active"
	historyKeySuffix = ":history"
)

// SyncFunc 把本地推进的阶段镜像回权威库
type SyncFunc func(orderNo string, stage int) error

// Options 副本行为参数
type Options struct {
	AdvanceInterval time.Duration
	StaleAfter      time.Duration
	ArchiveGrace    time.Duration
	HistoryLimit    int
}

// OptionsFromConfig 从应用配置换算
func OptionsFromConfig(cfg *config.ReplicaConfig) Options {
	opts := Options{
		AdvanceInterval: 15 * time.Second,
		StaleAfter:      2 * time.Hour,
		ArchiveGrace:    30 * time.Second,
		HistoryLimit:    10,
	}
	if cfg == nil {
		return opts
	}
	if cfg.AdvanceIntervalSeconds > 0 {
		opts.AdvanceInterval = time.Duration(cfg.AdvanceIntervalSeconds) * time.Second
	}
	if cfg.StaleAfterMinutes > 0 {
		opts.StaleAfter = time.Duration(cfg.StaleAfterMinutes) * time.Minute
	}
	if cfg.ArchiveGraceSeconds > 0 {
		opts.ArchiveGrace = time.Duration(cfg.ArchiveGraceSeconds) * time.Second
	}
	if cfg.HistoryLimit > 0 {
		opts.HistoryLimit = cfg.HistoryLimit
	}
	return opts
}

// Manager 单个 scope（一个浏览器标签页的等价物）的副本管理器。
// 同一 scope 最多持有一份活动副本。
type Manager struct {
	store    Store
	scope    string
	originID string
	opts     Options
	sync     SyncFunc

	ctx    context.Context
	cancel context.CancelFunc

	// ops 串行化全部状态变更，定时器与订阅回调都经它走，
	// 两个在途定时器不会竞争写同一个阶段。
	ops chan func()

	active *Snapshot
	timer  *time.Timer
}

// NewManager 创建副本管理器
func NewManager(store Store, scope string, opts Options, syncFn SyncFunc) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		store:    store,
		scope:    scope,
		originID: uuid.NewString(),
		opts:     opts,
		sync:     syncFn,
		ctx:      ctx,
		cancel:   cancel,
		ops:      make(chan func(), 16),
	}
	go m.loop()
	return m
}

// OriginID 本副本的来源标识
func (m *Manager) OriginID() string {
	return m.originID
}

func (m *Manager) activeKey() string {
	return m.scope + activeKeySuffix
}

func (m *Manager) historyKey() string {
	return m.scope + historyKeySuffix
}

func (m *Manager) loop() {
	for {
		select {
		case <-m.ctx.Done():
			return
		case op := <-m.ops:
			op()
		}
	}
}

// do 把操作投递到单线程循环并等待完成
func (m *Manager) do(op func()) {
	done := make(chan struct{})
	select {
	case m.ops <- func() {
		op()
		close(done)
	}:
		select {
		case <-done:
		case <-m.ctx.Done():
		}
	case <-m.ctx.Done():
	}
}

// Activate 在结账成功后建立活动副本并启动推进定时器。
func (m *Manager) Activate(order *models.Order) {
	if order == nil {
		return
	}
	state := OrderState{
		OrderNo:     order.OrderNo,
		Stage:       order.CurrentStage,
		StatusLabel: order.StatusLabel,
		History:     order.StatusHistory,
		TotalAmount: order.TotalAmount,
		CreatedAt:   order.CreatedAt,
	}
	m.do(func() {
		m.active = &Snapshot{Order: state, Origin: m.originID, SavedAt: time.Now()}
		m.persist()
		m.reschedule()
	})
}

// Load 启动时恢复活动副本。超过陈旧阈值的副本静默丢弃，
// 视同没有在途订单。
func (m *Manager) Load(ctx context.Context) (*OrderState, error) {
	raw, ok, err := m.store.Get(ctx, m.activeKey())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		// 损坏的副本直接清掉
		_ = m.store.Delete(ctx, m.activeKey())
		return nil, nil
	}
	if time.Since(snap.SavedAt) > m.opts.StaleAfter {
		if err := m.store.Delete(ctx, m.activeKey()); err != nil {
			logger.Warnw("replica_stale_delete_failed", "scope", m.scope, "error", err)
		}
		return nil, nil
	}

	var adopted OrderState
	m.do(func() {
		m.active = &snap
		m.reschedule()
		adopted = snap.Order
	})
	return &adopted, nil
}

// Current 当前活动副本快照
func (m *Manager) Current() *OrderState {
	var out *OrderState
	m.do(func() {
		if m.active != nil {
			copied := m.active.Order
			out = &copied
		}
	})
	return out
}

// Watch 监听同 scope 其他副本的写入并整体替换本地拷贝。
// 自己的回声按来源标识直接跳过。
func (m *Manager) Watch() error {
	ch, err := m.store.Subscribe(m.ctx, m.activeKey())
	if err != nil {
		return err
	}
	go func() {
		for n := range ch {
			if n.Deleted {
				m.do(func() {
					m.active = nil
					m.stopTimer()
				})
				continue
			}
			var snap Snapshot
			if err := json.Unmarshal(n.Value, &snap); err != nil {
				logger.Warnw("replica_watch_decode_failed", "scope", m.scope, "error", err)
				continue
			}
			if snap.Origin == m.originID {
				continue
			}
			m.do(func() {
				// 整体替换，不做字段级合并
				m.active = &snap
				m.reschedule()
			})
		}
	}()
	return nil
}

// ApplyPush 应用一条实时推送的阶段（来自 Broker 的权威变更）。
// 阶段只会前进，旧于当前的推送忽略。
func (m *Manager) ApplyPush(orderNo string, stage int, label string) {
	m.do(func() {
		if m.active == nil || m.active.Order.OrderNo != orderNo {
			return
		}
		if stage <= m.active.Order.Stage && stage != constants.StageCancelled {
			return
		}
		now := time.Now()
		m.active.Order.Stage = stage
		m.active.Order.StatusLabel = label
		m.active.Order.History = append(m.active.Order.History, models.StageEntry{
			Stage: stage, Label: label, Timestamp: now,
		})
		m.persist()
		if stage == constants.StageDelivered || stage == constants.StageCancelled {
			m.scheduleArchive()
		} else {
			m.reschedule()
		}
	})
}

// persist 写透当前副本到存储
func (m *Manager) persist() {
	if m.active == nil {
		return
	}
	m.active.Origin = m.originID
	m.active.SavedAt = time.Now()
	raw, err := json.Marshal(m.active)
	if err != nil {
		logger.Warnw("replica_marshal_failed", "scope", m.scope, "error", err)
		return
	}
	if err := m.store.Set(m.ctx, m.activeKey(), raw); err != nil {
		logger.Warnw("replica_persist_failed", "scope", m.scope, "error", err)
	}
}

// advance 定时器触发的本地推进
func (m *Manager) advance() {
	if m.active == nil {
		return
	}
	state := &m.active.Order
	if state.Stage >= constants.StageDelivered || state.Stage == constants.StageCancelled {
		return
	}
	next := state.Stage + 1
	state.Stage = next
	state.StatusLabel = constants.StageLabel(next)
	state.History = append(state.History, models.StageEntry{
		Stage: next, Label: constants.StageLabel(next), Timestamp: time.Now(),
	})
	m.persist()

	// 镜像回权威库，失败只记日志，下个周期还有机会
	if m.sync != nil {
		if err := m.sync(state.OrderNo, next); err != nil {
			logger.Warnw("replica_mirror_failed", "order_no", state.OrderNo, "stage", next, "error", err)
		}
	}

	if next >= constants.StageDelivered {
		m.scheduleArchive()
		return
	}
	m.reschedule()
}

// reschedule 重置推进定时器。每次状态变更都走这里，
// 旧定时器先取消再排新的。
func (m *Manager) reschedule() {
	m.stopTimer()
	if m.active == nil {
		return
	}
	stage := m.active.Order.Stage
	if stage >= constants.StageDelivered || stage == constants.StageCancelled {
		return
	}
	m.timer = time.AfterFunc(m.opts.AdvanceInterval, func() {
		m.do(m.advance)
	})
}

// scheduleArchive 宽限期后归档并清空活动位
func (m *Manager) scheduleArchive() {
	m.stopTimer()
	m.timer = time.AfterFunc(m.opts.ArchiveGrace, func() {
		m.do(m.archive)
	})
}

// archive 把完结副本压入有界历史（最新在前）
func (m *Manager) archive() {
	if m.active == nil {
		return
	}
	finished := m.active.Order

	history := append([]OrderState{finished}, m.loadHistory()...)
	if len(history) > m.opts.HistoryLimit {
		history = history[:m.opts.HistoryLimit]
	}
	m.saveHistory(history)

	m.active = nil
	if err := m.store.Delete(m.ctx, m.activeKey()); err != nil {
		logger.Warnw("replica_archive_delete_failed", "scope", m.scope, "error", err)
	}
}

// History 已归档订单列表，最新在前。
func (m *Manager) History() []OrderState {
	var out []OrderState
	m.do(func() {
		out = m.loadHistory()
	})
	return out
}

func (m *Manager) loadHistory() []OrderState {
	raw, ok, err := m.store.Get(m.ctx, m.historyKey())
	if err != nil {
		logger.Warnw("replica_history_read_failed", "scope", m.scope, "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	var history []OrderState
	if err := json.Unmarshal(raw, &history); err != nil {
		return nil
	}
	return history
}

func (m *Manager) saveHistory(history []OrderState) {
	raw, err := json.Marshal(history)
	if err != nil {
		return
	}
	if err := m.store.Set(m.ctx, m.historyKey(), raw); err != nil {
		logger.Warnw("replica_history_write_failed", "scope", m.scope, "error", err)
	}
}

func (m *Manager) stopTimer() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// Close 停止定时器与后台循环
func (m *Manager) Close() {
	m.do(func() {
		m.stopTimer()
	})
	m.cancel()
}
