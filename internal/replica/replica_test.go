package replica

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/cheezy-bite/internal/constants"
	"github.com/cheezy-bite/internal/models"
)

func testOptions() Options {
	return Options{
		AdvanceInterval: 25 * time.Millisecond,
		StaleAfter:      time.Hour,
		ArchiveGrace:    25 * time.Millisecond,
		HistoryLimit:    2,
	}
}

func testOrder(orderNo string) *models.Order {
	now := time.Now()
	return &models.Order{
		OrderNo:       orderNo,
		CurrentStage:  constants.StagePlaced,
		StatusLabel:   constants.StageLabel(constants.StagePlaced),
		StatusHistory: models.StageHistory{{Stage: constants.StagePlaced, Label: "Placed", Timestamp: now}},
		CreatedAt:     now,
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met: %s", msg)
}

func TestLoadDiscardsStaleReplica(t *testing.T) {
	store := NewMemoryStore()
	opts := testOptions()
	opts.AdvanceInterval = time.Hour // 本测试不关心推进

	stale := Snapshot{
		Order:   OrderState{OrderNo: "CB-STALE", Stage: constants.StageBaking},
		Origin:  "another-tab",
		SavedAt: time.Now().Add(-2 * time.Hour),
	}
	raw, err := json.Marshal(stale)
	if err != nil {
		t.Fatalf("marshal snapshot failed: %v", err)
	}
	if err := store.Set(context.Background(), "tab:active", raw); err != nil {
		t.Fatalf("seed store failed: %v", err)
	}

	m := NewManager(store, "tab", opts, nil)
	defer m.Close()

	state, err := m.Load(context.Background())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if state != nil {
		t.Fatalf("expected stale replica to be discarded, got %+v", state)
	}
	if _, ok, _ := store.Get(context.Background(), "tab:active"); ok {
		t.Fatalf("expected stale replica to be deleted from store")
	}
	if m.Current() != nil {
		t.Fatalf("expected no active replica after stale discard")
	}
}

func TestLoadAdoptsFreshReplica(t *testing.T) {
	store := NewMemoryStore()
	opts := testOptions()
	opts.AdvanceInterval = time.Hour

	fresh := Snapshot{
		Order:   OrderState{OrderNo: "CB-FRESH", Stage: constants.StagePreparing},
		Origin:  "another-tab",
		SavedAt: time.Now(),
	}
	raw, _ := json.Marshal(fresh)
	if err := store.Set(context.Background(), "tab:active", raw); err != nil {
		t.Fatalf("seed store failed: %v", err)
	}

	m := NewManager(store, "tab", opts, nil)
	defer m.Close()

	state, err := m.Load(context.Background())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if state == nil || state.OrderNo != "CB-FRESH" || state.Stage != constants.StagePreparing {
		t.Fatalf("unexpected adopted state: %+v", state)
	}
}

func TestLoadDropsCorruptReplica(t *testing.T) {
	store := NewMemoryStore()
	if err := store.Set(context.Background(), "tab:active", []byte("{not json")); err != nil {
		t.Fatalf("seed store failed: %v", err)
	}
	m := NewManager(store, "tab", testOptions(), nil)
	defer m.Close()

	state, err := m.Load(context.Background())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if state != nil {
		t.Fatalf("expected corrupt replica to be dropped")
	}
	if _, ok, _ := store.Get(context.Background(), "tab:active"); ok {
		t.Fatalf("expected corrupt replica to be deleted from store")
	}
}

func TestTimerAdvanceMirrorsAndArchives(t *testing.T) {
	store := NewMemoryStore()

	var mu sync.Mutex
	var mirrored []int
	syncFn := func(orderNo string, stage int) error {
		mu.Lock()
		defer mu.Unlock()
		mirrored = append(mirrored, stage)
		return nil
	}

	m := NewManager(store, "tab", testOptions(), syncFn)
	defer m.Close()

	m.Activate(testOrder("CB-TIMER"))

	// 定时推进 1..4，送达后过宽限期归档
	waitFor(t, 2*time.Second, func() bool {
		return m.Current() == nil
	}, "replica should archive after delivery grace")

	mu.Lock()
	got := append([]int(nil), mirrored...)
	mu.Unlock()
	if len(got) != 4 {
		t.Fatalf("expected 4 mirrored stages, got %v", got)
	}
	for i, stage := range got {
		if stage != i+1 {
			t.Fatalf("expected monotonic mirror sequence, got %v", got)
		}
	}

	history := m.History()
	if len(history) != 1 {
		t.Fatalf("expected 1 archived order, got %d", len(history))
	}
	if history[0].OrderNo != "CB-TIMER" || history[0].Stage != constants.StageDelivered {
		t.Fatalf("unexpected archived order: %+v", history[0])
	}
	// 每个阶段都在轨迹里
	if len(history[0].History) != 5 {
		t.Fatalf("expected 5 history entries, got %d", len(history[0].History))
	}

	if _, ok, _ := store.Get(context.Background(), "tab:active"); ok {
		t.Fatalf("expected active key removed after archive")
	}
}

func TestArchiveHistoryIsBounded(t *testing.T) {
	store := NewMemoryStore()
	opts := testOptions()
	opts.AdvanceInterval = time.Hour // 只靠推送驱动
	opts.ArchiveGrace = 10 * time.Millisecond

	m := NewManager(store, "tab", opts, nil)
	defer m.Close()

	for _, orderNo := range []string{"CB-A", "CB-B", "CB-C"} {
		m.Activate(testOrder(orderNo))
		m.ApplyPush(orderNo, constants.StageDelivered, "Delivered")
		no := orderNo
		waitFor(t, time.Second, func() bool {
			history := m.History()
			return len(history) > 0 && history[0].OrderNo == no
		}, "order should be archived")
	}

	history := m.History()
	if len(history) != 2 {
		t.Fatalf("expected history capped at 2, got %d", len(history))
	}
	if history[0].OrderNo != "CB-C" || history[1].OrderNo != "CB-B" {
		t.Fatalf("expected most recent first, got %+v", history)
	}
}

func TestApplyPushIgnoresStaleStage(t *testing.T) {
	store := NewMemoryStore()
	opts := testOptions()
	opts.AdvanceInterval = time.Hour

	m := NewManager(store, "tab", opts, nil)
	defer m.Close()

	m.Activate(testOrder("CB-PUSH"))
	m.ApplyPush("CB-PUSH", constants.StageBaking, "Baking")

	state := m.Current()
	if state == nil || state.Stage != constants.StageBaking {
		t.Fatalf("expected baking, got %+v", state)
	}

	// 旧阶段的推送被忽略
	m.ApplyPush("CB-PUSH", constants.StagePreparing, "Preparing")
	state = m.Current()
	if state.Stage != constants.StageBaking {
		t.Fatalf("expected stale push ignored, got stage %d", state.Stage)
	}

	// 其他订单的推送被忽略
	m.ApplyPush("CB-OTHER", constants.StageDelivered, "Delivered")
	state = m.Current()
	if state == nil || state.OrderNo != "CB-PUSH" {
		t.Fatalf("expected push for other order ignored, got %+v", state)
	}
}

func TestCrossTabReplicasConverge(t *testing.T) {
	store := NewMemoryStore()
	opts := testOptions()
	opts.AdvanceInterval = time.Hour

	tab1 := NewManager(store, "session", opts, nil)
	defer tab1.Close()
	tab2 := NewManager(store, "session", opts, nil)
	defer tab2.Close()

	if tab1.OriginID() == tab2.OriginID() {
		t.Fatalf("expected distinct origin ids")
	}
	if err := tab1.Watch(); err != nil {
		t.Fatalf("tab1 watch failed: %v", err)
	}
	if err := tab2.Watch(); err != nil {
		t.Fatalf("tab2 watch failed: %v", err)
	}

	tab1.Activate(testOrder("CB-TABS"))

	// 另一个标签页整体替换收敛
	waitFor(t, time.Second, func() bool {
		state := tab2.Current()
		return state != nil && state.OrderNo == "CB-TABS"
	}, "tab2 should adopt tab1's replica")

	// 反方向推进同样收敛
	tab2.ApplyPush("CB-TABS", constants.StageOutForDelivery, "Out for Delivery")
	waitFor(t, time.Second, func() bool {
		state := tab1.Current()
		return state != nil && state.Stage == constants.StageOutForDelivery
	}, "tab1 should converge to pushed stage")

	// 自己的回声不会把本地状态打回去
	state := tab2.Current()
	if state == nil || state.Stage != constants.StageOutForDelivery {
		t.Fatalf("expected tab2 to keep its own write, got %+v", state)
	}
}
