package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// JSON 类型定义，用于存储结构化快照（如配送地址）
type JSON map[string]interface{}

// Value 实现 driver.Valuer 接口
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan 实现 sql.Scanner 接口
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSON)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// StageEntry 状态历史条目
type StageEntry struct {
	Stage     int       `json:"stage"`     // 阶段
	Label     string    `json:"label"`     // 阶段文案
	Timestamp time.Time `json:"timestamp"` // 进入时间
}

// StageHistory 状态历史（只追加，末项为当前阶段）
type StageHistory []StageEntry

// Value 实现 driver.Valuer 接口
func (h StageHistory) Value() (driver.Value, error) {
	if h == nil {
		return json.Marshal(StageHistory{})
	}
	return json.Marshal(h)
}

// Scan 实现 sql.Scanner 接口
func (h *StageHistory) Scan(value interface{}) error {
	if value == nil {
		*h = StageHistory{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, h)
}

// Last 返回最后一条历史，空历史返回 nil
func (h StageHistory) Last() *StageEntry {
	if len(h) == 0 {
		return nil
	}
	return &h[len(h)-1]
}

// AddOn 订单项加料快照
type AddOn struct {
	Name  string `json:"name"`  // 加料名称
	Price Money  `json:"price"` // 单份价格（0 表示未标价）
}

// AddOnList 加料快照列表
type AddOnList []AddOn

// Value 实现 driver.Valuer 接口
func (a AddOnList) Value() (driver.Value, error) {
	if a == nil {
		return json.Marshal(AddOnList{})
	}
	return json.Marshal(a)
}

// Scan 实现 sql.Scanner 接口
func (a *AddOnList) Scan(value interface{}) error {
	if value == nil {
		*a = AddOnList{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, a)
}
