package domain

import "time"

// EventType 事件类型
type EventType string

const (
	EventTypeDisposal EventType = "disposal"
	EventTypeCleaning EventType = "cleaning"
)

// Valid 校验枚举值
func (t EventType) Valid() bool {
	return t == EventTypeDisposal || t == EventTypeCleaning
}

// WasteEvent 垃圾称重事件（对应 waste_events 表）
// 仅追加，创建后不可变更、不可删除；是所有下游聚合的权威记录
// branch_id 在写入时从 Bin 冗余，避免聚合查询反查 bins
type WasteEvent struct {
	EventID   string    `db:"event_id"`   // UUID
	BinID     string    `db:"bin_id"`     // UUID, NOT NULL
	BranchID  string    `db:"branch_id"`  // UUID, NOT NULL（写入时冗余）
	NetWeight float64   `db:"net_weight"` // 净重（kg），不变式：>= 0
	EventType EventType `db:"event_type"` // 'disposal' | 'cleaning'
	IsCleaned bool      `db:"is_cleaned"` // cleaning 事件恒为 true
	CleanedBy string    `db:"cleaned_by"` // 清洁员 ID，cleaning 事件必填
	CreatedAt time.Time `db:"created_at"` // TIMESTAMPTZ
}
