package domain

import "time"

// BinType 垃圾桶类型（决定分流/回收归类）
type BinType string

const (
	BinTypeGeneralWaste   BinType = "GeneralWaste"
	BinTypeCommingled     BinType = "Commingled"
	BinTypeOrganics       BinType = "Organics"
	BinTypePaperCardboard BinType = "PaperCardboard"
)

// Diverted 是否计入分流（非填埋）重量
func (t BinType) Diverted() bool {
	return t != BinTypeGeneralWaste
}

// Recyclable 是否计入回收重量
func (t BinType) Recyclable() bool {
	return t == BinTypeCommingled || t == BinTypePaperCardboard
}

// Valid 校验枚举值
func (t BinType) Valid() bool {
	switch t {
	case BinTypeGeneralWaste, BinTypeCommingled, BinTypeOrganics, BinTypePaperCardboard:
		return true
	}
	return false
}

// Bin 垃圾桶领域模型（对应 bins 表）
// tare_weight 是最近一次清洁时的秤基线，不变式：>= 0
// 最近净重（currentWeight）是缓存值，存放于 Redis，不落库
type Bin struct {
	BinID          string    `db:"bin_id"`          // UUID
	BranchID       string    `db:"branch_id"`       // UUID, NOT NULL（独占归属）
	CompanyID      string    `db:"company_id"`      // UUID, NOT NULL
	BinType        BinType   `db:"bin_type"`        // VARCHAR(20)
	CapacityLiters float64   `db:"capacity_liters"` // 容量（升）
	TareWeight     float64   `db:"tare_weight"`     // 秤基线（kg）
	CreatedAt      time.Time `db:"created_at"`      // TIMESTAMPTZ
}
