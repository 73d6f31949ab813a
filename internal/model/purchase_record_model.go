package model

import (
	"time"
)

// PurchaseRecordModel 支付记录模型
// 只追加，供审计与对账
type PurchaseRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	VaultAddress string    `json:"vault_address" gorm:"not null;index"`
	Method       uint8     `json:"method" gorm:"not null"` // 1 直接 / 2 里程碑
	Amount       string    `json:"amount" gorm:"not null"` // wei
	StageId      uint8     `json:"stage_id" gorm:"not null"`
	RecordIndex  uint16    `json:"record_index" gorm:"not null"` // 金库内序号
	PaidAt       time.Time `json:"paid_at" gorm:"not null"`
}

// TableName 自定义表名
func (PurchaseRecordModel) TableName() string {
	return "purchase_record"
}
