package model

import (
	"time"
)

// SettlementRecordModel 结算记录模型
type SettlementRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CampaignId   int64  `json:"campaign_id" gorm:"not null;index"`
	VaultId      int64  `json:"vault_id" gorm:"not null"`
	VaultAddress string `json:"vault_address" gorm:"not null;index"`

	TokensMinted  string `json:"tokens_minted" gorm:"default:'0'"`  // 直接支付部分，铸给投资人
	TokensLocked  string `json:"tokens_locked" gorm:"default:'0'"`  // 里程碑部分，锁在金库
	EtherReleased string `json:"ether_released" gorm:"default:'0'"` // 划给平台钱包的 ether

	Status         string     `json:"status" gorm:"default:'pending'"` // pending, success, failed
	SettlementTime *time.Time `json:"settlement_time"`
	FailReason     string     `json:"fail_reason" gorm:"type:text"`
}

// SettlementStatus 结算状态
type SettlementStatus string

const (
	SettlementStatusPending SettlementStatus = "pending" // 待处理
	SettlementStatusSuccess SettlementStatus = "success" // 成功
	SettlementStatusFailed  SettlementStatus = "failed"  // 失败，留待重试
)

// TableName 自定义表名
func (SettlementRecordModel) TableName() string {
	return "settlement_record"
}
