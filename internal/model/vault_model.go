package model

import (
	"time"
)

// VaultModel 投资人金库模型
type VaultModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CampaignId   int64  `json:"campaign_id" gorm:"not null;index"`
	VaultId      int64  `json:"vault_id" gorm:"not null"` // 引擎内 1 起编号
	Address      string `json:"address" gorm:"not null;uniqueIndex"`
	OwnerAddress string `json:"owner_address" gorm:"not null;index"`

	// 金额（wei，十进制字符串）
	AmountDirect    string `json:"amount_direct" gorm:"default:'0'"`
	AmountMilestone string `json:"amount_milestone" gorm:"default:'0'"`
	EtherBalance    string `json:"ether_balance" gorm:"default:'0'"`
	LockedTokens    string `json:"locked_tokens" gorm:"default:'0'"`

	Settled  bool `json:"settled" gorm:"default:false"`
	Released bool `json:"released" gorm:"default:false"`
}

// TableName 自定义表名
func (VaultModel) TableName() string {
	return "vault"
}
