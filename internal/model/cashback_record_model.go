package model

import (
	"time"
)

// CashbackRecordModel 退款记录模型
type CashbackRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CampaignId   int64  `json:"campaign_id" gorm:"not null;index"`
	VaultAddress string `json:"vault_address" gorm:"not null;index"`
	OwnerAddress string `json:"owner_address" gorm:"not null;index"`

	Amount string `json:"amount" gorm:"not null"` // 退还的 ether（wei）
	Reason string `json:"reason" gorm:"type:text"`

	RefundedAt time.Time `json:"refunded_at" gorm:"not null"`
}

// CashbackReason 退款触发原因
type CashbackReason string

const (
	CashbackReasonFundingFailed  CashbackReason = "funding_failed"   // 筹款失败
	CashbackReasonMeetingMissing CashbackReason = "meeting_missing"  // 未按期设置会议时间
	CashbackReasonVoteNo         CashbackReason = "vote_no"          // 投资人与汇总结果均为反对
)

// TableName 自定义表名
func (CashbackRecordModel) TableName() string {
	return "cashback_record"
}
