package model

import (
	"time"
)

// FundingStageModel 筹款阶段模型
type FundingStageModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CampaignId int64  `json:"campaign_id" gorm:"not null;index"`
	StageId    uint8  `json:"stage_id" gorm:"not null"` // 引擎内 1 起编号
	Name       string `json:"name" gorm:"not null"`

	StartTime time.Time `json:"start_time" gorm:"not null"`
	EndTime   time.Time `json:"end_time" gorm:"not null"`

	AmountCapSoft string `json:"amount_cap_soft" gorm:"default:'0'"`
	AmountCapHard string `json:"amount_cap_hard" gorm:"default:'0'"`
	MinimumEntry  string `json:"minimum_entry" gorm:"default:'0'"`
	AmountRaised  string `json:"amount_raised" gorm:"default:'0'"`

	Methods               uint8 `json:"methods" gorm:"not null"` // 1 直接 / 2 里程碑 / 3 两者
	TokenSharePercentage  uint8 `json:"token_share_percentage" gorm:"not null"`
	UseParityFromPrevious bool  `json:"use_parity_from_previous" gorm:"default:false"`

	State string `json:"state" gorm:"default:'new'"` // new, in_progress, final
}

// TableName 自定义表名
func (FundingStageModel) TableName() string {
	return "funding_stage"
}
