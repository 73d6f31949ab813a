package model

import (
	"time"
)

// CampaignModel 筹款活动模型
// 引擎状态的数据库镜像，用于查询和审计；引擎内存状态是唯一事实来源
type CampaignModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 基本信息
	Name           string `json:"name" gorm:"not null"`
	EntityAddress  string `json:"entity_address" gorm:"not null;uniqueIndex"`
	PlatformWallet string `json:"platform_wallet" gorm:"not null"`

	// 筹款信息（wei，十进制字符串）
	AmountRaised  string `json:"amount_raised" gorm:"default:'0'"`
	GlobalSoftCap string `json:"global_soft_cap" gorm:"not null"`
	GlobalHardCap string `json:"global_hard_cap" gorm:"not null"`

	// 状态
	State          CampaignState `json:"state" gorm:"default:'new'"`
	CurrentStageId uint8         `json:"current_stage_id" gorm:"default:0"`
	Locked         bool          `json:"locked" gorm:"default:false"`

	// 代币信息
	TokenName   string `json:"token_name"`
	TokenSymbol string `json:"token_symbol"`
	TokenSupply string `json:"token_supply"`
}

// CampaignState 活动状态
type CampaignState string

const (
	CampaignStateNew          CampaignState = "new"           // 初始
	CampaignStateWaiting      CampaignState = "waiting"       // 等待开始
	CampaignStateInProgress   CampaignState = "in_progress"   // 进行中
	CampaignStateCooldown     CampaignState = "cooldown"      // 阶段间冷却
	CampaignStateFundingEnded CampaignState = "funding_ended" // 筹款期结束
	CampaignStateSuccessful   CampaignState = "successful"    // 成功
	CampaignStateFailed       CampaignState = "failed"        // 失败
)

// TableName 自定义表名
func (CampaignModel) TableName() string {
	return "campaign"
}
