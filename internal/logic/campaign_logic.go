package logic

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mickys/blockbitsdev-sub000/internal/model"
)

// CampaignLogic 活动业务逻辑
type CampaignLogic struct {
	db *gorm.DB
}

// NewCampaignLogic 创建活动业务逻辑
func NewCampaignLogic(db *gorm.DB) *CampaignLogic {
	return &CampaignLogic{db: db}
}

// UpsertCampaign 按实体地址写入或更新活动快照
func (l *CampaignLogic) UpsertCampaign(m *model.CampaignModel) (int64, error) {
	var existing model.CampaignModel
	err := l.db.Where("entity_address = ?", m.EntityAddress).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := l.db.Create(m).Error; err != nil {
			return 0, fmt.Errorf("创建活动失败: %w", err)
		}
		return m.Id, nil
	}
	if err != nil {
		return 0, fmt.Errorf("查询活动失败: %w", err)
	}

	updates := map[string]interface{}{
		"amount_raised":    m.AmountRaised,
		"state":            m.State,
		"current_stage_id": m.CurrentStageId,
		"locked":           m.Locked,
	}
	if err := l.db.Model(&existing).Updates(updates).Error; err != nil {
		return 0, fmt.Errorf("更新活动失败: %w", err)
	}
	return existing.Id, nil
}

// SyncStages 同步阶段快照
func (l *CampaignLogic) SyncStages(campaignId int64, stages []model.FundingStageModel) error {
	for i := range stages {
		stages[i].CampaignId = campaignId

		var existing model.FundingStageModel
		err := l.db.Where("campaign_id = ? AND stage_id = ?", campaignId, stages[i].StageId).
			First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := l.db.Create(&stages[i]).Error; err != nil {
				return fmt.Errorf("创建阶段失败: %w", err)
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("查询阶段失败: %w", err)
		}

		updates := map[string]interface{}{
			"amount_raised": stages[i].AmountRaised,
			"state":         stages[i].State,
		}
		if err := l.db.Model(&existing).Updates(updates).Error; err != nil {
			return fmt.Errorf("更新阶段失败: %w", err)
		}
	}
	return nil
}

// GetCampaign 按实体地址读取活动
func (l *CampaignLogic) GetCampaign(entityAddress string) (*model.CampaignModel, error) {
	var campaign model.CampaignModel
	if err := l.db.Where("entity_address = ?", entityAddress).First(&campaign).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("活动不存在")
		}
		return nil, fmt.Errorf("获取活动失败: %w", err)
	}
	return &campaign, nil
}

// GetStages 读取活动的全部阶段
func (l *CampaignLogic) GetStages(campaignId int64) ([]model.FundingStageModel, error) {
	var stages []model.FundingStageModel
	if err := l.db.Where("campaign_id = ?", campaignId).
		Order("stage_id asc").Find(&stages).Error; err != nil {
		return nil, fmt.Errorf("获取阶段列表失败: %w", err)
	}
	return stages, nil
}
