package task

import (
	"math/big"
	"time"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"

	"github.com/mickys/blockbitsdev-sub000/internal/app"
	"github.com/mickys/blockbitsdev-sub000/internal/config"
	"github.com/mickys/blockbitsdev-sub000/internal/funding"
	"github.com/mickys/blockbitsdev-sub000/internal/logger"
	"github.com/mickys/blockbitsdev-sub000/internal/logic"
	"github.com/mickys/blockbitsdev-sub000/internal/model"
)

// SettlementJob 金库结算任务
// 筹款进入终态后按批推进结算扫描，每轮处理有限数量的金库，
// 单个金库失败不阻塞游标，失败记录落库留待排查
type SettlementJob struct {
	entity        *app.Entity
	config        *config.Config
	campaignLogic *logic.CampaignLogic
	vaultLogic    *logic.VaultLogic
}

// NewSettlementJob 创建金库结算任务
func NewSettlementJob(db *gorm.DB, entity *app.Entity, cfg *config.Config) *SettlementJob {
	return &SettlementJob{
		entity:        entity,
		config:        cfg,
		campaignLogic: logic.NewCampaignLogic(db),
		vaultLogic:    logic.NewVaultLogic(db),
	}
}

// GetName 获取任务名称
func (j *SettlementJob) GetName() string {
	return "vault_settlement"
}

// GetSchedule 获取调度配置
func (j *SettlementJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *SettlementJob) Execute() {
	f := j.entity.Funding()
	if !f.State().Terminal() {
		return
	}

	fm := j.entity.FundingManager()
	if fm.SettlementComplete() {
		return
	}

	prev := fm.LastProcessedVaultID()
	processed, err := j.entity.ProcessVaultList(j.config.Task.BatchSize)
	if err != nil {
		logger.Error("Failed to process vault list: %v", err)
		return
	}
	if processed == 0 {
		return
	}

	j.recordBatch(prev, fm.LastProcessedVaultID())

	logger.Info("Vault settlement batch completed: processed %d vaults, cursor at %d/%d",
		processed, fm.LastProcessedVaultID(), fm.VaultNum())
}

// recordBatch 为本轮扫描过的金库写结算记录
func (j *SettlementJob) recordBatch(from, to uint64) {
	campaignId := int64(0)
	if campaign, err := j.campaignLogic.GetCampaign(j.entity.Address().Hex()); err == nil {
		campaignId = campaign.Id
	}

	fm := j.entity.FundingManager()
	failed := make(map[uint64]string)
	for _, failure := range fm.Failures() {
		failed[failure.VaultID] = failure.Err.Error()
	}

	successful := j.entity.Funding().State() == funding.StateSuccessful
	now := time.Now()

	for id := from + 1; id <= to; id++ {
		v, err := fm.VaultByID(id)
		if err != nil {
			logger.Error("Failed to load vault %d for settlement record: %v", id, err)
			continue
		}

		record := &model.SettlementRecordModel{
			CampaignId:   campaignId,
			VaultId:      int64(id),
			VaultAddress: v.Address().Hex(),
			TokensLocked: v.LockedTokens().String(),
		}

		if reason, ok := failed[id]; ok {
			record.Status = string(model.SettlementStatusFailed)
			record.FailReason = reason
		} else {
			record.Status = string(model.SettlementStatusSuccess)
			record.SettlementTime = &now
			if successful {
				bought, err := v.GetBoughtTokens()
				if err == nil {
					minted := new(big.Int).Sub(bought, v.LockedTokens())
					record.TokensMinted = minted.String()
				}
				record.EtherReleased = v.AmountDirect().String()
			}
		}

		if err := j.vaultLogic.SaveSettlementRecord(record); err != nil {
			logger.Error("Failed to save settlement record for vault %d: %v", id, err)
		}
	}
}
