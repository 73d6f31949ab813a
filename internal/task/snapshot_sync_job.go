package task

import (
	"time"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"

	"github.com/mickys/blockbitsdev-sub000/internal/app"
	"github.com/mickys/blockbitsdev-sub000/internal/bylaws"
	"github.com/mickys/blockbitsdev-sub000/internal/config"
	"github.com/mickys/blockbitsdev-sub000/internal/logger"
	"github.com/mickys/blockbitsdev-sub000/internal/logic"
	"github.com/mickys/blockbitsdev-sub000/internal/model"
)

// SnapshotSyncJob 引擎快照同步任务
// 引擎内存状态是唯一事实来源，这里把活动、阶段和金库镜像到数据库供查询
type SnapshotSyncJob struct {
	entity        *app.Entity
	config        *config.Config
	campaignLogic *logic.CampaignLogic
	vaultLogic    *logic.VaultLogic
}

// NewSnapshotSyncJob 创建引擎快照同步任务
func NewSnapshotSyncJob(db *gorm.DB, entity *app.Entity, cfg *config.Config) *SnapshotSyncJob {
	return &SnapshotSyncJob{
		entity:        entity,
		config:        cfg,
		campaignLogic: logic.NewCampaignLogic(db),
		vaultLogic:    logic.NewVaultLogic(db),
	}
}

// GetName 获取任务名称
func (j *SnapshotSyncJob) GetName() string {
	return "engine_snapshot_sync"
}

// GetSchedule 获取调度配置
func (j *SnapshotSyncJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *SnapshotSyncJob) Execute() {
	campaignId, err := j.syncCampaign()
	if err != nil {
		logger.Error("Failed to sync campaign snapshot: %v", err)
		return
	}

	if err := j.syncStages(campaignId); err != nil {
		logger.Error("Failed to sync stage snapshots: %v", err)
	}
	if err := j.syncVaults(campaignId); err != nil {
		logger.Error("Failed to sync vault snapshots: %v", err)
	}
}

// syncCampaign 同步活动快照，返回活动数据库ID
func (j *SnapshotSyncJob) syncCampaign() (int64, error) {
	f := j.entity.Funding()
	by := j.entity.Bylaws()

	m := &model.CampaignModel{
		Name:           j.config.Campaign.Name,
		EntityAddress:  j.entity.Address().Hex(),
		PlatformWallet: j.config.Campaign.PlatformWallet,
		AmountRaised:   f.AmountRaised().String(),
		GlobalSoftCap:  by.MustUint(bylaws.KeyGlobalSoftCap).String(),
		GlobalHardCap:  by.MustUint(bylaws.KeyGlobalHardCap).String(),
		State:          model.CampaignState(f.State().String()),
		CurrentStageId: f.CurrentStageID(),
		Locked:         f.Locked(),
		TokenName:      j.config.Campaign.Token.Name,
		TokenSymbol:    j.config.Campaign.Token.Symbol,
		TokenSupply:    j.entity.Ledger().TotalSupply().String(),
	}
	return j.campaignLogic.UpsertCampaign(m)
}

// syncStages 同步全部阶段快照
func (j *SnapshotSyncJob) syncStages(campaignId int64) error {
	f := j.entity.Funding()
	count := f.StageCount()

	stages := make([]model.FundingStageModel, 0, count)
	for id := uint8(1); id <= count; id++ {
		s, err := f.Stage(id)
		if err != nil {
			return err
		}
		stages = append(stages, model.FundingStageModel{
			CampaignId:            campaignId,
			StageId:               s.ID,
			Name:                  s.Name,
			StartTime:             s.StartTime,
			EndTime:               s.EndTime,
			AmountCapSoft:         s.AmountCapSoft.String(),
			AmountCapHard:         s.AmountCapHard.String(),
			MinimumEntry:          s.MinimumEntry.String(),
			AmountRaised:          s.AmountRaised.String(),
			Methods:               uint8(s.Methods),
			TokenSharePercentage:  s.TokenSharePercentage,
			UseParityFromPrevious: s.UseParityFromPrevious,
			State:                 s.State.String(),
		})
	}
	return j.campaignLogic.SyncStages(campaignId, stages)
}

// syncVaults 同步全部金库快照
func (j *SnapshotSyncJob) syncVaults(campaignId int64) error {
	fm := j.entity.FundingManager()
	num := fm.VaultNum()

	for id := uint64(1); id <= num; id++ {
		v, err := fm.VaultByID(id)
		if err != nil {
			return err
		}
		m := &model.VaultModel{
			CampaignId:      campaignId,
			VaultId:         int64(id),
			Address:         v.Address().Hex(),
			OwnerAddress:    v.Owner().Hex(),
			AmountDirect:    v.AmountDirect().String(),
			AmountMilestone: v.AmountMilestone().String(),
			EtherBalance:    v.EtherBalance().String(),
			LockedTokens:    v.LockedTokens().String(),
			Settled:         v.Settled(),
			Released:        v.Released(),
		}
		if err := j.vaultLogic.UpsertVault(m); err != nil {
			return err
		}
	}
	return nil
}
