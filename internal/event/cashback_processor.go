package event

import (
	"github.com/mickys/blockbitsdev-sub000/internal/logger"
	"github.com/mickys/blockbitsdev-sub000/internal/logic"
	"github.com/mickys/blockbitsdev-sub000/internal/model"
)

// CashbackProcessor 退款记录处理器
// 消费金库退款事件，补齐所有者信息后落库
type CashbackProcessor struct {
	vaultLogic    *logic.VaultLogic
	campaignLogic *logic.CampaignLogic
	entityAddress string
}

// NewCashbackProcessor 创建退款记录处理器
func NewCashbackProcessor(vaultLogic *logic.VaultLogic, campaignLogic *logic.CampaignLogic, entityAddress string) *CashbackProcessor {
	return &CashbackProcessor{
		vaultLogic:    vaultLogic,
		campaignLogic: campaignLogic,
		entityAddress: entityAddress,
	}
}

// Name 处理器名称
func (p *CashbackProcessor) Name() string {
	return "cashback"
}

// Handle 处理退款事件
func (p *CashbackProcessor) Handle(e Event) error {
	vaultAddress := e.Address.Hex()

	campaignId := int64(0)
	if campaign, err := p.campaignLogic.GetCampaign(p.entityAddress); err == nil {
		campaignId = campaign.Id
	}

	ownerAddress := ""
	vault, err := p.vaultLogic.GetVaultByAddress(vaultAddress)
	if err != nil {
		// 快照可能还没同步到，记录仍然保存
		logger.Warn("Vault snapshot not found for cashback %s: %v", vaultAddress, err)
	} else {
		ownerAddress = vault.OwnerAddress
	}

	record := &model.CashbackRecordModel{
		CampaignId:   campaignId,
		VaultAddress: vaultAddress,
		OwnerAddress: ownerAddress,
		Amount:       e.Amount.String(),
		Reason:       e.Detail,
		RefundedAt:   e.Timestamp,
	}
	if err := p.vaultLogic.SaveCashbackRecord(record); err != nil {
		logger.Error("Failed to save cashback record for vault %s: %v", vaultAddress, err)
		return err
	}

	logger.Info("Processed cashback: %s wei to %s from vault %s",
		record.Amount, ownerAddress, vaultAddress)
	return nil
}
