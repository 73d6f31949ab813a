package event

import (
	"github.com/mickys/blockbitsdev-sub000/internal/logger"
	"github.com/mickys/blockbitsdev-sub000/internal/logic"
	"github.com/mickys/blockbitsdev-sub000/internal/model"
)

// PurchaseProcessor 支付记录处理器
// 消费金库支付事件，追加审计用的支付记录
type PurchaseProcessor struct {
	vaultLogic *logic.VaultLogic
}

// NewPurchaseProcessor 创建支付记录处理器
func NewPurchaseProcessor(vaultLogic *logic.VaultLogic) *PurchaseProcessor {
	return &PurchaseProcessor{
		vaultLogic: vaultLogic,
	}
}

// Name 处理器名称
func (p *PurchaseProcessor) Name() string {
	return "purchase"
}

// Handle 处理支付事件
func (p *PurchaseProcessor) Handle(e Event) error {
	record := &model.PurchaseRecordModel{
		VaultAddress: e.Address.Hex(),
		Method:       e.Method,
		Amount:       e.Amount.String(),
		StageId:      e.Stage,
		RecordIndex:  uint16(e.Index),
		PaidAt:       e.Timestamp,
	}
	if err := p.vaultLogic.SavePurchaseRecord(record); err != nil {
		logger.Error("Failed to save purchase record for vault %s: %v", record.VaultAddress, err)
		return err
	}

	logger.Info("Processed payment: %s wei (method %d, stage %d) into vault %s",
		record.Amount, record.Method, record.StageId, record.VaultAddress)
	return nil
}
