package event

import (
	"github.com/mickys/blockbitsdev-sub000/internal/logger"
	"github.com/mickys/blockbitsdev-sub000/internal/logic"
	"github.com/mickys/blockbitsdev-sub000/internal/model"
)

// RecordProcessor 事件落库处理器
// 订阅全部事件类型，逐条写入事件表
type RecordProcessor struct {
	eventLogic *logic.EventLogic
}

// NewRecordProcessor 创建事件落库处理器
func NewRecordProcessor(eventLogic *logic.EventLogic) *RecordProcessor {
	return &RecordProcessor{
		eventLogic: eventLogic,
	}
}

// Name 处理器名称
func (p *RecordProcessor) Name() string {
	return "record"
}

// Handle 持久化单个事件
func (p *RecordProcessor) Handle(e Event) error {
	amount := "0"
	if e.Amount != nil {
		amount = e.Amount.String()
	}

	m := &model.EventModel{
		EventType:     string(e.Type),
		SignatureHash: e.Type.SignatureHash().Hex(),
		Address:       e.Address.Hex(),
		Method:        e.Method,
		Amount:        amount,
		RecordIndex:   int64(e.Index),
		Detail:        e.Detail,
		EmittedAt:     e.Timestamp,
	}
	if err := p.eventLogic.SaveEvent(m); err != nil {
		logger.Error("Failed to save event %s: %v", e.Type, err)
		return err
	}
	return nil
}

// AllTypes 全部事件类型，供落库处理器订阅
func AllTypes() []Type {
	return []Type{
		TypeFundingManagerReceivedPayment,
		TypeFundingManagerProcessedVault,
		TypePaymentReceived,
		TypeVaultReceivedPayment,
		TypeFundingStateChanged,
		TypeVaultCashback,
	}
}
