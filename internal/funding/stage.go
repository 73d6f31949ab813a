package funding

import (
	"math/big"
	"time"
)

// PaymentMethod 支付方式
type PaymentMethod uint8

const (
	MethodDirect    PaymentMethod = 1 // 直接支付：筹款结束后立即结算
	MethodMilestone PaymentMethod = 2 // 里程碑支付：按里程碑逐步释放
)

// Valid 支付方式是否合法
func (m PaymentMethod) Valid() bool {
	return m == MethodDirect || m == MethodMilestone
}

// StageMethods 阶段接受的支付方式
type StageMethods uint8

const (
	StageMethodsDirect    StageMethods = 1 // 只接受直接支付
	StageMethodsMilestone StageMethods = 2 // 只接受里程碑支付
	StageMethodsBoth      StageMethods = 3 // 两种都接受
)

// Accepts 阶段是否接受指定支付方式
func (s StageMethods) Accepts(m PaymentMethod) bool {
	switch s {
	case StageMethodsBoth:
		return m.Valid()
	case StageMethodsDirect:
		return m == MethodDirect
	case StageMethodsMilestone:
		return m == MethodMilestone
	default:
		return false
	}
}

// StageState 阶段状态
type StageState uint8

const (
	StageStateNone       StageState = iota // 无效
	StageStateNew                          // 待开始
	StageStateInProgress                   // 进行中
	StageStateFinal                        // 已结束，金额冻结用于 SCADA 结算
)

// String 阶段状态名称
func (s StageState) String() string {
	switch s {
	case StageStateNew:
		return "new"
	case StageStateInProgress:
		return "in_progress"
	case StageStateFinal:
		return "final"
	default:
		return "none"
	}
}

// Stage 筹款阶段
// 锁定后不可变；阶段按时间升序 1 起编号存储
type Stage struct {
	ID          uint8
	Name        string
	Description string

	StartTime time.Time
	EndTime   time.Time

	AmountCapSoft *big.Int // 阶段软顶（wei），0 表示无
	AmountCapHard *big.Int // 阶段硬顶（wei），0 表示无

	Methods      StageMethods
	MinimumEntry *big.Int // 最低入金（wei）

	StartParity           *big.Int // 固定起始兑换率（use_parity_from_previous 为假且非市价时使用）
	UseParityFromPrevious bool     // 复用上一阶段的市价兑换率
	TokenSharePercentage  uint8    // 本阶段代币份额（百分比）

	State        StageState
	AmountRaised *big.Int // 本阶段已筹金额（wei）
}

// StageParams 添加阶段的入参
type StageParams struct {
	Name                  string
	Description           string
	StartTime             time.Time
	EndTime               time.Time
	AmountCapSoft         *big.Int
	AmountCapHard         *big.Int
	Methods               StageMethods
	MinimumEntry          *big.Int
	StartParity           *big.Int
	UseParityFromPrevious bool
	TokenSharePercentage  uint8
}

// newStage 由入参构造阶段
func newStage(id uint8, p StageParams) *Stage {
	s := &Stage{
		ID:                    id,
		Name:                  p.Name,
		Description:           p.Description,
		StartTime:             p.StartTime,
		EndTime:               p.EndTime,
		AmountCapSoft:         big.NewInt(0),
		AmountCapHard:         big.NewInt(0),
		Methods:               p.Methods,
		MinimumEntry:          big.NewInt(0),
		StartParity:           big.NewInt(0),
		UseParityFromPrevious: p.UseParityFromPrevious,
		TokenSharePercentage:  p.TokenSharePercentage,
		State:                 StageStateNew,
		AmountRaised:          big.NewInt(0),
	}
	if p.AmountCapSoft != nil {
		s.AmountCapSoft.Set(p.AmountCapSoft)
	}
	if p.AmountCapHard != nil {
		s.AmountCapHard.Set(p.AmountCapHard)
	}
	if p.MinimumEntry != nil {
		s.MinimumEntry.Set(p.MinimumEntry)
	}
	if p.StartParity != nil {
		s.StartParity.Set(p.StartParity)
	}
	return s
}
