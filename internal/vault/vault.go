package vault

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mickys/blockbitsdev-sub000/internal/clock"
	"github.com/mickys/blockbitsdev-sub000/internal/event"
	"github.com/mickys/blockbitsdev-sub000/internal/funding"
)

var (
	// ErrAlreadyInitialized 金库已初始化
	ErrAlreadyInitialized = errors.New("vault: already initialized")
	// ErrNotInitialized 金库未初始化
	ErrNotInitialized = errors.New("vault: not initialized")
	// ErrUnauthorizedCaller 调用方未授权
	ErrUnauthorizedCaller = errors.New("vault: unauthorized caller")
	// ErrZeroValue 金额为零
	ErrZeroValue = errors.New("vault: zero value")
	// ErrInvalidMethod 支付方式不合法
	ErrInvalidMethod = errors.New("vault: invalid payment method")
	// ErrNotEligible 不满足任何退款条件
	ErrNotEligible = errors.New("vault: not eligible for cashback")
)

// PurchaseRecord 支付记录
// 只追加、不删除，仅供审计和调试读取
type PurchaseRecord struct {
	UnixTime time.Time
	Method   funding.PaymentMethod
	Amount   *big.Int
	StageID  uint8
	Index    uint16
}

// FundingState 筹款实体状态来源（由 Funding 资产实现）
type FundingState interface {
	State() funding.EntityState
}

// TokenCalculator 代币份额计算（由 SCADA 实现）
type TokenCalculator interface {
	GetTokenAmountByEtherForFundingStage(stageID uint8, etherAmount *big.Int) (*big.Int, error)
}

// MilestonesSignal 里程碑协作方信号
// 核心只消费信号，不关心投票引擎内部
type MilestonesSignal interface {
	// MeetingTimeSet 当前里程碑是否已设置会议时间
	MeetingTimeSet() bool
	// MeetingCreationDeadlinePassed 设置会议时间的期限是否已过
	MeetingCreationDeadlinePassed() bool
	// InvestorVotedNo 投资人是否在当前里程碑释放提案上投了反对票
	InvestorVotedNo(investor common.Address) bool
	// VoteResultNo 提案汇总结果是否为反对
	VoteResultNo() bool
}

// TokenMover 代币划转（由代币账本实现）
type TokenMover interface {
	Move(from, to common.Address, amount *big.Int) error
	BalanceOf(addr common.Address) *big.Int
}

// LockedTokenPool 锁定代币池（由 FundingManager 实现）
type LockedTokenPool interface {
	ReleaseLockedTokens(amount *big.Int)
}

// Vault 投资人金库
// 每个出资地址一个，托管 ether、记录分阶段出资并承载退款逻辑
// 初始化后 owner/manager 不可变，只有余额字段会变化
type Vault struct {
	addr        common.Address
	vaultOwner  common.Address
	output      common.Address // 平台钱包
	managerAddr common.Address

	clk        clock.Clock
	events     event.Sink
	fundState  FundingState
	calc       TokenCalculator
	milestones MilestonesSignal
	tokens     TokenMover
	lockedPool LockedTokenPool

	initialized bool
	settled     bool // 结算扫描是否已处理过本金库（幂等标记）
	released    bool // 是否已退款

	amountDirect    *big.Int
	amountMilestone *big.Int
	etherBalance    *big.Int
	lockedTokens    *big.Int // 暂存在金库、待里程碑释放的代币

	stageAmounts    map[uint8]*big.Int
	purchaseRecords []PurchaseRecord
}

// New 创建未初始化的金库
func New(addr common.Address, clk clock.Clock, sink event.Sink) *Vault {
	if sink == nil {
		sink = event.NopSink{}
	}
	return &Vault{
		addr:            addr,
		clk:             clk,
		events:          sink,
		amountDirect:    big.NewInt(0),
		amountMilestone: big.NewInt(0),
		etherBalance:    big.NewInt(0),
		lockedTokens:    big.NewInt(0),
		stageAmounts:    make(map[uint8]*big.Int),
	}
}

// Initialize 一次性初始化归属关系，重复调用失败
func (v *Vault) Initialize(investor, platformWallet, managerAddr common.Address,
	fundState FundingState, calc TokenCalculator, milestones MilestonesSignal,
	tokens TokenMover, lockedPool LockedTokenPool) error {
	if v.initialized {
		return ErrAlreadyInitialized
	}
	v.vaultOwner = investor
	v.output = platformWallet
	v.managerAddr = managerAddr
	v.fundState = fundState
	v.calc = calc
	v.milestones = milestones
	v.tokens = tokens
	v.lockedPool = lockedPool
	v.initialized = true
	return nil
}

// Address 金库地址
func (v *Vault) Address() common.Address {
	return v.addr
}

// Owner 金库所有者（投资人）
func (v *Vault) Owner() common.Address {
	return v.vaultOwner
}

// AddPayment 记录支付，只能由 FundingManager 调用
// 纯记账：代币在结算/查询时经 SCADA 惰性计算，保证阶段兑换率按最终筹得金额取值
func (v *Vault) AddPayment(caller common.Address, method funding.PaymentMethod, value *big.Int, stageID uint8) error {
	if !v.initialized {
		return ErrNotInitialized
	}
	if caller != v.managerAddr {
		return ErrUnauthorizedCaller
	}
	if value == nil || value.Sign() == 0 {
		return ErrZeroValue
	}
	if !method.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidMethod, method)
	}

	record := PurchaseRecord{
		UnixTime: v.clk.Now(),
		Method:   method,
		Amount:   new(big.Int).Set(value),
		StageID:  stageID,
		Index:    uint16(len(v.purchaseRecords) + 1),
	}
	v.purchaseRecords = append(v.purchaseRecords, record)

	switch method {
	case funding.MethodDirect:
		v.amountDirect.Add(v.amountDirect, value)
	case funding.MethodMilestone:
		v.amountMilestone.Add(v.amountMilestone, value)
	}
	if amt, ok := v.stageAmounts[stageID]; ok {
		amt.Add(amt, value)
	} else {
		v.stageAmounts[stageID] = new(big.Int).Set(value)
	}
	v.etherBalance.Add(v.etherBalance, value)

	v.events.Publish(event.Event{
		Type:      event.TypePaymentReceived,
		Timestamp: record.UnixTime,
		Address:   v.addr,
		Method:    uint8(method),
		Amount:    new(big.Int).Set(value),
		Stage:     stageID,
		Index:     uint64(record.Index),
	})
	v.events.Publish(event.Event{
		Type:      event.TypeVaultReceivedPayment,
		Timestamp: record.UnixTime,
		Address:   v.addr,
		Method:    uint8(method),
		Amount:    new(big.Int).Set(value),
	})
	return nil
}

// GetBoughtTokens 金库应得代币总量
// 对每个有出资的阶段累加 出资额 * 阶段兑换率；退款后恒为 0
func (v *Vault) GetBoughtTokens() (*big.Int, error) {
	if v.released {
		return big.NewInt(0), nil
	}
	total := big.NewInt(0)
	for stageID, amount := range v.stageAmounts {
		tokens, err := v.calc.GetTokenAmountByEtherForFundingStage(stageID, amount)
		if err != nil {
			return nil, err
		}
		total.Add(total, tokens)
	}
	return total, nil
}

// CheckFundingStateFailed 退款条件一：筹款实体进入 FAILED
func (v *Vault) CheckFundingStateFailed() bool {
	return v.fundState.State() == funding.StateFailed
}

// CheckOwnerFailedToSetTimeOnMeeting 退款条件二：里程碑会议时间设置期限已过且未设置
func (v *Vault) CheckOwnerFailedToSetTimeOnMeeting() bool {
	if v.milestones == nil {
		return false
	}
	return v.milestones.MeetingCreationDeadlinePassed() && !v.milestones.MeetingTimeSet()
}

// CheckMilestoneStateInvestorVotedNoVotingEndedNo 退款条件三：投资人投了反对且汇总结果为反对
func (v *Vault) CheckMilestoneStateInvestorVotedNoVotingEndedNo() bool {
	if v.milestones == nil {
		return false
	}
	return v.milestones.InvestorVotedNo(v.vaultOwner) && v.milestones.VoteResultNo()
}

// CanCashBack 退款条件为加性或：任一条件成立即可退款
func (v *Vault) CanCashBack() bool {
	if v.released {
		return false
	}
	return v.CheckFundingStateFailed() ||
		v.CheckOwnerFailedToSetTimeOnMeeting() ||
		v.CheckMilestoneStateInvestorVotedNoVotingEndedNo()
}

// ReleaseFundsToInvestor 一次性全额退款，只有金库所有者可调用
// 已锁定的代币作为触发退款的代价转给平台钱包，同时从管理器锁定池中扣减；
// ether 余额与代币余额清零，无部分退款
func (v *Vault) ReleaseFundsToInvestor(caller common.Address) (*big.Int, error) {
	if !v.initialized {
		return nil, ErrNotInitialized
	}
	if caller != v.vaultOwner {
		return nil, ErrUnauthorizedCaller
	}
	if !v.CanCashBack() {
		return nil, ErrNotEligible
	}
	reason := v.cashbackReason()

	refund := new(big.Int).Set(v.etherBalance)

	if v.lockedTokens.Sign() > 0 {
		if err := v.tokens.Move(v.addr, v.output, v.lockedTokens); err != nil {
			return nil, fmt.Errorf("vault: token redirect failed: %w", err)
		}
		if v.lockedPool != nil {
			v.lockedPool.ReleaseLockedTokens(v.lockedTokens)
		}
		v.lockedTokens = big.NewInt(0)
	}

	v.etherBalance = big.NewInt(0)
	v.released = true

	v.events.Publish(event.Event{
		Type:      event.TypeVaultCashback,
		Timestamp: v.clk.Now(),
		Address:   v.addr,
		Amount:    new(big.Int).Set(refund),
		Detail:    reason,
	})
	return refund, nil
}

// cashbackReason 命中退款条件的原因，按条件检查顺序取第一个
func (v *Vault) cashbackReason() string {
	switch {
	case v.CheckFundingStateFailed():
		return "funding_failed"
	case v.CheckOwnerFailedToSetTimeOnMeeting():
		return "meeting_missing"
	case v.CheckMilestoneStateInvestorVotedNoVotingEndedNo():
		return "vote_no"
	}
	return ""
}

// Released 是否已退款
func (v *Vault) Released() bool {
	return v.released
}

// Settled 结算扫描是否已处理过本金库
func (v *Vault) Settled() bool {
	return v.settled
}

// MarkSettled 标记结算完成，只能由 FundingManager 调用
func (v *Vault) MarkSettled(caller common.Address) error {
	if caller != v.managerAddr {
		return ErrUnauthorizedCaller
	}
	v.settled = true
	return nil
}

// LockTokens 记录锁定在金库内待里程碑释放的代币，只能由 FundingManager 调用
func (v *Vault) LockTokens(caller common.Address, amount *big.Int) error {
	if caller != v.managerAddr {
		return ErrUnauthorizedCaller
	}
	v.lockedTokens.Add(v.lockedTokens, amount)
	return nil
}

// ReleaseDirectEther 结算时将直接支付部分的 ether 划出金库，只能由 FundingManager 调用
func (v *Vault) ReleaseDirectEther(caller common.Address) (*big.Int, error) {
	if caller != v.managerAddr {
		return nil, ErrUnauthorizedCaller
	}
	amount := new(big.Int).Set(v.amountDirect)
	if amount.Cmp(v.etherBalance) > 0 {
		amount.Set(v.etherBalance)
	}
	v.etherBalance.Sub(v.etherBalance, amount)
	return amount, nil
}

// AmountDirect 直接支付累计金额
func (v *Vault) AmountDirect() *big.Int {
	return new(big.Int).Set(v.amountDirect)
}

// AmountMilestone 里程碑支付累计金额
func (v *Vault) AmountMilestone() *big.Int {
	return new(big.Int).Set(v.amountMilestone)
}

// EtherBalance 当前托管 ether 余额
func (v *Vault) EtherBalance() *big.Int {
	return new(big.Int).Set(v.etherBalance)
}

// LockedTokens 当前锁定代币数量
func (v *Vault) LockedTokens() *big.Int {
	return new(big.Int).Set(v.lockedTokens)
}

// StageAmount 指定阶段的出资金额
func (v *Vault) StageAmount(stageID uint8) *big.Int {
	if amt, ok := v.stageAmounts[stageID]; ok {
		return new(big.Int).Set(amt)
	}
	return big.NewInt(0)
}

// StageIDs 有出资记录的阶段编号
func (v *Vault) StageIDs() []uint8 {
	ids := make([]uint8, 0, len(v.stageAmounts))
	for id := range v.stageAmounts {
		ids = append(ids, id)
	}
	return ids
}

// PurchaseRecords 全部支付记录副本
func (v *Vault) PurchaseRecords() []PurchaseRecord {
	out := make([]PurchaseRecord, len(v.purchaseRecords))
	copy(out, v.purchaseRecords)
	return out
}
