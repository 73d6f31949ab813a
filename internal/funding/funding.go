package funding

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mickys/blockbitsdev-sub000/internal/asset"
	"github.com/mickys/blockbitsdev-sub000/internal/bylaws"
	"github.com/mickys/blockbitsdev-sub000/internal/clock"
	"github.com/mickys/blockbitsdev-sub000/internal/event"
)

// EntityState 筹款实体状态
type EntityState uint8

const (
	StateNew          EntityState = iota + 1 // 初始
	StateWaiting                             // 等待首个阶段开始
	StateInProgress                          // 阶段进行中
	StateCooldown                            // 阶段间冷却
	StateFundingEnded                        // 筹款期结束，待判定
	StateSuccessful                          // 成功（终态）
	StateFailed                              // 失败（终态）
)

// String 状态名称
func (s EntityState) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateWaiting:
		return "waiting"
	case StateInProgress:
		return "in_progress"
	case StateCooldown:
		return "cooldown"
	case StateFundingEnded:
		return "funding_ended"
	case StateSuccessful:
		return "successful"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal 是否为终态
func (s EntityState) Terminal() bool {
	return s == StateSuccessful || s == StateFailed
}

var (
	// ErrAlreadyLocked 阶段表已锁定
	ErrAlreadyLocked = errors.New("funding: settings already locked")
	// ErrNotLocked 阶段表尚未锁定
	ErrNotLocked = errors.New("funding: settings not locked")
	// ErrInvalidOrdering 阶段时间顺序不合法
	ErrInvalidOrdering = errors.New("funding: invalid stage ordering")
	// ErrInvalidStage 阶段参数不合法
	ErrInvalidStage = errors.New("funding: invalid stage")
	// ErrShareOverflow 代币份额之和超过 100
	ErrShareOverflow = errors.New("funding: token share percentage sum exceeds 100")
	// ErrNotAcceptingPayments 当前状态或阶段不接受支付
	ErrNotAcceptingPayments = errors.New("funding: not accepting payments")
	// ErrBelowMinimumEntry 金额低于阶段最低入金
	ErrBelowMinimumEntry = errors.New("funding: below minimum entry")
	// ErrUnauthorizedCaller 调用方未授权
	ErrUnauthorizedCaller = errors.New("funding: unauthorized caller")
	// ErrZeroValue 金额为零
	ErrZeroValue = errors.New("funding: zero value")
	// ErrStageNotFound 阶段不存在
	ErrStageNotFound = errors.New("funding: stage not found")
)

// PaymentReceiver 支付转发目标（由 FundingManager 实现）
type PaymentReceiver interface {
	ReceivePayment(caller common.Address, payer common.Address, method PaymentMethod, value *big.Int, stageID uint8) error
}

// Funding 筹款资产
// 持有阶段表和顶层状态机，支付只能经由两个输入代理进入
type Funding struct {
	asset.Ownership

	addr    common.Address
	clk     clock.Clock
	bylaws  *bylaws.Store
	events  event.Sink
	receive PaymentReceiver

	inputs map[common.Address]bool // 授权的输入代理地址

	stages  []*Stage
	current uint8 // 当前阶段（1 起），0 表示尚未进入任何阶段
	locked  bool

	state        EntityState
	amountRaised *big.Int
}

// New 创建筹款资产
func New(addr common.Address, clk clock.Clock, store *bylaws.Store, sink event.Sink) *Funding {
	if sink == nil {
		sink = event.NopSink{}
	}
	return &Funding{
		addr:         addr,
		clk:          clk,
		bylaws:       store,
		events:       sink,
		inputs:       make(map[common.Address]bool),
		state:        StateNew,
		amountRaised: big.NewInt(0),
	}
}

// Address 资产地址
func (f *Funding) Address() common.Address {
	return f.addr
}

// SetPaymentReceiver 绑定资金管理器，只有所有者可调用
func (f *Funding) SetPaymentReceiver(caller common.Address, r PaymentReceiver) error {
	if err := f.RequireOwner(caller); err != nil {
		return err
	}
	f.receive = r
	return nil
}

// AuthorizeInput 注册输入代理地址，只有所有者可调用
func (f *Funding) AuthorizeInput(caller common.Address, input common.Address) error {
	if err := f.RequireOwner(caller); err != nil {
		return err
	}
	f.inputs[input] = true
	return nil
}

// AddFundingStage 追加筹款阶段，返回 1 起的阶段编号
// 锁定后失败；新阶段开始时间必须晚于上一阶段结束时间至少一个冷却间隔
func (f *Funding) AddFundingStage(caller common.Address, p StageParams) (uint8, error) {
	if err := f.RequireOwner(caller); err != nil {
		return 0, err
	}
	if f.locked {
		return 0, ErrAlreadyLocked
	}
	if !p.EndTime.After(p.StartTime) {
		return 0, fmt.Errorf("%w: end time not after start time", ErrInvalidStage)
	}
	if p.TokenSharePercentage > 100 {
		return 0, fmt.Errorf("%w: token share above 100", ErrInvalidStage)
	}
	if sum := f.tokenShareSum() + uint16(p.TokenSharePercentage); sum > 100 {
		return 0, ErrShareOverflow
	}
	if n := len(f.stages); n > 0 {
		prev := f.stages[n-1]
		gap := f.bylaws.MustUint(bylaws.KeyCooldownPeriod).Int64()
		earliest := prev.EndTime.Add(secondsToDuration(gap))
		if p.StartTime.Before(earliest) {
			return 0, fmt.Errorf("%w: stage %d start %s before %s", ErrInvalidOrdering,
				n+1, p.StartTime.UTC(), earliest.UTC())
		}
	}
	id := uint8(len(f.stages) + 1)
	f.stages = append(f.stages, newStage(id, p))
	return id, nil
}

// ApplyAndLockSettings 校验阶段表不变量并锁定
// 锁定后实体具备 NEW → WAITING 迁移资格
func (f *Funding) ApplyAndLockSettings(caller common.Address) error {
	if err := f.RequireOwner(caller); err != nil {
		return err
	}
	if f.locked {
		return ErrAlreadyLocked
	}
	if len(f.stages) == 0 {
		return fmt.Errorf("%w: no stages configured", ErrInvalidStage)
	}
	if f.tokenShareSum() > 100 {
		return ErrShareOverflow
	}
	for i := 1; i < len(f.stages); i++ {
		if !f.stages[i].StartTime.After(f.stages[i-1].EndTime) {
			return fmt.Errorf("%w: stage %d overlaps stage %d", ErrInvalidOrdering, i+1, i)
		}
	}
	f.locked = true
	f.current = 1
	return nil
}

// Locked 阶段表是否已锁定
func (f *Funding) Locked() bool {
	return f.locked
}

// State 当前实体状态
func (f *Funding) State() EntityState {
	return f.state
}

// AmountRaised 累计已筹金额（wei）
func (f *Funding) AmountRaised() *big.Int {
	return new(big.Int).Set(f.amountRaised)
}

// CurrentStageID 当前阶段编号，0 表示尚未进入任何阶段
func (f *Funding) CurrentStageID() uint8 {
	return f.current
}

// StageCount 阶段数量
func (f *Funding) StageCount() uint8 {
	return uint8(len(f.stages))
}

// Stage 按编号读取阶段
func (f *Funding) Stage(id uint8) (*Stage, error) {
	if id == 0 || int(id) > len(f.stages) {
		return nil, fmt.Errorf("%w: %d", ErrStageNotFound, id)
	}
	return f.stages[id-1], nil
}

// StageRaisedAmount 阶段已筹金额
func (f *Funding) StageRaisedAmount(id uint8) (*big.Int, error) {
	s, err := f.Stage(id)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(s.AmountRaised), nil
}

// StageFinal 阶段是否已冻结
func (f *Funding) StageFinal(id uint8) bool {
	s, err := f.Stage(id)
	if err != nil {
		return false
	}
	return s.State == StageStateFinal
}

// ReceivePayment 接收支付，只能由输入代理调用
// 当前状态必须为 IN_PROGRESS 且当前阶段接受该支付方式；金额低于最低入金则整体失败
func (f *Funding) ReceivePayment(caller common.Address, payer common.Address, method PaymentMethod, value *big.Int) error {
	if !f.inputs[caller] {
		return ErrUnauthorizedCaller
	}
	if value == nil || value.Sign() <= 0 {
		return ErrZeroValue
	}
	if !method.Valid() {
		return fmt.Errorf("%w: method %d", ErrNotAcceptingPayments, method)
	}
	if f.state != StateInProgress {
		return fmt.Errorf("%w: state %s", ErrNotAcceptingPayments, f.state)
	}
	stage := f.stages[f.current-1]
	if !stage.Methods.Accepts(method) {
		return fmt.Errorf("%w: stage %d rejects method %d", ErrNotAcceptingPayments, stage.ID, method)
	}
	if value.Cmp(stage.MinimumEntry) < 0 {
		return fmt.Errorf("%w: %s < %s", ErrBelowMinimumEntry, value, stage.MinimumEntry)
	}
	// 先转发，管理器失败则不留下任何状态变更
	if f.receive == nil {
		return fmt.Errorf("%w: no payment receiver bound", ErrNotAcceptingPayments)
	}
	if err := f.receive.ReceivePayment(f.addr, payer, method, value, stage.ID); err != nil {
		return err
	}
	stage.AmountRaised.Add(stage.AmountRaised, value)
	f.amountRaised.Add(f.amountRaised, value)
	return nil
}

// GetRequiredStateChanges 计算下一个可应用的状态迁移
// 硬顶判定先于时间判定：达到硬顶总是优先于剩余排期
func (f *Funding) GetRequiredStateChanges() (EntityState, bool) {
	now := f.clk.Now()
	switch f.state {
	case StateNew:
		if f.locked {
			return StateWaiting, true
		}
	case StateWaiting:
		if !now.Before(f.stages[f.current-1].StartTime) {
			return StateInProgress, true
		}
	case StateInProgress:
		if f.hardCapReached() {
			return StateFundingEnded, true
		}
		if !now.Before(f.stages[f.current-1].EndTime) {
			if int(f.current) < len(f.stages) {
				return StateCooldown, true
			}
			return StateFundingEnded, true
		}
	case StateCooldown:
		if f.hardCapReached() {
			return StateFundingEnded, true
		}
		if !now.Before(f.stages[f.current].StartTime) {
			return StateInProgress, true
		}
	case StateFundingEnded:
		if f.softCapReached() {
			return StateSuccessful, true
		}
		return StateFailed, true
	}
	return f.state, false
}

// HasRequiredStateChanges 是否存在待应用的状态迁移
func (f *Funding) HasRequiredStateChanges() bool {
	_, ok := f.GetRequiredStateChanges()
	return ok
}

// DoStateChanges 应用状态迁移，只有所有者可调用
// recurse 为真时在一次调用内连续应用所有可用迁移；为假时最多应用一个
func (f *Funding) DoStateChanges(caller common.Address, recurse bool) error {
	if err := f.RequireOwner(caller); err != nil {
		return err
	}
	for {
		next, ok := f.GetRequiredStateChanges()
		if !ok {
			return nil
		}
		f.applyTransition(next)
		if !recurse {
			return nil
		}
	}
}

// applyTransition 应用单个迁移并维护阶段状态
func (f *Funding) applyTransition(next EntityState) {
	prev := f.state
	switch {
	case prev == StateWaiting && next == StateInProgress:
		f.stages[f.current-1].State = StageStateInProgress
	case prev == StateInProgress && next == StateCooldown:
		f.stages[f.current-1].State = StageStateFinal
	case prev == StateCooldown && next == StateInProgress:
		f.current++
		f.stages[f.current-1].State = StageStateInProgress
	case next == StateFundingEnded:
		// 时间到期或硬顶短路，冻结当前阶段；未开始的阶段保持 NEW，不再进入
		f.stages[f.current-1].State = StageStateFinal
	}
	f.state = next
	f.events.Publish(event.Event{
		Type:      event.TypeFundingStateChanged,
		Timestamp: f.clk.Now(),
		Address:   f.addr,
		Detail:    fmt.Sprintf("%s->%s", prev, next),
	})
}

// hardCapReached 是否达到全局硬顶
func (f *Funding) hardCapReached() bool {
	hardCap := f.bylaws.MustUint(bylaws.KeyGlobalHardCap)
	return hardCap.Sign() > 0 && f.amountRaised.Cmp(hardCap) >= 0
}

// softCapReached 是否达到全局软顶
func (f *Funding) softCapReached() bool {
	softCap := f.bylaws.MustUint(bylaws.KeyGlobalSoftCap)
	return f.amountRaised.Cmp(softCap) >= 0
}

// tokenShareSum 阶段代币份额之和
func (f *Funding) tokenShareSum() uint16 {
	var sum uint16
	for _, s := range f.stages {
		sum += uint16(s.TokenSharePercentage)
	}
	return sum
}
