package funding

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mickys/blockbitsdev-sub000/internal/asset"
	"github.com/mickys/blockbitsdev-sub000/internal/bylaws"
	"github.com/mickys/blockbitsdev-sub000/internal/clock"
	"github.com/mickys/blockbitsdev-sub000/internal/event"
)

var (
	fundingAddr   = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	ownerAddr     = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	directAddr    = common.HexToAddress("0x00000000000000000000000000000000000000d1")
	milestoneAddr = common.HexToAddress("0x00000000000000000000000000000000000000e1")
	payerAddr     = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	strangerAddr  = common.HexToAddress("0x00000000000000000000000000000000000000ff")

	baseTime = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
)

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

// receiverCall 转发到管理器的一次支付
type receiverCall struct {
	payer   common.Address
	method  PaymentMethod
	value   *big.Int
	stageID uint8
}

type captureReceiver struct {
	calls    []receiverCall
	failWith error
}

func (r *captureReceiver) ReceivePayment(caller, payer common.Address,
	method PaymentMethod, value *big.Int, stageID uint8) error {
	if r.failWith != nil {
		return r.failWith
	}
	r.calls = append(r.calls, receiverCall{payer, method, new(big.Int).Set(value), stageID})
	return nil
}

type captureSink struct {
	events []event.Event
}

func (s *captureSink) Publish(e event.Event) {
	s.events = append(s.events, e)
}

func testBylaws(t *testing.T) *bylaws.Store {
	t.Helper()
	store := bylaws.NewStore()
	require.NoError(t, store.SetUint(bylaws.KeyGlobalSoftCap, ether(50)))
	require.NoError(t, store.SetUint(bylaws.KeyGlobalHardCap, ether(100)))
	require.NoError(t, store.SetUint(bylaws.KeyCooldownPeriod, big.NewInt(3600)))
	return store
}

func stageOne() StageParams {
	return StageParams{
		Name:                 "pre-ico",
		StartTime:            baseTime.Add(1 * time.Hour),
		EndTime:              baseTime.Add(2 * time.Hour),
		Methods:              StageMethodsBoth,
		MinimumEntry:         ether(1),
		TokenSharePercentage: 10,
	}
}

func stageTwo() StageParams {
	return StageParams{
		Name:                 "ico",
		StartTime:            baseTime.Add(3 * time.Hour),
		EndTime:              baseTime.Add(4 * time.Hour),
		Methods:              StageMethodsBoth,
		MinimumEntry:         ether(1),
		TokenSharePercentage: 20,
	}
}

// newTestFunding 返回已配置两个阶段并锁定的筹款资产
func newTestFunding(t *testing.T, clk clock.Clock, sink event.Sink) (*Funding, *captureReceiver, *Input, *Input) {
	t.Helper()
	f := New(fundingAddr, clk, testBylaws(t), sink)
	require.NoError(t, f.SetInitialOwner("Funding", ownerAddr))

	receiver := &captureReceiver{}
	require.NoError(t, f.SetPaymentReceiver(ownerAddr, receiver))

	direct := NewDirectInput(directAddr, f)
	milestone := NewMilestoneInput(milestoneAddr, f)
	require.NoError(t, f.AuthorizeInput(ownerAddr, directAddr))
	require.NoError(t, f.AuthorizeInput(ownerAddr, milestoneAddr))

	_, err := f.AddFundingStage(ownerAddr, stageOne())
	require.NoError(t, err)
	_, err = f.AddFundingStage(ownerAddr, stageTwo())
	require.NoError(t, err)
	require.NoError(t, f.ApplyAndLockSettings(ownerAddr))
	return f, receiver, direct, milestone
}

func TestAddFundingStage_Validation(t *testing.T) {
	clk := clock.NewTestClock(baseTime)
	f := New(fundingAddr, clk, testBylaws(t), nil)
	require.NoError(t, f.SetInitialOwner("Funding", ownerAddr))

	// 非所有者
	_, err := f.AddFundingStage(strangerAddr, stageOne())
	assert.ErrorIs(t, err, asset.ErrUnauthorizedCaller)

	// 结束时间不晚于开始时间
	bad := stageOne()
	bad.EndTime = bad.StartTime
	_, err = f.AddFundingStage(ownerAddr, bad)
	assert.ErrorIs(t, err, ErrInvalidStage)

	_, err = f.AddFundingStage(ownerAddr, stageOne())
	require.NoError(t, err)

	// 冷却间隔不足：第二阶段最早 base+2h+1h
	tooEarly := stageTwo()
	tooEarly.StartTime = baseTime.Add(2*time.Hour + 30*time.Minute)
	tooEarly.EndTime = baseTime.Add(4 * time.Hour)
	_, err = f.AddFundingStage(ownerAddr, tooEarly)
	assert.ErrorIs(t, err, ErrInvalidOrdering)

	// 份额之和超过 100
	overflow := stageTwo()
	overflow.TokenSharePercentage = 91
	_, err = f.AddFundingStage(ownerAddr, overflow)
	assert.ErrorIs(t, err, ErrShareOverflow)

	_, err = f.AddFundingStage(ownerAddr, stageTwo())
	require.NoError(t, err)
	require.NoError(t, f.ApplyAndLockSettings(ownerAddr))

	// 锁定后不可追加
	late := stageTwo()
	late.StartTime = baseTime.Add(6 * time.Hour)
	late.EndTime = baseTime.Add(7 * time.Hour)
	_, err = f.AddFundingStage(ownerAddr, late)
	assert.ErrorIs(t, err, ErrAlreadyLocked)
}

func TestApplyAndLockSettings(t *testing.T) {
	clk := clock.NewTestClock(baseTime)
	f := New(fundingAddr, clk, testBylaws(t), nil)
	require.NoError(t, f.SetInitialOwner("Funding", ownerAddr))

	// 空阶段表
	err := f.ApplyAndLockSettings(ownerAddr)
	assert.ErrorIs(t, err, ErrInvalidStage)

	_, err = f.AddFundingStage(ownerAddr, stageOne())
	require.NoError(t, err)

	assert.ErrorIs(t, f.ApplyAndLockSettings(strangerAddr), asset.ErrUnauthorizedCaller)

	require.NoError(t, f.ApplyAndLockSettings(ownerAddr))
	assert.True(t, f.Locked())
	assert.Equal(t, uint8(1), f.CurrentStageID())

	assert.ErrorIs(t, f.ApplyAndLockSettings(ownerAddr), ErrAlreadyLocked)
}

func TestStateMachine_FullWalkToFailed(t *testing.T) {
	clk := clock.NewTestClock(baseTime)
	sink := &captureSink{}
	f, receiver, direct, _ := newTestFunding(t, clk, sink)

	assert.Equal(t, StateNew, f.State())

	// NEW -> WAITING（锁定后立即可行）
	require.NoError(t, f.DoStateChanges(ownerAddr, true))
	assert.Equal(t, StateWaiting, f.State())

	// 阶段未开始，无迁移
	assert.False(t, f.HasRequiredStateChanges())

	// WAITING -> IN_PROGRESS
	clk.Set(baseTime.Add(1 * time.Hour))
	require.NoError(t, f.DoStateChanges(ownerAddr, true))
	assert.Equal(t, StateInProgress, f.State())
	stage, err := f.Stage(1)
	require.NoError(t, err)
	assert.Equal(t, StageStateInProgress, stage.State)

	// 支付计入阶段与总额
	require.NoError(t, direct.Pay(payerAddr, ether(10)))
	assert.Equal(t, ether(10), f.AmountRaised())
	raised, err := f.StageRaisedAmount(1)
	require.NoError(t, err)
	assert.Equal(t, ether(10), raised)
	require.Len(t, receiver.calls, 1)
	assert.Equal(t, uint8(1), receiver.calls[0].stageID)

	// IN_PROGRESS -> COOLDOWN，阶段冻结
	clk.Set(baseTime.Add(2 * time.Hour))
	require.NoError(t, f.DoStateChanges(ownerAddr, true))
	assert.Equal(t, StateCooldown, f.State())
	assert.True(t, f.StageFinal(1))

	// 冷却期内拒绝支付
	err = direct.Pay(payerAddr, ether(5))
	assert.ErrorIs(t, err, ErrNotAcceptingPayments)

	// COOLDOWN -> IN_PROGRESS（第二阶段）
	clk.Set(baseTime.Add(3 * time.Hour))
	require.NoError(t, f.DoStateChanges(ownerAddr, true))
	assert.Equal(t, StateInProgress, f.State())
	assert.Equal(t, uint8(2), f.CurrentStageID())

	// 最后阶段到期：FUNDING_ENDED 判定软顶，10 < 50 -> FAILED
	clk.Set(baseTime.Add(4 * time.Hour))
	require.NoError(t, f.DoStateChanges(ownerAddr, true))
	assert.Equal(t, StateFailed, f.State())
	assert.True(t, f.State().Terminal())
	assert.True(t, f.StageFinal(2))

	// 状态事件完整记录每次迁移
	var transitions []string
	for _, e := range sink.events {
		if e.Type == event.TypeFundingStateChanged {
			transitions = append(transitions, e.Detail)
		}
	}
	assert.Equal(t, []string{
		"new->waiting",
		"waiting->in_progress",
		"in_progress->cooldown",
		"cooldown->in_progress",
		"in_progress->funding_ended",
		"funding_ended->failed",
	}, transitions)
}

func TestStateMachine_SoftCapSuccess(t *testing.T) {
	clk := clock.NewTestClock(baseTime)
	f, _, direct, _ := newTestFunding(t, clk, nil)

	clk.Set(baseTime.Add(1 * time.Hour))
	require.NoError(t, f.DoStateChanges(ownerAddr, true))
	require.NoError(t, direct.Pay(payerAddr, ether(50))) // 恰好软顶

	clk.Set(baseTime.Add(5 * time.Hour))
	require.NoError(t, f.DoStateChanges(ownerAddr, true))
	assert.Equal(t, StateSuccessful, f.State())
}

func TestStateMachine_HardCapShortCircuit(t *testing.T) {
	clk := clock.NewTestClock(baseTime)
	f, _, direct, _ := newTestFunding(t, clk, nil)

	clk.Set(baseTime.Add(1 * time.Hour))
	require.NoError(t, f.DoStateChanges(ownerAddr, true))
	require.NoError(t, direct.Pay(payerAddr, ether(100)))

	// 硬顶优先于剩余排期：时间还在第一阶段内
	next, ok := f.GetRequiredStateChanges()
	require.True(t, ok)
	assert.Equal(t, StateFundingEnded, next)

	require.NoError(t, f.DoStateChanges(ownerAddr, true))
	assert.Equal(t, StateSuccessful, f.State())
	// 第二阶段从未进入
	assert.Equal(t, uint8(1), f.CurrentStageID())
}

func TestStateMachine_NonRecursiveAppliesOne(t *testing.T) {
	clk := clock.NewTestClock(baseTime)
	f, _, _, _ := newTestFunding(t, clk, nil)

	require.NoError(t, f.DoStateChanges(ownerAddr, false))
	assert.Equal(t, StateWaiting, f.State())

	assert.ErrorIs(t, f.DoStateChanges(strangerAddr, true), asset.ErrUnauthorizedCaller)
}

func TestReceivePayment_Gating(t *testing.T) {
	clk := clock.NewTestClock(baseTime)
	f, receiver, direct, milestone := newTestFunding(t, clk, nil)

	// IN_PROGRESS 之前拒绝
	err := direct.Pay(payerAddr, ether(2))
	assert.ErrorIs(t, err, ErrNotAcceptingPayments)

	clk.Set(baseTime.Add(1 * time.Hour))
	require.NoError(t, f.DoStateChanges(ownerAddr, true))

	// 未授权的调用方
	err = f.ReceivePayment(strangerAddr, payerAddr, MethodDirect, ether(2))
	assert.ErrorIs(t, err, ErrUnauthorizedCaller)

	// 零值与低于最低入金
	err = direct.Pay(payerAddr, big.NewInt(0))
	assert.ErrorIs(t, err, ErrZeroValue)
	err = direct.Pay(payerAddr, big.NewInt(1))
	assert.ErrorIs(t, err, ErrBelowMinimumEntry)

	// 两种方式都接受
	require.NoError(t, direct.Pay(payerAddr, ether(2)))
	require.NoError(t, milestone.Pay(payerAddr, ether(3)))
	require.Len(t, receiver.calls, 2)
	assert.Equal(t, MethodDirect, receiver.calls[0].method)
	assert.Equal(t, MethodMilestone, receiver.calls[1].method)
}

func TestReceivePayment_MethodRestriction(t *testing.T) {
	clk := clock.NewTestClock(baseTime)
	f := New(fundingAddr, clk, testBylaws(t), nil)
	require.NoError(t, f.SetInitialOwner("Funding", ownerAddr))
	require.NoError(t, f.SetPaymentReceiver(ownerAddr, &captureReceiver{}))
	require.NoError(t, f.AuthorizeInput(ownerAddr, milestoneAddr))

	directOnly := stageOne()
	directOnly.Methods = StageMethodsDirect
	_, err := f.AddFundingStage(ownerAddr, directOnly)
	require.NoError(t, err)
	require.NoError(t, f.ApplyAndLockSettings(ownerAddr))

	clk.Set(baseTime.Add(1 * time.Hour))
	require.NoError(t, f.DoStateChanges(ownerAddr, true))

	milestone := NewMilestoneInput(milestoneAddr, f)
	err = milestone.Pay(payerAddr, ether(2))
	assert.ErrorIs(t, err, ErrNotAcceptingPayments)
}

func TestReceivePayment_ReceiverFailureLeavesNoState(t *testing.T) {
	clk := clock.NewTestClock(baseTime)
	f, receiver, direct, _ := newTestFunding(t, clk, nil)

	clk.Set(baseTime.Add(1 * time.Hour))
	require.NoError(t, f.DoStateChanges(ownerAddr, true))

	receiver.failWith = errors.New("vault rejected")
	err := direct.Pay(payerAddr, ether(5))
	require.Error(t, err)

	assert.Equal(t, int64(0), f.AmountRaised().Int64())
	raised, err := f.StageRaisedAmount(1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), raised.Int64())
}
