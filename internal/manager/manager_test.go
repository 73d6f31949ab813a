package manager

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mickys/blockbitsdev-sub000/internal/clock"
	"github.com/mickys/blockbitsdev-sub000/internal/funding"
	"github.com/mickys/blockbitsdev-sub000/internal/token"
)

var (
	managerAddr  = common.HexToAddress("0x0000000000000000000000000000000000000011")
	fundingAddr  = common.HexToAddress("0x0000000000000000000000000000000000000022")
	platformAddr = common.HexToAddress("0x0000000000000000000000000000000000000033")
	ownerAddr    = common.HexToAddress("0x0000000000000000000000000000000000000044")
	investorA    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	investorB    = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	investorC    = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	strangerAddr = common.HexToAddress("0x00000000000000000000000000000000000000ff")

	baseTime = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
)

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

type stubFundingState struct {
	state funding.EntityState
}

func (s *stubFundingState) State() funding.EntityState {
	return s.state
}

// stubCalculator 固定每 wei 兑 rate 代币
type stubCalculator struct {
	rate int64
}

func (c *stubCalculator) GetTokenAmountByEtherForFundingStage(stageID uint8, etherAmount *big.Int) (*big.Int, error) {
	return new(big.Int).Mul(etherAmount, big.NewInt(c.rate)), nil
}

type managerFixture struct {
	manager   *FundingManager
	fundState *stubFundingState
	ledger    *token.Ledger
}

func newManagerFixture(t *testing.T) *managerFixture {
	t.Helper()
	fx := &managerFixture{
		fundState: &stubFundingState{state: funding.StateInProgress},
		ledger:    token.NewLedger("BlockBits", "BBX", 18, ether(1000000)),
	}
	fx.manager = New(Config{
		Address:        managerAddr,
		FundingAddress: fundingAddr,
		PlatformWallet: platformAddr,
		Clock:          clock.NewTestClock(baseTime),
		FundingState:   fx.fundState,
		Calculator:     &stubCalculator{rate: 2},
		Milestones:     nil,
		Tokens:         fx.ledger,
	})
	require.NoError(t, fx.manager.SetInitialOwner("FundingManager", ownerAddr))
	return fx
}

func (fx *managerFixture) pay(t *testing.T, payer common.Address, method funding.PaymentMethod, value *big.Int) {
	t.Helper()
	require.NoError(t, fx.manager.ReceivePayment(fundingAddr, payer, method, value, 1))
}

func TestReceivePayment_CreatesVaultLazily(t *testing.T) {
	fx := newManagerFixture(t)
	m := fx.manager

	assert.Equal(t, uint64(0), m.VaultNum())

	fx.pay(t, investorA, funding.MethodDirect, ether(5))
	assert.Equal(t, uint64(1), m.VaultNum())

	// 同一地址复用金库
	fx.pay(t, investorA, funding.MethodMilestone, ether(3))
	assert.Equal(t, uint64(1), m.VaultNum())

	fx.pay(t, investorB, funding.MethodDirect, ether(2))
	assert.Equal(t, uint64(2), m.VaultNum())

	v, err := m.VaultOf(investorA)
	require.NoError(t, err)
	assert.Equal(t, ether(5), v.AmountDirect())
	assert.Equal(t, ether(3), v.AmountMilestone())
}

func TestReceivePayment_OnlyFromFunding(t *testing.T) {
	fx := newManagerFixture(t)
	err := fx.manager.ReceivePayment(strangerAddr, investorA, funding.MethodDirect, ether(1), 1)
	assert.ErrorIs(t, err, ErrUnauthorizedCaller)
	assert.Equal(t, uint64(0), fx.manager.VaultNum())
}

func TestGetMyVaultAddress(t *testing.T) {
	fx := newManagerFixture(t)

	// 未出资地址显式报错，不返回零地址
	_, err := fx.manager.GetMyVaultAddress(investorA)
	assert.ErrorIs(t, err, ErrVaultNotFound)

	fx.pay(t, investorA, funding.MethodDirect, ether(1))
	addr, err := fx.manager.GetMyVaultAddress(investorA)
	require.NoError(t, err)
	assert.NotEqual(t, common.Address{}, addr)

	// 金库地址确定派生且互不相同
	fx.pay(t, investorB, funding.MethodDirect, ether(1))
	addrB, err := fx.manager.GetMyVaultAddress(investorB)
	require.NoError(t, err)
	assert.NotEqual(t, addr, addrB)
}

func TestProcessVaultList_RequiresTerminalState(t *testing.T) {
	fx := newManagerFixture(t)
	fx.pay(t, investorA, funding.MethodDirect, ether(1))

	_, err := fx.manager.ProcessVaultList(10)
	assert.ErrorIs(t, err, ErrFundingNotFinalized)
}

func TestProcessVaultList_SuccessfulSettlement(t *testing.T) {
	fx := newManagerFixture(t)
	m := fx.manager

	// A 纯直接支付，B 混合支付
	fx.pay(t, investorA, funding.MethodDirect, ether(10))
	fx.pay(t, investorB, funding.MethodDirect, ether(4))
	fx.pay(t, investorB, funding.MethodMilestone, ether(12))

	fx.fundState.state = funding.StateSuccessful

	processed, err := m.ProcessVaultList(10)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), processed)
	assert.True(t, m.SettlementComplete())
	assert.Empty(t, m.Failures())

	// A：20 代币全部直接铸给投资人
	assert.Equal(t, new(big.Int).Mul(ether(10), big.NewInt(2)), fx.ledger.BalanceOf(investorA))

	// B：32 代币按里程碑占比 12/16 锁定 24，直接部分 8
	vb, err := m.VaultOf(investorB)
	require.NoError(t, err)
	assert.Equal(t, new(big.Int).Mul(ether(4), big.NewInt(2)), fx.ledger.BalanceOf(investorB))
	assert.Equal(t, new(big.Int).Mul(ether(12), big.NewInt(2)), vb.LockedTokens())
	assert.Equal(t, new(big.Int).Mul(ether(12), big.NewInt(2)), fx.ledger.BalanceOf(vb.Address()))

	// 锁定池与分配总量
	assert.Equal(t, new(big.Int).Mul(ether(12), big.NewInt(2)), m.LockedVotingTokens())
	assert.Equal(t, new(big.Int).Mul(ether(26), big.NewInt(2)), m.TotalDistributedTokens())

	// 直接支付部分的 ether 已划出，金库只余里程碑部分
	va, err := m.VaultOf(investorA)
	require.NoError(t, err)
	assert.Equal(t, int64(0), va.EtherBalance().Int64())
	assert.Equal(t, ether(12), vb.EtherBalance())
	assert.True(t, va.Settled())
	assert.True(t, vb.Settled())
}

func TestProcessVaultList_FailedFundingMintsNothing(t *testing.T) {
	fx := newManagerFixture(t)
	m := fx.manager

	fx.pay(t, investorA, funding.MethodDirect, ether(10))
	fx.fundState.state = funding.StateFailed

	processed, err := m.ProcessVaultList(10)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), processed)

	// 不铸币，ether 保留在金库等待退款
	assert.Equal(t, int64(0), fx.ledger.Minted().Int64())
	v, err := m.VaultOf(investorA)
	require.NoError(t, err)
	assert.Equal(t, ether(10), v.EtherBalance())
	assert.True(t, v.Settled())
	assert.True(t, v.CanCashBack())
}

func TestProcessVaultList_BoundedBatches(t *testing.T) {
	fx := newManagerFixture(t)
	m := fx.manager

	fx.pay(t, investorA, funding.MethodDirect, ether(1))
	fx.pay(t, investorB, funding.MethodDirect, ether(2))
	fx.pay(t, investorC, funding.MethodDirect, ether(3))

	fx.fundState.state = funding.StateSuccessful

	processed, err := m.ProcessVaultList(2)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), processed)
	assert.Equal(t, uint64(2), m.LastProcessedVaultID())
	assert.False(t, m.SettlementComplete())

	// 游标续作，扫完剩余部分
	processed, err = m.ProcessVaultList(2)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), processed)
	assert.True(t, m.SettlementComplete())

	// 扫描完成后再次调用为空转
	processed, err = m.ProcessVaultList(2)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), processed)
}

func TestProcessVaultList_Idempotent(t *testing.T) {
	fx := newManagerFixture(t)
	m := fx.manager

	fx.pay(t, investorA, funding.MethodDirect, ether(10))
	fx.fundState.state = funding.StateSuccessful

	_, err := m.ProcessVaultList(10)
	require.NoError(t, err)
	mintedOnce := fx.ledger.Minted()

	// FundingEndedProcessVaultList 是同一入口的别名
	processed, err := m.FundingEndedProcessVaultList(10)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), processed)
	assert.Equal(t, mintedOnce, fx.ledger.Minted())
}

func TestReleaseLockedTokens_FloorsAtZero(t *testing.T) {
	fx := newManagerFixture(t)
	m := fx.manager

	fx.pay(t, investorA, funding.MethodMilestone, ether(5))
	fx.fundState.state = funding.StateSuccessful
	_, err := m.ProcessVaultList(10)
	require.NoError(t, err)

	locked := m.LockedVotingTokens()
	assert.Equal(t, new(big.Int).Mul(ether(5), big.NewInt(2)), locked)

	m.ReleaseLockedTokens(new(big.Int).Add(locked, ether(1)))
	assert.Equal(t, int64(0), m.LockedVotingTokens().Int64())
}
