package app

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mickys/blockbitsdev-sub000/internal/bylaws"
	"github.com/mickys/blockbitsdev-sub000/internal/clock"
	"github.com/mickys/blockbitsdev-sub000/internal/funding"
	"github.com/mickys/blockbitsdev-sub000/internal/manager"
	"github.com/mickys/blockbitsdev-sub000/internal/vault"
)

var (
	entityAddr   = common.HexToAddress("0x0000000000000000000000000000000000000e01")
	platformAddr = common.HexToAddress("0x0000000000000000000000000000000000000033")
	investorA    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	investorB    = common.HexToAddress("0x00000000000000000000000000000000000000b1")

	baseTime = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
)

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func tokens(n int64) *big.Int {
	return ether(n)
}

func testBylaws(t *testing.T) *bylaws.Store {
	t.Helper()
	store := bylaws.NewStore()
	require.NoError(t, store.SetUint(bylaws.KeyGlobalSoftCap, ether(50)))
	require.NoError(t, store.SetUint(bylaws.KeyGlobalHardCap, ether(100)))
	require.NoError(t, store.SetUint(bylaws.KeyCooldownPeriod, big.NewInt(3600)))
	return store
}

// newTestEntity 装配带单一市价阶段（份额 10%）的实体
func newTestEntity(t *testing.T) (*Entity, *clock.TestClock) {
	t.Helper()
	clk := clock.NewTestClock(baseTime)
	milestones := NewMilestones(clk, baseTime.AddDate(1, 0, 0))

	e, err := NewEntity(Params{
		Address:        entityAddr,
		PlatformWallet: platformAddr,
		TokenName:      "BlockBits",
		TokenSymbol:    "BBX",
		TokenDecimals:  18,
		TokenSupply:    tokens(5000000),
		Clock:          clk,
		Bylaws:         testBylaws(t),
		Milestones:     milestones,
	})
	require.NoError(t, err)

	_, err = e.AddFundingStage(funding.StageParams{
		Name:                 "ico",
		StartTime:            baseTime.Add(1 * time.Hour),
		EndTime:              baseTime.Add(2 * time.Hour),
		Methods:              funding.StageMethodsBoth,
		TokenSharePercentage: 10,
	})
	require.NoError(t, err)
	require.NoError(t, e.ApplyAndLockSettings())
	return e, clk
}

func TestEntity_AssetAddressesAreDistinct(t *testing.T) {
	e, _ := newTestEntity(t)

	addrs := map[common.Address]bool{
		e.Address():                  true,
		e.Funding().Address():        true,
		e.FundingManager().Address(): true,
		e.DirectInputAddress():       true,
		e.MilestoneInputAddress():    true,
	}
	assert.Len(t, addrs, 5)
}

func TestEntity_SuccessfulCampaignSettlement(t *testing.T) {
	e, clk := newTestEntity(t)

	require.NoError(t, e.DoStateChanges(true))
	assert.Equal(t, funding.StateWaiting, e.Funding().State())

	clk.Set(baseTime.Add(1 * time.Hour))
	require.NoError(t, e.DoStateChanges(true))

	// A 直接支付 30，B 里程碑支付 30：共 60 >= 软顶 50
	require.NoError(t, e.PayDirect(investorA, ether(30)))
	require.NoError(t, e.PayMilestone(investorB, ether(30)))
	assert.Equal(t, ether(60), e.Funding().AmountRaised())

	// 筹款期结束，Tick 一次性完成判定与结算
	clk.Set(baseTime.Add(2 * time.Hour))
	require.NoError(t, e.Tick(10))

	assert.Equal(t, funding.StateSuccessful, e.Funding().State())
	fm := e.FundingManager()
	assert.True(t, fm.SettlementComplete())

	// 池 50 万代币按 60 ether 的市价兑换率分配：各得一半
	assert.Equal(t, tokens(250000), e.Ledger().BalanceOf(investorA))

	vb, err := e.VaultOf(investorB)
	require.NoError(t, err)
	assert.Equal(t, tokens(250000), vb.LockedTokens())
	assert.Equal(t, tokens(250000), fm.LockedVotingTokens())
	assert.Equal(t, tokens(500000), fm.TotalDistributedTokens())

	// 直接支付的 ether 已划出金库
	va, err := e.VaultOf(investorA)
	require.NoError(t, err)
	assert.Equal(t, int64(0), va.EtherBalance().Int64())
	assert.Equal(t, ether(30), vb.EtherBalance())
}

func TestEntity_FailedCampaignCashback(t *testing.T) {
	e, clk := newTestEntity(t)

	require.NoError(t, e.DoStateChanges(true))
	clk.Set(baseTime.Add(1 * time.Hour))
	require.NoError(t, e.DoStateChanges(true))

	require.NoError(t, e.PayDirect(investorA, ether(10)))

	clk.Set(baseTime.Add(2 * time.Hour))
	require.NoError(t, e.Tick(10))

	assert.Equal(t, funding.StateFailed, e.Funding().State())
	assert.True(t, e.FundingManager().SettlementComplete())

	// 失败不铸币，投资人可全额退款
	assert.Equal(t, int64(0), e.Ledger().Minted().Int64())

	refund, err := e.Cashback(investorA)
	require.NoError(t, err)
	assert.Equal(t, ether(10), refund)

	_, err = e.Cashback(investorA)
	assert.ErrorIs(t, err, vault.ErrNotEligible)

	// 未出资地址没有金库
	_, err = e.Cashback(investorB)
	assert.ErrorIs(t, err, manager.ErrVaultNotFound)
}

func TestEntity_TickIsRepeatable(t *testing.T) {
	e, clk := newTestEntity(t)

	require.NoError(t, e.Tick(10))
	assert.Equal(t, funding.StateWaiting, e.Funding().State())

	clk.Set(baseTime.Add(1 * time.Hour))
	require.NoError(t, e.Tick(10))
	require.NoError(t, e.PayDirect(investorA, ether(60)))

	clk.Set(baseTime.Add(2 * time.Hour))
	require.NoError(t, e.Tick(1))
	require.NoError(t, e.Tick(1))

	assert.True(t, e.FundingManager().SettlementComplete())
	minted := e.Ledger().Minted()

	// 结算完成后的 Tick 是空转
	require.NoError(t, e.Tick(10))
	assert.Equal(t, minted, e.Ledger().Minted())
}

func TestGateway(t *testing.T) {
	e, _ := newTestEntity(t)
	g := NewGateway(common.HexToAddress("0x0000000000000000000000000000000000000901"))

	_, err := g.GetCurrentApplicationEntity()
	assert.ErrorIs(t, err, ErrNoEntity)

	require.NoError(t, g.RequestCodeUpgrade(e))

	got, err := g.GetCurrentApplicationEntity()
	require.NoError(t, err)
	assert.Same(t, e, got)

	addr, err := g.CurrentApplicationEntityAddress()
	require.NoError(t, err)
	assert.Equal(t, e.Address(), addr)

	assert.ErrorIs(t, g.RequestCodeUpgrade(e), ErrAlreadyLinked)
}

func TestMilestones(t *testing.T) {
	clk := clock.NewTestClock(baseTime)
	m := NewMilestones(clk, baseTime.Add(24*time.Hour))

	assert.False(t, m.MeetingTimeSet())
	assert.False(t, m.MeetingCreationDeadlinePassed())

	clk.Advance(24 * time.Hour)
	assert.True(t, m.MeetingCreationDeadlinePassed())

	m.SetMeetingTime(baseTime.Add(48 * time.Hour))
	assert.True(t, m.MeetingTimeSet())

	assert.False(t, m.InvestorVotedNo(investorA))
	m.RecordNoVote(investorA)
	assert.True(t, m.InvestorVotedNo(investorA))
	assert.False(t, m.InvestorVotedNo(investorB))

	assert.False(t, m.VoteResultNo())
	m.SetVoteResult(true)
	assert.True(t, m.VoteResultNo())
}
