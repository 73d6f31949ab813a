package scada

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mickys/blockbitsdev-sub000/internal/funding"
)

type stubStages struct {
	stages map[uint8]*funding.Stage
	final  map[uint8]bool
}

func (s *stubStages) Stage(id uint8) (*funding.Stage, error) {
	st, ok := s.stages[id]
	if !ok {
		return nil, fmt.Errorf("no stage %d", id)
	}
	return st, nil
}

func (s *stubStages) StageCount() uint8 {
	return uint8(len(s.stages))
}

func (s *stubStages) StageFinal(id uint8) bool {
	return s.final[id]
}

type stubSupply struct {
	supply *big.Int
}

func (s stubSupply) TotalSupply() *big.Int {
	return new(big.Int).Set(s.supply)
}

// ether n 个 ether 对应的 wei
func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

// tokens n 个代币对应的最小单位（18 位小数）
func tokens(n int64) *big.Int {
	return ether(n)
}

func newMarketScenario() (*MarketSCADA, *stubStages) {
	// 总供应 500 万代币，第一阶段占 10%，筹得 2 万 ether：
	// 每 ether 兑 25 代币
	stages := &stubStages{
		stages: map[uint8]*funding.Stage{
			1: {
				ID:                   1,
				TokenSharePercentage: 10,
				AmountRaised:         ether(20000),
				StartParity:          big.NewInt(0),
			},
		},
		final: map[uint8]bool{},
	}
	m := NewMarket(stages, stubSupply{supply: tokens(5000000)})
	return m, stages
}

func TestTokensInStage(t *testing.T) {
	m, _ := newMarketScenario()

	pool, err := m.TokensInStage(1)
	require.NoError(t, err)
	assert.Equal(t, tokens(500000), pool)
}

func TestGetTokenAmountByEther_MarketParity(t *testing.T) {
	m, _ := newMarketScenario()

	got, err := m.GetTokenAmountByEtherForFundingStage(1, ether(1))
	require.NoError(t, err)
	assert.Equal(t, tokens(25), got)

	got, err = m.GetTokenAmountByEtherForFundingStage(1, ether(40))
	require.NoError(t, err)
	assert.Equal(t, tokens(1000), got)
}

func TestGetTokenParity_ZeroRaised(t *testing.T) {
	m, stages := newMarketScenario()
	stages.stages[1].AmountRaised = big.NewInt(0)

	parity, err := m.GetTokenParity(1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), parity.Int64())

	got, err := m.GetTokenAmountByEtherForFundingStage(1, ether(1))
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Int64())
}

func TestGetTokenParity_FixedStartParity(t *testing.T) {
	m, stages := newMarketScenario()
	fixed := new(big.Int).Mul(tokens(10), Precision())
	fixed.Div(fixed, ether(1)) // 每 ether 兑 10 代币
	stages.stages[2] = &funding.Stage{
		ID:                   2,
		TokenSharePercentage: 20,
		AmountRaised:         ether(5),
		StartParity:          fixed,
	}

	parity, err := m.GetTokenParity(2)
	require.NoError(t, err)
	assert.Equal(t, fixed, parity)

	got, err := m.GetTokenAmountByEtherForFundingStage(2, ether(3))
	require.NoError(t, err)
	assert.Equal(t, tokens(30), got)
}

func TestGetTokenParity_FromPrevious(t *testing.T) {
	m, stages := newMarketScenario()
	stages.stages[2] = &funding.Stage{
		ID:                    2,
		TokenSharePercentage:  5,
		AmountRaised:          ether(123),
		StartParity:           big.NewInt(0),
		UseParityFromPrevious: true,
	}

	p1, err := m.GetTokenParity(1)
	require.NoError(t, err)
	p2, err := m.GetTokenParity(2)
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
}

func TestGetTokenParity_FromPreviousOnFirstStage(t *testing.T) {
	m, stages := newMarketScenario()
	stages.stages[1].UseParityFromPrevious = true

	parity, err := m.GetTokenParity(1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), parity.Int64())
}

func TestGetUnsoldTokenAmount(t *testing.T) {
	m, stages := newMarketScenario()

	// 市价阶段按定义整池售罄（只剩截断尾差），未冻结的阶段不参与
	unsold, err := m.GetUnsoldTokenAmount()
	require.NoError(t, err)
	assert.Equal(t, int64(0), unsold.Int64())

	stages.final[1] = true
	unsold, err = m.GetUnsoldTokenAmount()
	require.NoError(t, err)
	assert.Equal(t, int64(0), unsold.Int64())

	// 固定兑换率阶段：池 100 万，按 25 代币/ether 只售出 2500 代币
	fixed := new(big.Int).Mul(tokens(25), Precision())
	fixed.Div(fixed, ether(1))
	stages.stages[2] = &funding.Stage{
		ID:                   2,
		TokenSharePercentage: 20,
		AmountRaised:         ether(100),
		StartParity:          fixed,
	}
	stages.final[2] = true

	unsold, err = m.GetUnsoldTokenAmount()
	require.NoError(t, err)
	expected := new(big.Int).Sub(tokens(1000000), tokens(2500))
	assert.Equal(t, expected, unsold)
}

func TestGetUnsoldTokenFraction(t *testing.T) {
	m, _ := newMarketScenario()

	frac := m.GetUnsoldTokenFraction(tokens(900), tokens(10), tokens(100))
	assert.Equal(t, tokens(90), frac)

	assert.Equal(t, int64(0), m.GetUnsoldTokenFraction(tokens(900), tokens(10), big.NewInt(0)).Int64())
}
