package scada

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/mickys/blockbitsdev-sub000/internal/funding"
)

// precision 内部定点精度
// 兑换率先放大 precision 再做最后一次截断除法，避免小额出资相对大池产生归零
var precision = new(big.Int).Exp(big.NewInt(10), big.NewInt(20), nil)

// ErrStageNotFound 阶段不存在
var ErrStageNotFound = errors.New("scada: stage not found")

// StageSource 阶段数据来源（由 Funding 资产实现）
type StageSource interface {
	Stage(id uint8) (*funding.Stage, error)
	StageCount() uint8
	StageFinal(id uint8) bool
}

// TokenSupply 代币供应量来源（由代币账本实现）
type TokenSupply interface {
	TotalSupply() *big.Int
}

// MarketSCADA 市价型代币份额计算引擎
// 按阶段最终筹得金额折算兑换率；所有除法最后做且向零截断
type MarketSCADA struct {
	stages StageSource
	supply TokenSupply
}

// NewMarket 创建市价型 SCADA
func NewMarket(stages StageSource, supply TokenSupply) *MarketSCADA {
	return &MarketSCADA{stages: stages, supply: supply}
}

// TokensInStage 阶段代币池大小：总供应量 * 份额百分比 / 100
func (m *MarketSCADA) TokensInStage(stageID uint8) (*big.Int, error) {
	s, err := m.stages.Stage(stageID)
	if err != nil {
		return nil, fmt.Errorf("%w: %d", ErrStageNotFound, stageID)
	}
	pool := new(big.Int).Mul(m.supply.TotalSupply(), big.NewInt(int64(s.TokenSharePercentage)))
	return pool.Div(pool, big.NewInt(100)), nil
}

// GetTokenParity 阶段兑换率（每 wei 对应的代币量，已放大 precision）
// use_parity_from_previous 的阶段复用上一阶段的兑换率；设置了 start_parity 的
// 阶段按固定兑换率；其余按市价 池大小 / 筹得金额 计算
// 阶段未冻结（FINAL）之前筹得金额仍会变化，返回值只能当作临时估计
func (m *MarketSCADA) GetTokenParity(stageID uint8) (*big.Int, error) {
	s, err := m.stages.Stage(stageID)
	if err != nil {
		return nil, fmt.Errorf("%w: %d", ErrStageNotFound, stageID)
	}
	if s.UseParityFromPrevious {
		if stageID <= 1 {
			return big.NewInt(0), nil
		}
		return m.GetTokenParity(stageID - 1)
	}
	if s.StartParity.Sign() > 0 {
		return new(big.Int).Set(s.StartParity), nil
	}
	if s.AmountRaised.Sign() == 0 {
		return big.NewInt(0), nil
	}
	pool, err := m.TokensInStage(stageID)
	if err != nil {
		return nil, err
	}
	parity := new(big.Int).Mul(pool, precision)
	return parity.Div(parity, s.AmountRaised), nil
}

// GetTokenAmountByEtherForFundingStage 给定阶段和出资金额，计算代币数量
// 等价于 池大小 * 出资 / 阶段筹得金额，通过放大后的兑换率完成；
// 阶段零筹得显式返回 0，不做除零
func (m *MarketSCADA) GetTokenAmountByEtherForFundingStage(stageID uint8, etherAmount *big.Int) (*big.Int, error) {
	if etherAmount == nil || etherAmount.Sign() == 0 {
		return big.NewInt(0), nil
	}
	parity, err := m.GetTokenParity(stageID)
	if err != nil {
		return nil, err
	}
	if parity.Sign() == 0 {
		return big.NewInt(0), nil
	}
	amount := new(big.Int).Mul(etherAmount, parity)
	return amount.Div(amount, precision), nil
}

// GetUnsoldTokenAmount 已冻结阶段中分配到池但未售出的代币总量
// 含固定兑换率阶段的未达份额部分和截断尾差
func (m *MarketSCADA) GetUnsoldTokenAmount() (*big.Int, error) {
	unsold := big.NewInt(0)
	for id := uint8(1); id <= m.stages.StageCount(); id++ {
		if !m.stages.StageFinal(id) {
			continue
		}
		s, err := m.stages.Stage(id)
		if err != nil {
			return nil, err
		}
		pool, err := m.TokensInStage(id)
		if err != nil {
			return nil, err
		}
		sold, err := m.GetTokenAmountByEtherForFundingStage(id, s.AmountRaised)
		if err != nil {
			return nil, err
		}
		if sold.Cmp(pool) < 0 {
			unsold.Add(unsold, new(big.Int).Sub(pool, sold))
		}
	}
	return unsold, nil
}

// GetUnsoldTokenFraction 按持仓占比折算未售代币份额：unsold * myBalance / totalDistributed
func (m *MarketSCADA) GetUnsoldTokenFraction(unsold, myBalance, totalDistributed *big.Int) *big.Int {
	if totalDistributed == nil || totalDistributed.Sign() == 0 {
		return big.NewInt(0)
	}
	share := new(big.Int).Mul(unsold, myBalance)
	return share.Div(share, totalDistributed)
}

// Precision 内部定点精度常量
func Precision() *big.Int {
	return new(big.Int).Set(precision)
}
