package token

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrSupplyExceeded 铸造超过固定供应量
	ErrSupplyExceeded = errors.New("token: mint exceeds fixed supply")
	// ErrInsufficientBalance 余额不足
	ErrInsufficientBalance = errors.New("token: insufficient balance")
)

// Ledger 代币账本
// 固定供应量下的最小铸造/划转账本，结算和退款惩罚使用
// 不提供 ERC20 转账界面
type Ledger struct {
	name     string
	symbol   string
	decimals uint8

	supply *big.Int // 固定总供应量（最小单位）
	minted *big.Int // 已铸造总量

	balances map[common.Address]*big.Int
}

// NewLedger 创建代币账本
func NewLedger(name, symbol string, decimals uint8, supply *big.Int) *Ledger {
	return &Ledger{
		name:     name,
		symbol:   symbol,
		decimals: decimals,
		supply:   new(big.Int).Set(supply),
		minted:   big.NewInt(0),
		balances: make(map[common.Address]*big.Int),
	}
}

// TotalSupply 固定总供应量
func (l *Ledger) TotalSupply() *big.Int {
	return new(big.Int).Set(l.supply)
}

// Minted 已铸造总量
func (l *Ledger) Minted() *big.Int {
	return new(big.Int).Set(l.minted)
}

// BalanceOf 地址余额
func (l *Ledger) BalanceOf(addr common.Address) *big.Int {
	if b, ok := l.balances[addr]; ok {
		return new(big.Int).Set(b)
	}
	return big.NewInt(0)
}

// Mint 铸造代币到指定地址，不允许超过固定供应量
func (l *Ledger) Mint(to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return nil
	}
	next := new(big.Int).Add(l.minted, amount)
	if next.Cmp(l.supply) > 0 {
		return ErrSupplyExceeded
	}
	l.minted = next
	l.credit(to, amount)
	return nil
}

// Move 在两个地址之间划转代币（退款时将锁定代币转给平台钱包）
func (l *Ledger) Move(from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return nil
	}
	b, ok := l.balances[from]
	if !ok || b.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	b.Sub(b, amount)
	l.credit(to, amount)
	return nil
}

// credit 增加地址余额
func (l *Ledger) credit(addr common.Address, amount *big.Int) {
	if b, ok := l.balances[addr]; ok {
		b.Add(b, amount)
		return
	}
	l.balances[addr] = new(big.Int).Set(amount)
}
