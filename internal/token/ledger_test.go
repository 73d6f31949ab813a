package token

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	holder   = common.HexToAddress("0x0000000000000000000000000000000000000001")
	receiver = common.HexToAddress("0x0000000000000000000000000000000000000002")
)

func TestLedger_MintWithinSupply(t *testing.T) {
	l := NewLedger("BlockBits", "BBX", 18, big.NewInt(1000))

	require.NoError(t, l.Mint(holder, big.NewInt(600)))
	assert.Equal(t, int64(600), l.BalanceOf(holder).Int64())
	assert.Equal(t, int64(600), l.Minted().Int64())
	assert.Equal(t, int64(1000), l.TotalSupply().Int64())
}

func TestLedger_MintExceedsSupply(t *testing.T) {
	l := NewLedger("BlockBits", "BBX", 18, big.NewInt(1000))

	require.NoError(t, l.Mint(holder, big.NewInt(900)))
	err := l.Mint(holder, big.NewInt(101))
	assert.ErrorIs(t, err, ErrSupplyExceeded)

	// 失败的铸造不改变账本
	assert.Equal(t, int64(900), l.Minted().Int64())
	assert.Equal(t, int64(900), l.BalanceOf(holder).Int64())
}

func TestLedger_Move(t *testing.T) {
	l := NewLedger("BlockBits", "BBX", 18, big.NewInt(1000))
	require.NoError(t, l.Mint(holder, big.NewInt(500)))

	require.NoError(t, l.Move(holder, receiver, big.NewInt(200)))
	assert.Equal(t, int64(300), l.BalanceOf(holder).Int64())
	assert.Equal(t, int64(200), l.BalanceOf(receiver).Int64())
}

func TestLedger_MoveInsufficientBalance(t *testing.T) {
	l := NewLedger("BlockBits", "BBX", 18, big.NewInt(1000))
	require.NoError(t, l.Mint(holder, big.NewInt(100)))

	err := l.Move(holder, receiver, big.NewInt(101))
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	err = l.Move(receiver, holder, big.NewInt(1))
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestLedger_ZeroAmountsAreNoops(t *testing.T) {
	l := NewLedger("BlockBits", "BBX", 18, big.NewInt(1000))

	assert.NoError(t, l.Mint(holder, big.NewInt(0)))
	assert.NoError(t, l.Mint(holder, nil))
	assert.NoError(t, l.Move(holder, receiver, big.NewInt(0)))
	assert.Equal(t, int64(0), l.Minted().Int64())
}
