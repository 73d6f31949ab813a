package funding

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Input 支付输入代理
// 薄转发层，唯一职责是给支付打上方式标签（1 直接 / 2 里程碑）
type Input struct {
	addr    common.Address
	method  PaymentMethod
	funding *Funding
}

// NewDirectInput 创建直接支付输入代理
func NewDirectInput(addr common.Address, f *Funding) *Input {
	return &Input{addr: addr, method: MethodDirect, funding: f}
}

// NewMilestoneInput 创建里程碑支付输入代理
func NewMilestoneInput(addr common.Address, f *Funding) *Input {
	return &Input{addr: addr, method: MethodMilestone, funding: f}
}

// Address 代理地址
func (i *Input) Address() common.Address {
	return i.addr
}

// Method 代理标记的支付方式
func (i *Input) Method() PaymentMethod {
	return i.method
}

// Pay 接收支付并转发给筹款资产
func (i *Input) Pay(payer common.Address, value *big.Int) error {
	return i.funding.ReceivePayment(i.addr, payer, i.method, value)
}

// secondsToDuration 秒转 Duration
func secondsToDuration(s int64) time.Duration {
	return time.Duration(s) * time.Second
}
