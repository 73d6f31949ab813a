package event

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Type 事件类型
type Type string

const (
	// TypeFundingManagerReceivedPayment 资金管理器收到支付
	TypeFundingManagerReceivedPayment Type = "EventFundingManagerReceivedPayment"
	// TypeFundingManagerProcessedVault 资金管理器完成单个金库结算
	TypeFundingManagerProcessedVault Type = "EventFundingManagerProcessedVault"
	// TypePaymentReceived 金库追加一条支付记录
	TypePaymentReceived Type = "EventPaymentReceived"
	// TypeVaultReceivedPayment 金库收到支付
	TypeVaultReceivedPayment Type = "EventVaultReceivedPayment"
	// TypeFundingStateChanged 筹款实体状态迁移
	TypeFundingStateChanged Type = "EventFundingStateChanged"
	// TypeVaultCashback 金库退款完成
	TypeVaultCashback Type = "EventVaultCashback"
)

// signatures 事件签名（canonical 形式），哈希后供消费者按签名过滤
var signatures = map[Type]string{
	TypeFundingManagerReceivedPayment: "EventFundingManagerReceivedPayment(address,uint8,uint256)",
	TypeFundingManagerProcessedVault:  "EventFundingManagerProcessedVault(address,uint256)",
	TypePaymentReceived:               "EventPaymentReceived(uint8,uint256,uint16)",
	TypeVaultReceivedPayment:          "EventVaultReceivedPayment(address,uint8,uint256)",
	TypeFundingStateChanged:           "EventFundingStateChanged(uint8,uint8)",
	TypeVaultCashback:                 "EventVaultCashback(address,uint256)",
}

// SignatureHash 事件签名的 keccak256 哈希
// 状态变更调用不返回数据，事件签名哈希是消费方唯一的过滤手段
func (t Type) SignatureHash() common.Hash {
	return crypto.Keccak256Hash([]byte(signatures[t]))
}

// Event 引擎事件
type Event struct {
	Type      Type
	Timestamp time.Time

	// 载荷字段，按事件类型选用
	Address common.Address // 金库地址 / 相关地址
	Method  uint8          // 支付方式
	Amount  *big.Int       // 金额（wei 或代币最小单位）
	Stage   uint8          // 阶段编号
	Index   uint64         // 序号（支付记录序号 / 已处理金库计数）
	Detail  string         // 附加信息（状态迁移等）
}

// Sink 事件接收端
// 核心资产只依赖该接口，由服务层的事件总线实现
type Sink interface {
	Publish(e Event)
}

// NopSink 丢弃所有事件的接收端，测试和默认装配使用
type NopSink struct{}

// Publish 丢弃事件
func (NopSink) Publish(Event) {}
