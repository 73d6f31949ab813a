package app

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/mickys/blockbitsdev-sub000/internal/bylaws"
	"github.com/mickys/blockbitsdev-sub000/internal/clock"
	"github.com/mickys/blockbitsdev-sub000/internal/event"
	"github.com/mickys/blockbitsdev-sub000/internal/funding"
	"github.com/mickys/blockbitsdev-sub000/internal/manager"
	"github.com/mickys/blockbitsdev-sub000/internal/scada"
	"github.com/mickys/blockbitsdev-sub000/internal/token"
	"github.com/mickys/blockbitsdev-sub000/internal/vault"
)

// Params 实体装配参数
type Params struct {
	Address        common.Address
	PlatformWallet common.Address

	TokenName     string
	TokenSymbol   string
	TokenDecimals uint8
	TokenSupply   *big.Int

	Clock  clock.Clock
	Bylaws *bylaws.Store
	Events event.Sink

	Milestones *Milestones
}

// Entity 应用实体
// 持有全部资产并在每个 tick 驱动状态机；所有变更入口在这里串行化，
// 对应链上交易串行执行的单写者模型
type Entity struct {
	mu sync.Mutex

	addr           common.Address
	platformWallet common.Address
	clk            clock.Clock
	bylaws         *bylaws.Store
	events         event.Sink

	funding        *funding.Funding
	fundingManager *manager.FundingManager
	calc           *scada.MarketSCADA
	ledger         *token.Ledger
	milestones     *Milestones

	directInput    *funding.Input
	milestoneInput *funding.Input
}

// NewEntity 装配应用实体和全部资产
func NewEntity(p Params) (*Entity, error) {
	sink := p.Events
	if sink == nil {
		sink = event.NopSink{}
	}

	e := &Entity{
		addr:           p.Address,
		platformWallet: p.PlatformWallet,
		clk:            p.Clock,
		bylaws:         p.Bylaws,
		events:         sink,
		milestones:     p.Milestones,
	}

	e.ledger = token.NewLedger(p.TokenName, p.TokenSymbol, p.TokenDecimals, p.TokenSupply)

	fundingAddr := deriveAssetAddress(p.Address, "Funding")
	managerAddr := deriveAssetAddress(p.Address, "FundingManager")

	e.funding = funding.New(fundingAddr, p.Clock, p.Bylaws, sink)
	if err := e.funding.SetInitialOwner("Funding", p.Address); err != nil {
		return nil, err
	}

	e.calc = scada.NewMarket(e.funding, e.ledger)

	e.fundingManager = manager.New(manager.Config{
		Address:        managerAddr,
		FundingAddress: fundingAddr,
		PlatformWallet: p.PlatformWallet,
		Clock:          p.Clock,
		Events:         sink,
		FundingState:   e.funding,
		Calculator:     e.calc,
		Milestones:     p.Milestones,
		Tokens:         e.ledger,
	})
	if err := e.fundingManager.SetInitialOwner("FundingManager", p.Address); err != nil {
		return nil, err
	}

	if err := e.funding.SetPaymentReceiver(p.Address, e.fundingManager); err != nil {
		return nil, err
	}

	e.directInput = funding.NewDirectInput(deriveAssetAddress(p.Address, "FundingInputDirect"), e.funding)
	e.milestoneInput = funding.NewMilestoneInput(deriveAssetAddress(p.Address, "FundingInputMilestone"), e.funding)
	if err := e.funding.AuthorizeInput(p.Address, e.directInput.Address()); err != nil {
		return nil, err
	}
	if err := e.funding.AuthorizeInput(p.Address, e.milestoneInput.Address()); err != nil {
		return nil, err
	}

	return e, nil
}

// deriveAssetAddress 由实体地址和资产名派生确定性地址
func deriveAssetAddress(entity common.Address, name string) common.Address {
	hash := crypto.Keccak256(entity.Bytes(), []byte(name))
	return common.BytesToAddress(hash[12:])
}

// Address 实体地址
func (e *Entity) Address() common.Address {
	return e.addr
}

// AddFundingStage 添加筹款阶段
func (e *Entity) AddFundingStage(p funding.StageParams) (uint8, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.funding.AddFundingStage(e.addr, p)
}

// ApplyAndLockSettings 锁定阶段表与章程
func (e *Entity) ApplyAndLockSettings() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.funding.ApplyAndLockSettings(e.addr); err != nil {
		return err
	}
	e.bylaws.Lock()
	return nil
}

// PayDirect 经直接输入代理支付
func (e *Entity) PayDirect(payer common.Address, value *big.Int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.directInput.Pay(payer, value)
}

// PayMilestone 经里程碑输入代理支付
func (e *Entity) PayMilestone(payer common.Address, value *big.Int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.milestoneInput.Pay(payer, value)
}

// DoStateChanges 驱动筹款状态机
func (e *Entity) DoStateChanges(recurse bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.funding.DoStateChanges(e.addr, recurse)
}

// HasRequiredStateChanges 是否有待应用的状态迁移
func (e *Entity) HasRequiredStateChanges() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.funding.HasRequiredStateChanges()
}

// Tick 每周期编排：先推进状态机，终态后推进结算扫描
func (e *Entity) Tick(batchSize uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.funding.DoStateChanges(e.addr, true); err != nil {
		return err
	}
	if e.funding.State().Terminal() && !e.fundingManager.SettlementComplete() {
		if _, err := e.fundingManager.ProcessVaultList(batchSize); err != nil {
			return err
		}
	}
	return nil
}

// ProcessVaultList 推进一批结算，故意开放给任意调用者以防结算停摆
func (e *Entity) ProcessVaultList(maxCount uint64) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fundingManager.ProcessVaultList(maxCount)
}

// Cashback 投资人对自己的金库发起退款
func (e *Entity) Cashback(investor common.Address) (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, err := e.fundingManager.VaultOf(investor)
	if err != nil {
		return nil, err
	}
	return v.ReleaseFundsToInvestor(investor)
}

// Funding 筹款资产
func (e *Entity) Funding() *funding.Funding {
	return e.funding
}

// FundingManager 资金管理器
func (e *Entity) FundingManager() *manager.FundingManager {
	return e.fundingManager
}

// SCADA 代币份额计算引擎
func (e *Entity) SCADA() *scada.MarketSCADA {
	return e.calc
}

// Ledger 代币账本
func (e *Entity) Ledger() *token.Ledger {
	return e.ledger
}

// Milestones 里程碑协作方
func (e *Entity) Milestones() *Milestones {
	return e.milestones
}

// Bylaws 章程存储
func (e *Entity) Bylaws() *bylaws.Store {
	return e.bylaws
}

// DirectInputAddress 直接输入代理地址
func (e *Entity) DirectInputAddress() common.Address {
	return e.directInput.Address()
}

// MilestoneInputAddress 里程碑输入代理地址
func (e *Entity) MilestoneInputAddress() common.Address {
	return e.milestoneInput.Address()
}

// VaultOf 按投资人地址读取金库
func (e *Entity) VaultOf(investor common.Address) (*vault.Vault, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fundingManager.VaultOf(investor)
}
