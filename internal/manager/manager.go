package manager

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/mickys/blockbitsdev-sub000/internal/asset"
	"github.com/mickys/blockbitsdev-sub000/internal/clock"
	"github.com/mickys/blockbitsdev-sub000/internal/event"
	"github.com/mickys/blockbitsdev-sub000/internal/funding"
	"github.com/mickys/blockbitsdev-sub000/internal/vault"
)

var (
	// ErrUnauthorizedCaller 调用方未授权
	ErrUnauthorizedCaller = errors.New("manager: unauthorized caller")
	// ErrFundingNotFinalized 筹款尚未进入终态，不能结算
	ErrFundingNotFinalized = errors.New("manager: funding not finalized")
	// ErrVaultNotFound 地址从未出资，没有对应金库
	ErrVaultNotFound = errors.New("manager: vault not found")
)

// FundingReader 筹款资产只读视图
type FundingReader interface {
	State() funding.EntityState
}

// TokenLedger 代币账本操作
type TokenLedger interface {
	Mint(to common.Address, amount *big.Int) error
	Move(from, to common.Address, amount *big.Int) error
	BalanceOf(addr common.Address) *big.Int
}

// VaultFailure 单个金库结算失败的记录，留待外部重试
type VaultFailure struct {
	VaultID uint64
	Err     error
}

// FundingManager 资金管理器
// 每个出资地址惰性创建一个金库；筹款进入终态后以有界批次扫描金库完成结算
type FundingManager struct {
	asset.Ownership

	addr           common.Address
	clk            clock.Clock
	events         event.Sink
	fundingAddr    common.Address
	fundingState   FundingReader
	platformWallet common.Address

	calc       vault.TokenCalculator
	milestones vault.MilestonesSignal
	tokens     TokenLedger

	vaults       []*vault.Vault // 1 起编号，下标 = id-1
	vaultByOwner map[common.Address]*vault.Vault

	// 结算扫描游标，单调递增；批处理的续作点就是这份持久状态
	lastProcessedVaultID uint64

	lockedVotingTokens     *big.Int // 金库中待里程碑释放的代币总量，投票子系统作为抵押池读取
	totalDistributedTokens *big.Int

	failures []VaultFailure
}

// Config 管理器装配参数
type Config struct {
	Address        common.Address
	FundingAddress common.Address
	PlatformWallet common.Address
	Clock          clock.Clock
	Events         event.Sink
	FundingState   FundingReader
	Calculator     vault.TokenCalculator
	Milestones     vault.MilestonesSignal
	Tokens         TokenLedger
}

// New 创建资金管理器
func New(cfg Config) *FundingManager {
	sink := cfg.Events
	if sink == nil {
		sink = event.NopSink{}
	}
	return &FundingManager{
		addr:                   cfg.Address,
		clk:                    cfg.Clock,
		events:                 sink,
		fundingAddr:            cfg.FundingAddress,
		fundingState:           cfg.FundingState,
		platformWallet:         cfg.PlatformWallet,
		calc:                   cfg.Calculator,
		milestones:             cfg.Milestones,
		tokens:                 cfg.Tokens,
		vaultByOwner:           make(map[common.Address]*vault.Vault),
		lockedVotingTokens:     big.NewInt(0),
		totalDistributedTokens: big.NewInt(0),
	}
}

// Address 管理器地址
func (m *FundingManager) Address() common.Address {
	return m.addr
}

// ReceivePayment 接收来自 Funding 资产的支付
// 首次出资的地址惰性创建并初始化金库，随后转发给金库记账
func (m *FundingManager) ReceivePayment(caller common.Address, payer common.Address,
	method funding.PaymentMethod, value *big.Int, stageID uint8) error {
	if caller != m.fundingAddr {
		return ErrUnauthorizedCaller
	}

	v, ok := m.vaultByOwner[payer]
	if !ok {
		var err error
		v, err = m.createVault(payer)
		if err != nil {
			return err
		}
	}

	if err := v.AddPayment(m.addr, method, value, stageID); err != nil {
		return err
	}

	m.events.Publish(event.Event{
		Type:      event.TypeFundingManagerReceivedPayment,
		Timestamp: m.clk.Now(),
		Address:   v.Address(),
		Method:    uint8(method),
		Amount:    new(big.Int).Set(value),
	})
	return nil
}

// createVault 创建并初始化新金库，分配下一个顺序编号
func (m *FundingManager) createVault(payer common.Address) (*vault.Vault, error) {
	id := uint64(len(m.vaults) + 1)
	v := vault.New(m.deriveVaultAddress(payer, id), m.clk, m.events)
	if err := v.Initialize(payer, m.platformWallet, m.addr,
		m.fundingState, m.calc, m.milestones, m.tokens, m); err != nil {
		return nil, err
	}
	m.vaults = append(m.vaults, v)
	m.vaultByOwner[payer] = v
	return v, nil
}

// deriveVaultAddress 由管理器地址、出资人和编号派生金库地址
func (m *FundingManager) deriveVaultAddress(payer common.Address, id uint64) common.Address {
	var seq [8]byte
	binary.BigEndian.PutUint64(seq[:], id)
	hash := crypto.Keccak256(m.addr.Bytes(), payer.Bytes(), seq[:])
	return common.BytesToAddress(hash[12:])
}

// VaultNum 金库数量
func (m *FundingManager) VaultNum() uint64 {
	return uint64(len(m.vaults))
}

// VaultByID 按编号读取金库（1 起）
func (m *FundingManager) VaultByID(id uint64) (*vault.Vault, error) {
	if id == 0 || id > uint64(len(m.vaults)) {
		return nil, fmt.Errorf("%w: id %d", ErrVaultNotFound, id)
	}
	return m.vaults[id-1], nil
}

// GetMyVaultAddress 按出资人地址查金库
// 未出资的地址显式返回 ErrVaultNotFound，不使用零地址哨兵
func (m *FundingManager) GetMyVaultAddress(owner common.Address) (common.Address, error) {
	v, ok := m.vaultByOwner[owner]
	if !ok {
		return common.Address{}, fmt.Errorf("%w: owner %s", ErrVaultNotFound, owner.Hex())
	}
	return v.Address(), nil
}

// VaultOf 按出资人地址读取金库
func (m *FundingManager) VaultOf(owner common.Address) (*vault.Vault, error) {
	v, ok := m.vaultByOwner[owner]
	if !ok {
		return nil, fmt.Errorf("%w: owner %s", ErrVaultNotFound, owner.Hex())
	}
	return v, nil
}

// ProcessVaultList 有界批次结算扫描
// 前置条件：筹款实体处于终态。每次最多处理 maxCount 个金库，从游标之后开始，
// 处理后推进游标；调用方需反复调用直到 LastProcessedVaultID == VaultNum。
// 单个金库失败不会中止整批：失败被记录供重试，游标照常推进；
// 金库自带结算标记，重复扫描不会重复铸币或重复退款。
func (m *FundingManager) ProcessVaultList(maxCount uint64) (uint64, error) {
	if !m.fundingState.State().Terminal() {
		return 0, fmt.Errorf("%w: state %s", ErrFundingNotFinalized, m.fundingState.State())
	}
	total := uint64(len(m.vaults))
	if m.lastProcessedVaultID >= total || maxCount == 0 {
		return 0, nil
	}

	remaining := total - m.lastProcessedVaultID
	if maxCount < remaining {
		remaining = maxCount
	}

	var processed uint64
	for n := uint64(0); n < remaining; n++ {
		id := m.lastProcessedVaultID + 1
		v := m.vaults[id-1]
		if !v.Settled() {
			if err := m.settleVault(v); err != nil {
				m.failures = append(m.failures, VaultFailure{VaultID: id, Err: err})
			}
		}
		m.lastProcessedVaultID = id
		processed++

		m.events.Publish(event.Event{
			Type:      event.TypeFundingManagerProcessedVault,
			Timestamp: m.clk.Now(),
			Address:   v.Address(),
			Index:     m.lastProcessedVaultID,
		})
	}
	return processed, nil
}

// FundingEndedProcessVaultList 结算扫描别名入口
func (m *FundingManager) FundingEndedProcessVaultList(maxCount uint64) (uint64, error) {
	return m.ProcessVaultList(maxCount)
}

// settleVault 单个金库的结算
// 成功路径：直接支付部分的代币立即铸给投资人、对应 ether 划给平台钱包；
// 里程碑部分的代币铸进金库锁定，计入 LockedVotingTokens。
// 失败路径：不铸币，金库保留退款资格。两条路径都落下结算标记。
func (m *FundingManager) settleVault(v *vault.Vault) error {
	if m.fundingState.State() == funding.StateSuccessful {
		tokens, err := v.GetBoughtTokens()
		if err != nil {
			return fmt.Errorf("manager: token entitlement: %w", err)
		}
		if tokens.Sign() > 0 {
			lockedTokens := m.milestoneShare(tokens, v)
			directTokens := new(big.Int).Sub(tokens, lockedTokens)

			if directTokens.Sign() > 0 {
				if err := m.tokens.Mint(v.Owner(), directTokens); err != nil {
					return fmt.Errorf("manager: mint to investor: %w", err)
				}
			}
			if lockedTokens.Sign() > 0 {
				if err := m.tokens.Mint(v.Address(), lockedTokens); err != nil {
					return fmt.Errorf("manager: mint to vault: %w", err)
				}
				if err := v.LockTokens(m.addr, lockedTokens); err != nil {
					return err
				}
				m.lockedVotingTokens.Add(m.lockedVotingTokens, lockedTokens)
			}
			m.totalDistributedTokens.Add(m.totalDistributedTokens, tokens)
		}
		if _, err := v.ReleaseDirectEther(m.addr); err != nil {
			return err
		}
	}
	return v.MarkSettled(m.addr)
}

// milestoneShare 代币按里程碑出资占比折算锁定份额，截断向下
func (m *FundingManager) milestoneShare(tokens *big.Int, v *vault.Vault) *big.Int {
	direct := v.AmountDirect()
	milestone := v.AmountMilestone()
	total := new(big.Int).Add(direct, milestone)
	if total.Sign() == 0 || milestone.Sign() == 0 {
		return big.NewInt(0)
	}
	share := new(big.Int).Mul(tokens, milestone)
	return share.Div(share, total)
}

// ReleaseLockedTokens 金库退款或里程碑释放时扣减锁定代币池
func (m *FundingManager) ReleaseLockedTokens(amount *big.Int) {
	m.lockedVotingTokens.Sub(m.lockedVotingTokens, amount)
	if m.lockedVotingTokens.Sign() < 0 {
		m.lockedVotingTokens = big.NewInt(0)
	}
}

// LockedVotingTokens 锁定代币池当前总量
func (m *FundingManager) LockedVotingTokens() *big.Int {
	return new(big.Int).Set(m.lockedVotingTokens)
}

// TotalDistributedTokens 已分配代币总量
func (m *FundingManager) TotalDistributedTokens() *big.Int {
	return new(big.Int).Set(m.totalDistributedTokens)
}

// LastProcessedVaultID 结算扫描游标
func (m *FundingManager) LastProcessedVaultID() uint64 {
	return m.lastProcessedVaultID
}

// SettlementComplete 结算扫描是否已覆盖全部金库
func (m *FundingManager) SettlementComplete() bool {
	return m.lastProcessedVaultID >= uint64(len(m.vaults))
}

// Failures 结算失败记录副本
func (m *FundingManager) Failures() []VaultFailure {
	out := make([]VaultFailure, len(m.failures))
	copy(out, m.failures)
	return out
}
