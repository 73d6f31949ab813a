package logic

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mickys/blockbitsdev-sub000/internal/model"
)

// VaultLogic 金库业务逻辑
type VaultLogic struct {
	db *gorm.DB
}

// NewVaultLogic 创建金库业务逻辑
func NewVaultLogic(db *gorm.DB) *VaultLogic {
	return &VaultLogic{db: db}
}

// UpsertVault 按金库地址写入或更新金库快照
func (l *VaultLogic) UpsertVault(m *model.VaultModel) error {
	var existing model.VaultModel
	err := l.db.Where("address = ?", m.Address).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := l.db.Create(m).Error; err != nil {
			return fmt.Errorf("创建金库失败: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("查询金库失败: %w", err)
	}

	updates := map[string]interface{}{
		"amount_direct":    m.AmountDirect,
		"amount_milestone": m.AmountMilestone,
		"ether_balance":    m.EtherBalance,
		"locked_tokens":    m.LockedTokens,
		"settled":          m.Settled,
		"released":         m.Released,
	}
	if err := l.db.Model(&existing).Updates(updates).Error; err != nil {
		return fmt.Errorf("更新金库失败: %w", err)
	}
	return nil
}

// GetVaultByAddress 按金库地址读取金库
func (l *VaultLogic) GetVaultByAddress(address string) (*model.VaultModel, error) {
	var vault model.VaultModel
	if err := l.db.Where("address = ?", address).First(&vault).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("金库不存在")
		}
		return nil, fmt.Errorf("获取金库失败: %w", err)
	}
	return &vault, nil
}

// GetVaultByOwner 按投资人地址读取金库
func (l *VaultLogic) GetVaultByOwner(owner string) (*model.VaultModel, error) {
	var vault model.VaultModel
	if err := l.db.Where("owner_address = ?", owner).First(&vault).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("金库不存在")
		}
		return nil, fmt.Errorf("获取金库失败: %w", err)
	}
	return &vault, nil
}

// GetVaults 分页读取金库列表
func (l *VaultLogic) GetVaults(page, pageSize int) ([]model.VaultModel, int64, error) {
	var vaults []model.VaultModel
	var total int64

	if err := l.db.Model(&model.VaultModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计金库数量失败: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := l.db.Order("vault_id asc").
		Offset(offset).Limit(pageSize).Find(&vaults).Error; err != nil {
		return nil, 0, fmt.Errorf("获取金库列表失败: %w", err)
	}
	return vaults, total, nil
}

// SavePurchaseRecord 保存支付记录
func (l *VaultLogic) SavePurchaseRecord(m *model.PurchaseRecordModel) error {
	if err := l.db.Create(m).Error; err != nil {
		return fmt.Errorf("保存支付记录失败: %w", err)
	}
	return nil
}

// GetPurchaseRecords 分页读取金库的支付记录
func (l *VaultLogic) GetPurchaseRecords(vaultAddress string, page, pageSize int) ([]model.PurchaseRecordModel, int64, error) {
	var records []model.PurchaseRecordModel
	var total int64

	query := l.db.Model(&model.PurchaseRecordModel{}).Where("vault_address = ?", vaultAddress)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计支付记录失败: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := query.Order("record_index asc").
		Offset(offset).Limit(pageSize).Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("获取支付记录失败: %w", err)
	}
	return records, total, nil
}

// SaveSettlementRecord 保存结算记录
func (l *VaultLogic) SaveSettlementRecord(m *model.SettlementRecordModel) error {
	if err := l.db.Create(m).Error; err != nil {
		return fmt.Errorf("保存结算记录失败: %w", err)
	}
	return nil
}

// SaveCashbackRecord 保存退款记录
func (l *VaultLogic) SaveCashbackRecord(m *model.CashbackRecordModel) error {
	if err := l.db.Create(m).Error; err != nil {
		return fmt.Errorf("保存退款记录失败: %w", err)
	}
	return nil
}

// GetCashbackRecords 分页读取退款记录
func (l *VaultLogic) GetCashbackRecords(page, pageSize int) ([]model.CashbackRecordModel, int64, error) {
	var records []model.CashbackRecordModel
	var total int64

	if err := l.db.Model(&model.CashbackRecordModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计退款记录失败: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := l.db.Order("id desc").
		Offset(offset).Limit(pageSize).Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("获取退款记录失败: %w", err)
	}
	return records, total, nil
}
