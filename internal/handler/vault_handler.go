package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mickys/blockbitsdev-sub000/internal/app"
	"github.com/mickys/blockbitsdev-sub000/internal/logic"
	"github.com/mickys/blockbitsdev-sub000/internal/manager"
	enginevault "github.com/mickys/blockbitsdev-sub000/internal/vault"
)

// VaultHandler 金库处理器
type VaultHandler struct {
	vaultLogic *logic.VaultLogic
	entity     *app.Entity
}

// NewVaultHandler 创建金库处理器
func NewVaultHandler(db *gorm.DB, entity *app.Entity) *VaultHandler {
	return &VaultHandler{
		vaultLogic: logic.NewVaultLogic(db),
		entity:     entity,
	}
}

// GetVaults 获取金库列表
func (h *VaultHandler) GetVaults(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	vaults, total, err := h.vaultLogic.GetVaults(page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	pagination := Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}

	SuccessResponse(c, http.StatusOK, "获取金库列表成功", GetVaultsResponse{
		Vaults:     ToVaultResponseList(vaults),
		Pagination: pagination,
	})
}

// GetVault 按投资人地址获取金库实时详情
func (h *VaultHandler) GetVault(c *gin.Context) {
	owner := c.Param("owner")
	if !common.IsHexAddress(owner) {
		ErrorResponse(c, http.StatusBadRequest, "无效的投资人地址")
		return
	}

	v, err := h.entity.VaultOf(common.HexToAddress(owner))
	if err != nil {
		if errors.Is(err, manager.ErrVaultNotFound) {
			ErrorResponse(c, http.StatusNotFound, "金库不存在")
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	bought, err := v.GetBoughtTokens()
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "获取金库成功", VaultDetailResponse{
		Address:         v.Address().Hex(),
		OwnerAddress:    v.Owner().Hex(),
		AmountDirect:    v.AmountDirect().String(),
		AmountMilestone: v.AmountMilestone().String(),
		EtherBalance:    v.EtherBalance().String(),
		LockedTokens:    v.LockedTokens().String(),
		BoughtTokens:    bought.String(),
		Settled:         v.Settled(),
		Released:        v.Released(),
		CanCashBack:     v.CanCashBack(),
	})
}

// GetPurchaseRecords 获取金库支付记录
func (h *VaultHandler) GetPurchaseRecords(c *gin.Context) {
	address := c.Param("address")
	if !common.IsHexAddress(address) {
		ErrorResponse(c, http.StatusBadRequest, "无效的金库地址")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	records, total, err := h.vaultLogic.GetPurchaseRecords(common.HexToAddress(address).Hex(), page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	pagination := Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}

	SuccessResponse(c, http.StatusOK, "获取支付记录成功", GetPurchaseRecordsResponse{
		Records:    ToPurchaseRecordResponseList(records),
		Pagination: pagination,
	})
}

// CashbackRequest 退款请求
type CashbackRequest struct {
	Investor string `json:"investor" binding:"required"`
}

// Cashback 投资人发起退款
func (h *VaultHandler) Cashback(c *gin.Context) {
	var req CashbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if !common.IsHexAddress(req.Investor) {
		ErrorResponse(c, http.StatusBadRequest, "无效的投资人地址")
		return
	}

	refund, err := h.entity.Cashback(common.HexToAddress(req.Investor))
	if err != nil {
		switch {
		case errors.Is(err, manager.ErrVaultNotFound):
			ErrorResponse(c, http.StatusNotFound, "金库不存在")
		case errors.Is(err, enginevault.ErrNotEligible):
			ErrorResponse(c, http.StatusBadRequest, "当前不满足退款条件")
		default:
			ErrorResponse(c, http.StatusInternalServerError, err.Error())
		}
		return
	}

	SuccessResponse(c, http.StatusOK, "退款成功", gin.H{
		"investor": common.HexToAddress(req.Investor).Hex(),
		"refund":   refund.String(),
	})
}

// GetCashbackRecords 获取退款记录列表
func (h *VaultHandler) GetCashbackRecords(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	records, total, err := h.vaultLogic.GetCashbackRecords(page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	pagination := Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}

	SuccessResponse(c, http.StatusOK, "获取退款记录成功", GetCashbackRecordsResponse{
		Records:    ToCashbackRecordResponseList(records),
		Pagination: pagination,
	})
}

// ProcessVaultsRequest 结算推进请求
type ProcessVaultsRequest struct {
	MaxCount uint64 `json:"max_count"`
}

// ProcessVaults 手动推进一批金库结算
// 引擎允许任何调用者推进结算，这里不做鉴权
func (h *VaultHandler) ProcessVaults(c *gin.Context) {
	var req ProcessVaultsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.MaxCount == 0 {
		req.MaxCount = 10
	}

	processed, err := h.entity.ProcessVaultList(req.MaxCount)
	if err != nil {
		if errors.Is(err, manager.ErrFundingNotFinalized) {
			ErrorResponse(c, http.StatusBadRequest, "筹款尚未结束，不能结算")
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	fm := h.entity.FundingManager()
	SuccessResponse(c, http.StatusOK, "结算推进成功", gin.H{
		"processed":            processed,
		"lastProcessedVaultId": fm.LastProcessedVaultID(),
		"settlementComplete":   fm.SettlementComplete(),
	})
}
