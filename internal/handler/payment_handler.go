package handler

import (
	"errors"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/mickys/blockbitsdev-sub000/internal/app"
	"github.com/mickys/blockbitsdev-sub000/internal/funding"
)

// PaymentHandler 支付处理器
type PaymentHandler struct {
	entity *app.Entity
}

// NewPaymentHandler 创建支付处理器
func NewPaymentHandler(entity *app.Entity) *PaymentHandler {
	return &PaymentHandler{
		entity: entity,
	}
}

// PaymentRequest 支付请求
type PaymentRequest struct {
	Payer  string `json:"payer" binding:"required"`
	Amount string `json:"amount" binding:"required"` // wei，十进制字符串
}

// PayDirect 直接方式支付
func (h *PaymentHandler) PayDirect(c *gin.Context) {
	h.pay(c, h.entity.PayDirect)
}

// PayMilestone 里程碑方式支付
func (h *PaymentHandler) PayMilestone(c *gin.Context) {
	h.pay(c, h.entity.PayMilestone)
}

func (h *PaymentHandler) pay(c *gin.Context, payFn func(common.Address, *big.Int) error) {
	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if !common.IsHexAddress(req.Payer) {
		ErrorResponse(c, http.StatusBadRequest, "无效的支付地址")
		return
	}
	amount, ok := new(big.Int).SetString(req.Amount, 10)
	if !ok || amount.Sign() <= 0 {
		ErrorResponse(c, http.StatusBadRequest, "无效的支付金额")
		return
	}

	payer := common.HexToAddress(req.Payer)
	if err := payFn(payer, amount); err != nil {
		ErrorResponse(c, paymentStatusCode(err), err.Error())
		return
	}

	vaultAddr, err := h.entity.FundingManager().GetMyVaultAddress(payer)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusCreated, "支付成功", gin.H{
		"payer":  payer.Hex(),
		"amount": amount.String(),
		"vault":  vaultAddr.Hex(),
	})
}

// paymentStatusCode 引擎拒绝支付属于请求问题，返回 400
func paymentStatusCode(err error) int {
	switch {
	case errors.Is(err, funding.ErrNotAcceptingPayments),
		errors.Is(err, funding.ErrBelowMinimumEntry),
		errors.Is(err, funding.ErrZeroValue),
		errors.Is(err, funding.ErrNotLocked):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
