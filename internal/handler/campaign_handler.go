package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mickys/blockbitsdev-sub000/internal/app"
	"github.com/mickys/blockbitsdev-sub000/internal/logic"
	"github.com/mickys/blockbitsdev-sub000/internal/scada"
)

// CampaignHandler 活动处理器
type CampaignHandler struct {
	campaignLogic *logic.CampaignLogic
	entity        *app.Entity
}

// NewCampaignHandler 创建活动处理器
func NewCampaignHandler(db *gorm.DB, entity *app.Entity) *CampaignHandler {
	return &CampaignHandler{
		campaignLogic: logic.NewCampaignLogic(db),
		entity:        entity,
	}
}

// GetCampaign 获取活动详情
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	campaign, err := h.campaignLogic.GetCampaign(h.entity.Address().Hex())
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "获取活动成功", GetCampaignResponse{
		Campaign: ToCampaignResponse(campaign),
	})
}

// GetStages 获取活动阶段列表
func (h *CampaignHandler) GetStages(c *gin.Context) {
	campaign, err := h.campaignLogic.GetCampaign(h.entity.Address().Hex())
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	stages, err := h.campaignLogic.GetStages(campaign.Id)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "获取阶段列表成功", GetStagesResponse{
		Stages: ToStageResponseList(stages),
	})
}

// GetCampaignStats 获取活动实时统计（直接读引擎状态）
func (h *CampaignHandler) GetCampaignStats(c *gin.Context) {
	f := h.entity.Funding()
	fm := h.entity.FundingManager()
	ledger := h.entity.Ledger()

	stats := CampaignStatsResponse{
		State:                  f.State().String(),
		AmountRaised:           f.AmountRaised().String(),
		CurrentStageId:         f.CurrentStageID(),
		StageCount:             f.StageCount(),
		Locked:                 f.Locked(),
		VaultNum:               fm.VaultNum(),
		LastProcessedVaultId:   fm.LastProcessedVaultID(),
		SettlementComplete:     fm.SettlementComplete(),
		TokensMinted:           ledger.Minted().String(),
		TokenSupply:            ledger.TotalSupply().String(),
		LockedVotingTokens:     fm.LockedVotingTokens().String(),
		TotalDistributedTokens: fm.TotalDistributedTokens().String(),
	}

	SuccessResponse(c, http.StatusOK, "获取活动统计成功", stats)
}

// GetStageParity 获取指定阶段的代币兑换率
func (h *CampaignHandler) GetStageParity(c *gin.Context) {
	stageId, err := strconv.ParseUint(c.Param("id"), 10, 8)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的阶段ID")
		return
	}

	calc := h.entity.SCADA()
	parity, err := calc.GetTokenParity(uint8(stageId))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	pool, err := calc.TokensInStage(uint8(stageId))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "获取阶段兑换率成功", StageParityResponse{
		StageId:       uint8(stageId),
		Parity:        parity.String(),
		Precision:     scada.Precision().String(),
		TokensInStage: pool.String(),
	})
}

// DoStateChanges 手动驱动状态机（运维入口，定时任务是常规驱动方）
func (h *CampaignHandler) DoStateChanges(c *gin.Context) {
	if err := h.entity.DoStateChanges(true); err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "状态机推进成功", gin.H{
		"state": h.entity.Funding().State().String(),
	})
}
