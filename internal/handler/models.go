package handler

import (
	"time"

	"github.com/mickys/blockbitsdev-sub000/internal/model"
)

// 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// 分页信息结构
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"totalPage"`
}

// 活动相关响应模型

// CampaignResponse 活动响应模型
type CampaignResponse struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	EntityAddress  string `json:"entityAddress"`
	PlatformWallet string `json:"platformWallet"`
	AmountRaised   string `json:"amountRaised"`
	GlobalSoftCap  string `json:"globalSoftCap"`
	GlobalHardCap  string `json:"globalHardCap"`
	State          string `json:"state"`
	CurrentStageId uint8  `json:"currentStageId"`
	Locked         bool   `json:"locked"`
	TokenName      string `json:"tokenName"`
	TokenSymbol    string `json:"tokenSymbol"`
	TokenSupply    string `json:"tokenSupply"`
}

// StageResponse 筹款阶段响应模型
type StageResponse struct {
	StageId               uint8     `json:"stageId"`
	Name                  string    `json:"name"`
	StartTime             time.Time `json:"startTime"`
	EndTime               time.Time `json:"endTime"`
	AmountCapSoft         string    `json:"amountCapSoft"`
	AmountCapHard         string    `json:"amountCapHard"`
	MinimumEntry          string    `json:"minimumEntry"`
	AmountRaised          string    `json:"amountRaised"`
	Methods               uint8     `json:"methods"`
	TokenSharePercentage  uint8     `json:"tokenSharePercentage"`
	UseParityFromPrevious bool      `json:"useParityFromPrevious"`
	State                 string    `json:"state"`
}

// GetCampaignResponse 获取活动详情响应
type GetCampaignResponse struct {
	Campaign CampaignResponse `json:"campaign"`
}

// GetStagesResponse 获取阶段列表响应
type GetStagesResponse struct {
	Stages []StageResponse `json:"stages"`
}

// CampaignStatsResponse 活动统计响应（引擎实时状态）
type CampaignStatsResponse struct {
	State                  string `json:"state"`
	AmountRaised           string `json:"amountRaised"`
	CurrentStageId         uint8  `json:"currentStageId"`
	StageCount             uint8  `json:"stageCount"`
	Locked                 bool   `json:"locked"`
	VaultNum               uint64 `json:"vaultNum"`
	LastProcessedVaultId   uint64 `json:"lastProcessedVaultId"`
	SettlementComplete     bool   `json:"settlementComplete"`
	TokensMinted           string `json:"tokensMinted"`
	TokenSupply            string `json:"tokenSupply"`
	LockedVotingTokens     string `json:"lockedVotingTokens"`
	TotalDistributedTokens string `json:"totalDistributedTokens"`
}

// StageParityResponse 阶段兑换率响应
type StageParityResponse struct {
	StageId       uint8  `json:"stageId"`
	Parity        string `json:"parity"`
	Precision     string `json:"precision"`
	TokensInStage string `json:"tokensInStage"`
}

// 金库相关响应模型

// VaultResponse 金库响应模型
type VaultResponse struct {
	VaultId         int64  `json:"vaultId"`
	Address         string `json:"address"`
	OwnerAddress    string `json:"ownerAddress"`
	AmountDirect    string `json:"amountDirect"`
	AmountMilestone string `json:"amountMilestone"`
	EtherBalance    string `json:"etherBalance"`
	LockedTokens    string `json:"lockedTokens"`
	Settled         bool   `json:"settled"`
	Released        bool   `json:"released"`
}

// VaultDetailResponse 金库实时详情响应
type VaultDetailResponse struct {
	Address         string `json:"address"`
	OwnerAddress    string `json:"ownerAddress"`
	AmountDirect    string `json:"amountDirect"`
	AmountMilestone string `json:"amountMilestone"`
	EtherBalance    string `json:"etherBalance"`
	LockedTokens    string `json:"lockedTokens"`
	BoughtTokens    string `json:"boughtTokens"`
	Settled         bool   `json:"settled"`
	Released        bool   `json:"released"`
	CanCashBack     bool   `json:"canCashBack"`
}

// GetVaultsResponse 获取金库列表响应
type GetVaultsResponse struct {
	Vaults     []VaultResponse `json:"vaults"`
	Pagination Pagination      `json:"pagination"`
}

// PurchaseRecordResponse 支付记录响应模型
type PurchaseRecordResponse struct {
	VaultAddress string    `json:"vaultAddress"`
	Method       uint8     `json:"method"`
	Amount       string    `json:"amount"`
	StageId      uint8     `json:"stageId"`
	RecordIndex  uint16    `json:"recordIndex"`
	PaidAt       time.Time `json:"paidAt"`
}

// GetPurchaseRecordsResponse 获取支付记录响应
type GetPurchaseRecordsResponse struct {
	Records    []PurchaseRecordResponse `json:"records"`
	Pagination Pagination               `json:"pagination"`
}

// CashbackRecordResponse 退款记录响应模型
type CashbackRecordResponse struct {
	VaultAddress string    `json:"vaultAddress"`
	OwnerAddress string    `json:"ownerAddress"`
	Amount       string    `json:"amount"`
	Reason       string    `json:"reason"`
	RefundedAt   time.Time `json:"refundedAt"`
}

// GetCashbackRecordsResponse 获取退款记录响应
type GetCashbackRecordsResponse struct {
	Records    []CashbackRecordResponse `json:"records"`
	Pagination Pagination               `json:"pagination"`
}

// 事件相关响应模型

// EventResponse 事件响应模型
type EventResponse struct {
	ID            int64     `json:"id"`
	EventType     string    `json:"eventType"`
	SignatureHash string    `json:"signatureHash"`
	Address       string    `json:"address"`
	Method        uint8     `json:"method"`
	Amount        string    `json:"amount"`
	RecordIndex   int64     `json:"recordIndex"`
	Detail        string    `json:"detail"`
	EmittedAt     time.Time `json:"emittedAt"`
}

// GetEventsResponse 获取事件列表响应
type GetEventsResponse struct {
	Events     []EventResponse `json:"events"`
	Pagination Pagination      `json:"pagination"`
}

// ToCampaignResponse 转换活动模型
func ToCampaignResponse(m *model.CampaignModel) CampaignResponse {
	return CampaignResponse{
		ID:             m.Id,
		Name:           m.Name,
		EntityAddress:  m.EntityAddress,
		PlatformWallet: m.PlatformWallet,
		AmountRaised:   m.AmountRaised,
		GlobalSoftCap:  m.GlobalSoftCap,
		GlobalHardCap:  m.GlobalHardCap,
		State:          string(m.State),
		CurrentStageId: m.CurrentStageId,
		Locked:         m.Locked,
		TokenName:      m.TokenName,
		TokenSymbol:    m.TokenSymbol,
		TokenSupply:    m.TokenSupply,
	}
}

// ToStageResponseList 转换阶段模型列表
func ToStageResponseList(stages []model.FundingStageModel) []StageResponse {
	resp := make([]StageResponse, 0, len(stages))
	for _, s := range stages {
		resp = append(resp, StageResponse{
			StageId:               s.StageId,
			Name:                  s.Name,
			StartTime:             s.StartTime,
			EndTime:               s.EndTime,
			AmountCapSoft:         s.AmountCapSoft,
			AmountCapHard:         s.AmountCapHard,
			MinimumEntry:          s.MinimumEntry,
			AmountRaised:          s.AmountRaised,
			Methods:               s.Methods,
			TokenSharePercentage:  s.TokenSharePercentage,
			UseParityFromPrevious: s.UseParityFromPrevious,
			State:                 s.State,
		})
	}
	return resp
}

// ToVaultResponseList 转换金库模型列表
func ToVaultResponseList(vaults []model.VaultModel) []VaultResponse {
	resp := make([]VaultResponse, 0, len(vaults))
	for _, v := range vaults {
		resp = append(resp, VaultResponse{
			VaultId:         v.VaultId,
			Address:         v.Address,
			OwnerAddress:    v.OwnerAddress,
			AmountDirect:    v.AmountDirect,
			AmountMilestone: v.AmountMilestone,
			EtherBalance:    v.EtherBalance,
			LockedTokens:    v.LockedTokens,
			Settled:         v.Settled,
			Released:        v.Released,
		})
	}
	return resp
}

// ToPurchaseRecordResponseList 转换支付记录列表
func ToPurchaseRecordResponseList(records []model.PurchaseRecordModel) []PurchaseRecordResponse {
	resp := make([]PurchaseRecordResponse, 0, len(records))
	for _, r := range records {
		resp = append(resp, PurchaseRecordResponse{
			VaultAddress: r.VaultAddress,
			Method:       r.Method,
			Amount:       r.Amount,
			StageId:      r.StageId,
			RecordIndex:  r.RecordIndex,
			PaidAt:       r.PaidAt,
		})
	}
	return resp
}

// ToCashbackRecordResponseList 转换退款记录列表
func ToCashbackRecordResponseList(records []model.CashbackRecordModel) []CashbackRecordResponse {
	resp := make([]CashbackRecordResponse, 0, len(records))
	for _, r := range records {
		resp = append(resp, CashbackRecordResponse{
			VaultAddress: r.VaultAddress,
			OwnerAddress: r.OwnerAddress,
			Amount:       r.Amount,
			Reason:       r.Reason,
			RefundedAt:   r.RefundedAt,
		})
	}
	return resp
}

// ToEventResponseList 转换事件列表
func ToEventResponseList(events []model.EventModel) []EventResponse {
	resp := make([]EventResponse, 0, len(events))
	for _, e := range events {
		resp = append(resp, EventResponse{
			ID:            e.Id,
			EventType:     e.EventType,
			SignatureHash: e.SignatureHash,
			Address:       e.Address,
			Method:        e.Method,
			Amount:        e.Amount,
			RecordIndex:   e.RecordIndex,
			Detail:        e.Detail,
			EmittedAt:     e.EmittedAt,
		})
	}
	return resp
}
