package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mickys/blockbitsdev-sub000/internal/logic"
)

// EventHandler 事件处理器
type EventHandler struct {
	eventLogic *logic.EventLogic
}

// NewEventHandler 创建事件处理器
func NewEventHandler(db *gorm.DB) *EventHandler {
	return &EventHandler{
		eventLogic: logic.NewEventLogic(db),
	}
}

// GetEvents 获取事件列表
func (h *EventHandler) GetEvents(c *gin.Context) {
	eventType := c.Query("type")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	events, total, err := h.eventLogic.GetEvents(eventType, page, pageSize)
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

	SuccessResponse(c, http.StatusOK, "获取事件列表成功", GetEventsResponse{
		Events:     ToEventResponseList(events),
		Pagination: pagination,
	})
}
