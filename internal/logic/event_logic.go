package logic

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/mickys/blockbitsdev-sub000/internal/model"
)

// EventLogic 事件业务逻辑
type EventLogic struct {
	db *gorm.DB
}

// NewEventLogic 创建事件业务逻辑
func NewEventLogic(db *gorm.DB) *EventLogic {
	return &EventLogic{db: db}
}

// SaveEvent 保存事件记录
func (l *EventLogic) SaveEvent(m *model.EventModel) error {
	if err := l.db.Create(m).Error; err != nil {
		return fmt.Errorf("保存事件失败: %w", err)
	}
	return nil
}

// GetEvents 分页读取事件列表，eventType 为空时不过滤
func (l *EventLogic) GetEvents(eventType string, page, pageSize int) ([]model.EventModel, int64, error) {
	var events []model.EventModel
	var total int64

	query := l.db.Model(&model.EventModel{})
	if eventType != "" {
		query = query.Where("event_type = ?", eventType)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计事件数量失败: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := query.Order("id desc").
		Offset(offset).Limit(pageSize).Find(&events).Error; err != nil {
		return nil, 0, fmt.Errorf("获取事件列表失败: %w", err)
	}
	return events, total, nil
}
