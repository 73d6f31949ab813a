package model

import (
	"time"
)

// EventModel 引擎事件记录
// 消费方按签名哈希过滤，不依赖调用返回值
type EventModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	EventType     string `json:"event_type" gorm:"not null;index"`
	SignatureHash string `json:"signature_hash" gorm:"not null;index"`
	Address       string `json:"address" gorm:"not null"`
	Method        uint8  `json:"method"`
	Amount        string `json:"amount" gorm:"default:'0'"`
	RecordIndex   int64  `json:"record_index"`
	Detail        string `json:"detail" gorm:"type:text"`
	EmittedAt     time.Time `json:"emitted_at" gorm:"not null"`
}

// TableName 自定义表名
func (EventModel) TableName() string {
	return "event"
}
