package task

import (
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/mickys/blockbitsdev-sub000/internal/app"
	"github.com/mickys/blockbitsdev-sub000/internal/config"
	"github.com/mickys/blockbitsdev-sub000/internal/logger"
)

// StateTickJob 状态机驱动任务
// 周期性检查并应用筹款实体的待定状态迁移，对应链上无人驱动则状态停滞的问题
type StateTickJob struct {
	entity *app.Entity
	config *config.Config
}

// NewStateTickJob 创建状态机驱动任务
func NewStateTickJob(entity *app.Entity, cfg *config.Config) *StateTickJob {
	return &StateTickJob{
		entity: entity,
		config: cfg,
	}
}

// GetName 获取任务名称
func (j *StateTickJob) GetName() string {
	return "funding_state_tick"
}

// GetSchedule 获取调度配置
func (j *StateTickJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *StateTickJob) Execute() {
	if !j.entity.Funding().Locked() {
		return
	}
	if !j.entity.HasRequiredStateChanges() {
		return
	}

	before := j.entity.Funding().State()
	if err := j.entity.DoStateChanges(true); err != nil {
		logger.Error("Failed to apply funding state changes: %v", err)
		return
	}
	after := j.entity.Funding().State()

	logger.Info("Funding state advanced: %s -> %s", before, after)
}
