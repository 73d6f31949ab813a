package task

import (
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"

	"github.com/mickys/blockbitsdev-sub000/internal/app"
	"github.com/mickys/blockbitsdev-sub000/internal/config"
	"github.com/mickys/blockbitsdev-sub000/internal/logger"
)

// TaskManager 任务管理器
type TaskManager struct {
	scheduler gocron.Scheduler
	db        *gorm.DB
	entity    *app.Entity
	config    *config.Config
}

// NewTaskManager 创建新的任务管理器
func NewTaskManager(db *gorm.DB, entity *app.Entity, cfg *config.Config) *TaskManager {
	s, err := gocron.NewScheduler()
	if err != nil {
		logger.Fatal("Failed to create scheduler: %v", err)
	}

	return &TaskManager{
		scheduler: s,
		db:        db,
		entity:    entity,
		config:    cfg,
	}
}

// Start 启动任务管理器
func Start(db *gorm.DB, entity *app.Entity, cfg *config.Config) *TaskManager {
	manager := NewTaskManager(db, entity, cfg)

	// 注册所有任务
	manager.RegisterJobs()

	// 启动调度器
	manager.scheduler.Start()

	logger.Info("Task manager started successfully")
	return manager
}

// RegisterJobs 注册所有任务
func (m *TaskManager) RegisterJobs() {
	m.RegisterStateTickJob()
	m.RegisterSnapshotSyncJob()
	m.RegisterSettlementJob()
}

// RegisterStateTickJob 注册状态机驱动任务
func (m *TaskManager) RegisterStateTickJob() {
	m.register(NewStateTickJob(m.entity, m.config))
}

// RegisterSnapshotSyncJob 注册引擎快照同步任务
func (m *TaskManager) RegisterSnapshotSyncJob() {
	m.register(NewSnapshotSyncJob(m.db, m.entity, m.config))
}

// RegisterSettlementJob 注册金库结算任务
func (m *TaskManager) RegisterSettlementJob() {
	m.register(NewSettlementJob(m.db, m.entity, m.config))
}

// Job 定时任务
type Job interface {
	GetName() string
	GetSchedule() gocron.JobDefinition
	Execute()
}

func (m *TaskManager) register(job Job) {
	_, err := m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		logger.Error("Failed to register job %s: %v", job.GetName(), err)
	}
}

// Stop 停止任务管理器
func (m *TaskManager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	logger.Info("Task manager stopped")
}
