package main

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mickys/blockbitsdev-sub000/internal/app"
	"github.com/mickys/blockbitsdev-sub000/internal/clock"
	"github.com/mickys/blockbitsdev-sub000/internal/config"
	"github.com/mickys/blockbitsdev-sub000/internal/database"
	"github.com/mickys/blockbitsdev-sub000/internal/event"
	"github.com/mickys/blockbitsdev-sub000/internal/logger"
	"github.com/mickys/blockbitsdev-sub000/internal/logic"
	"github.com/mickys/blockbitsdev-sub000/internal/router"
	"github.com/mickys/blockbitsdev-sub000/internal/task"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	initLogger(cfg.Log)
	defer logger.Sync()

	// 初始化数据库
	db, err := database.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	// 初始化事件总线
	bus, err := event.NewBus(10)
	if err != nil {
		logger.Fatal("Failed to create event bus: %v", err)
	}
	defer bus.Close()

	// 装配筹款引擎
	gateway, entity := buildEngine(cfg, bus)

	// 注册事件处理器
	registerProcessors(bus, db, entity)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(db, gateway, entity, cfg)

	// 启动定时任务
	taskManager := task.Start(db, entity, cfg)
	defer taskManager.Stop()

	// 启动服务器
	logger.Info("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}

// initLogger 按配置初始化默认日志器
func initLogger(cfg config.LogConfig) {
	level := logger.ParseLogLevel(cfg.Level)

	var l *logger.Logger
	var err error
	if cfg.Output == "file" {
		l, err = logger.NewWithFileRotation(level, cfg.File)
	} else {
		l, err = logger.New(level)
	}
	if err != nil {
		logger.Fatal("Failed to initialize logger: %v", err)
	}
	logger.SetDefaultLogger(l)
}

// buildEngine 由配置装配网关、应用实体和全部资产
func buildEngine(cfg *config.Config, bus *event.Bus) (*app.Gateway, *app.Entity) {
	campaign := cfg.Campaign
	if !common.IsHexAddress(campaign.EntityAddress) {
		logger.Fatal("Invalid entity address: %s", campaign.EntityAddress)
	}
	if !common.IsHexAddress(campaign.PlatformWallet) {
		logger.Fatal("Invalid platform wallet address: %s", campaign.PlatformWallet)
	}

	store, err := campaign.BuildBylaws()
	if err != nil {
		logger.Fatal("Failed to build bylaws: %v", err)
	}
	supply, err := campaign.TokenSupply()
	if err != nil {
		logger.Fatal("Invalid token supply: %v", err)
	}

	clk := clock.NewSystemClock()
	milestones := app.NewMilestones(clk, time.Unix(campaign.Bylaws.MeetingDeadline, 0).UTC())

	entity, err := app.NewEntity(app.Params{
		Address:        common.HexToAddress(campaign.EntityAddress),
		PlatformWallet: common.HexToAddress(campaign.PlatformWallet),
		TokenName:      campaign.Token.Name,
		TokenSymbol:    campaign.Token.Symbol,
		TokenDecimals:  campaign.Token.Decimals,
		TokenSupply:    supply,
		Clock:          clk,
		Bylaws:         store,
		Events:         bus,
		Milestones:     milestones,
	})
	if err != nil {
		logger.Fatal("Failed to assemble application entity: %v", err)
	}

	// 注册阶段表并锁定
	for _, sc := range campaign.Stages {
		params, err := sc.StageParams()
		if err != nil {
			logger.Fatal("Invalid stage config: %v", err)
		}
		id, err := entity.AddFundingStage(params)
		if err != nil {
			logger.Fatal("Failed to add funding stage %s: %v", sc.Name, err)
		}
		logger.Info("Registered funding stage %d: %s", id, sc.Name)
	}
	if err := entity.ApplyAndLockSettings(); err != nil {
		logger.Fatal("Failed to lock funding settings: %v", err)
	}

	gateway := app.NewGateway(app.GatewayAddressFor(entity.Address()))
	if err := gateway.RequestCodeUpgrade(entity); err != nil {
		logger.Fatal("Failed to link entity to gateway: %v", err)
	}

	logger.Info("Funding engine assembled: entity %s, %d stages, token %s",
		entity.Address().Hex(), entity.Funding().StageCount(), campaign.Token.Symbol)
	return gateway, entity
}

// registerProcessors 订阅事件处理器
func registerProcessors(bus *event.Bus, db *gorm.DB, entity *app.Entity) {
	eventLogic := logic.NewEventLogic(db)
	vaultLogic := logic.NewVaultLogic(db)
	campaignLogic := logic.NewCampaignLogic(db)

	bus.Subscribe(event.NewRecordProcessor(eventLogic), event.AllTypes()...)
	bus.Subscribe(event.NewPurchaseProcessor(vaultLogic), event.TypePaymentReceived)
	bus.Subscribe(event.NewCashbackProcessor(vaultLogic, campaignLogic, entity.Address().Hex()),
		event.TypeVaultCashback)
}
