package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mickys/blockbitsdev-sub000/internal/app"
	"github.com/mickys/blockbitsdev-sub000/internal/config"
	"github.com/mickys/blockbitsdev-sub000/internal/handler"
)

func Setup(db *gorm.DB, gateway *app.Gateway, entity *app.Entity, cfg *config.Config) *gin.Engine {
	r := gin.Default()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		entityAddr, _ := gateway.CurrentApplicationEntityAddress()
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "blockbits-funding-service",
			"entity":  entityAddr.Hex(),
		})
	})

	// API版本组
	v1 := r.Group("/api/v1")
	{
		// 活动相关路由
		campaignHandler := handler.NewCampaignHandler(db, entity)
		campaign := v1.Group("/campaign")
		{
			campaign.GET("", campaignHandler.GetCampaign)
			campaign.GET("/stages", campaignHandler.GetStages)
			campaign.GET("/stages/:id/parity", campaignHandler.GetStageParity)
			campaign.GET("/stats", campaignHandler.GetCampaignStats)
			campaign.POST("/state-changes", campaignHandler.DoStateChanges)
		}

		// 支付相关路由
		paymentHandler := handler.NewPaymentHandler(entity)
		payments := v1.Group("/payments")
		{
			payments.POST("/direct", paymentHandler.PayDirect)
			payments.POST("/milestone", paymentHandler.PayMilestone)
		}

		// 金库相关路由
		vaultHandler := handler.NewVaultHandler(db, entity)
		vaults := v1.Group("/vaults")
		{
			vaults.GET("", vaultHandler.GetVaults)
			vaults.GET("/owner/:owner", vaultHandler.GetVault)
			vaults.GET("/:address/purchases", vaultHandler.GetPurchaseRecords)
			vaults.POST("/cashback", vaultHandler.Cashback)
			vaults.GET("/cashbacks", vaultHandler.GetCashbackRecords)
			vaults.POST("/settle", vaultHandler.ProcessVaults)
		}

		// 事件相关路由
		eventHandler := handler.NewEventHandler(db)
		v1.GET("/events", eventHandler.GetEvents)
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
