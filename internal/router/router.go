package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/shataev/wanna-track-api/internal/config"
	"github.com/shataev/wanna-track-api/internal/handler"
	"github.com/shataev/wanna-track-api/internal/ledger"
	"github.com/shataev/wanna-track-api/internal/middleware"
	"github.com/shataev/wanna-track-api/internal/rates"
)

// SetupRouter configures the Gin engine and the API routes.
func SetupRouter(cfg *config.Config, db *gorm.DB, rateStore *rates.Store, l *ledger.Ledger) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	api := r.Group("/api")

	jwtSecret := cfg.JWT.Secret
	authHandler := handler.NewAuthHandler(db, jwtSecret, cfg.JWT.ExpireHours,
		cfg.Security.BcryptCost, cfg.App.DefaultCurrency)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(
		middleware.AuthMiddleware(jwtSecret, db),
		middleware.AuditMiddleware(db),
	)

	protected.GET("/me", handler.GetMe)

	fundHandler := handler.NewFundHandler(db, l)
	protected.GET("/funds", fundHandler.ListFunds)
	protected.POST("/funds", fundHandler.CreateFund)
	protected.POST("/funds/transfer", fundHandler.Transfer)
	protected.GET("/funds/total", fundHandler.GetTotal)
	protected.GET("/funds/:id", fundHandler.GetFund)
	protected.PUT("/funds/:id", fundHandler.UpdateFund)
	protected.DELETE("/funds/:id", fundHandler.DeleteFund)
	protected.GET("/funds/:id/transactions", fundHandler.ListTransactions)
	protected.POST("/funds/:id/expense", fundHandler.PostExpense)

	costHandler := handler.NewCostHandler(db, l)
	protected.POST("/costs", costHandler.CreateCost)
	protected.GET("/costs", costHandler.ListCostsByCategory)

	categoryHandler := handler.NewCategoryHandler(db)
	protected.GET("/categories", categoryHandler.ListCategories)
	protected.POST("/categories", categoryHandler.CreateCategory)
	protected.DELETE("/categories/:id", categoryHandler.DeleteCategory)

	ratesHandler := handler.NewRatesHandler(rateStore)
	protected.GET("/exchange-rates/current", ratesHandler.GetCurrent)
	protected.POST("/exchange-rates/update", ratesHandler.Update)

	protected.POST("/profile", handler.UpdateProfile(db))
	protected.POST("/profile/password", handler.ChangePassword(db, cfg.Security.BcryptCost))

	logHandler := handler.NewLogHandler(db)
	protected.GET("/logs", logHandler.ListLogs)

	exportHandler := handler.NewExportHandler(db)
	protected.GET("/export/csv", exportHandler.ExportCSV)
	protected.GET("/export/xlsx", exportHandler.ExportXLSX)

	return r
}
