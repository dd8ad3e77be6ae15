// Package server assembles the HTTP router from the application services.
package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/olahol/melody"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"tally/internal/config"
	_ "tally/internal/docs" // swagger docs
	"tally/internal/handlers"
	"tally/internal/metrics"
	"tally/internal/middleware"
	"tally/internal/services"
)

// Services is everything the router needs to serve requests.
type Services struct {
	Users      services.UserServicer
	Categories services.CategoryServicer
	Expenses   services.ExpenseServicer
	Budgets    services.BudgetServicer
	Groups     services.GroupServicer
	Audit      services.AuditServicer
	Hub        *melody.Melody
}

// NewRouter wires middleware and routes.
func NewRouter(cfg *config.Config, svc Services) *gin.Engine {
	authHandler := handlers.NewAuthHandler(svc.Users, svc.Audit)
	categoryHandler := handlers.NewCategoryHandler(svc.Categories)
	expenseHandler := handlers.NewExpenseHandler(svc.Expenses, svc.Audit)
	budgetHandler := handlers.NewBudgetHandler(svc.Budgets, svc.Expenses, svc.Audit)
	groupHandler := handlers.NewGroupHandler(svc.Groups, svc.Audit)
	wsHandler := handlers.NewWSHandler(svc.Hub)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware(cfg.CORSOrigins))
	router.Use(middleware.RequestLogging())
	router.Use(metrics.Middleware())
	router.Use(middleware.ErrorHandler())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/metrics", middleware.APIKeyAuth(cfg.MetricsAPIKey), gin.WrapH(promhttp.Handler()))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// The WebSocket upgrade authenticates with a token query parameter.
	v1.GET("/ws", wsHandler.Connect)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)

	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetCategories)

	expenses := protected.Group("/expenses")
	expenses.POST("", expenseHandler.CreateExpense)
	expenses.GET("", expenseHandler.GetExpenses)
	expenses.GET("/summary", expenseHandler.GetSummary)
	expenses.DELETE("/:id", expenseHandler.DeleteExpense)

	budgets := protected.Group("/budgets")
	budgets.PUT("", budgetHandler.SetBudget)
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.GET("/status", budgetHandler.GetBudgetStatus)
	budgets.DELETE("/:year/:month/:category", budgetHandler.DeleteBudget)

	groups := protected.Group("/groups")
	groups.POST("", groupHandler.CreateGroup)
	groups.GET("", groupHandler.GetGroups)
	groups.DELETE("/:id", groupHandler.DeleteGroup)
	groups.GET("/:id/members", groupHandler.GetMembers)
	groups.POST("/:id/members", groupHandler.AddMember)
	groups.GET("/:id/expenses", groupHandler.GetExpenses)
	groups.POST("/:id/expenses", groupHandler.AddExpense)
	groups.GET("/:id/balances", groupHandler.GetBalances)
	groups.GET("/:id/settlements", groupHandler.GetSettlements)

	shares := protected.Group("/shares")
	shares.GET("", groupHandler.GetShares)
	shares.POST("/:id/pay", groupHandler.PayShare)

	return router
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
