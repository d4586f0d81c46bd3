package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/haramapp/lottery-backend/internal/config"
	"github.com/haramapp/lottery-backend/internal/handlers"
	"github.com/haramapp/lottery-backend/internal/middleware"
	"github.com/haramapp/lottery-backend/pkg/jwt"
)

// HandlerDependencies carries the wired handlers and shared services the
// router needs.
type HandlerDependencies struct {
	Auth    *handlers.AuthHandler
	Lottery *handlers.LotteryHandler
	Admin   *handlers.AdminHandler
	Tokens  *jwt.TokenService
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, deps HandlerDependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware())

	// Public routes
	public := router.Group("/api/v1")
	{
		public.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{"status": "ok"})
		})

		auth := public.Group("/auth")
		{
			auth.POST("/otp/request", deps.Auth.RequestOTP)
			auth.POST("/otp/verify", deps.Auth.VerifyOTP)
			auth.POST("/refresh", deps.Auth.Refresh)
		}

		public.GET("/lottery/status", deps.Lottery.Status)
	}

	// Protected routes
	protected := router.Group("/api/v1")
	protected.Use(middleware.JWTAuthMiddleware(deps.Tokens))
	{
		protected.POST("/auth/logout", deps.Auth.Logout)

		users := protected.Group("/users")
		{
			users.GET("/me", deps.Auth.Profile)
			users.PATCH("/me", deps.Auth.UpdateProfile)
		}

		lottery := protected.Group("/lottery")
		{
			lottery.POST("/participate", deps.Lottery.Participate)
			lottery.GET("/tickets", deps.Lottery.TicketHistory)
			lottery.GET("/winners", deps.Lottery.CurrentWeekWinners)
			lottery.GET("/winner", deps.Lottery.WinnerTicket)
			lottery.PUT("/winner/info", deps.Lottery.CompleteWinnerInfo)
		}
	}

	// Operational routes guarded by the admin key
	admin := router.Group("/api/v1/admin")
	admin.Use(middleware.AdminKeyMiddleware(cfg))
	{
		admin.POST("/lottery/draw", deps.Admin.RunDraw)
		admin.POST("/lottery/sweep", deps.Admin.SweepWinners)
		admin.GET("/lottery/pending", deps.Admin.PendingTickets)
		admin.GET("/lottery/winners", deps.Admin.Winners)
		admin.POST("/otp/cleanup", deps.Admin.CleanupOTP)
	}

	return router
}
