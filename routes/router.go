package routes

import (
	"github.com/ParthDhoot27/stichUP/config"
	"github.com/ParthDhoot27/stichUP/controllers"
	"github.com/ParthDhoot27/stichUP/middleware"
	"github.com/ParthDhoot27/stichUP/models"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Setup wires middleware and every API route. rdb may be nil.
func Setup(cfg *config.Config, rdb *redis.Client) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg))
	router.Use(middleware.RateLimiter(rdb, middleware.RateLimitConfig{
		MaxRequests: cfg.RateLimitMax,
		Window:      cfg.RateLimitWindow,
		Name:        "api",
	}))

	auth := middleware.EnsureValidToken(cfg)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", controllers.HealthCheck)
		v1.GET("/uploads/:filename", controllers.GetUploadedImage)

		authRoutes := v1.Group("/auth")
		{
			authRoutes.POST("/signup", controllers.Signup)
			authRoutes.POST("/login", controllers.Login)
			authRoutes.POST("/send-otp", controllers.SendOTP)
			authRoutes.POST("/verify-otp", controllers.VerifyOTP)
			authRoutes.GET("/me", auth, controllers.GetMe)
			authRoutes.PUT("/password", auth, controllers.ChangePassword)
		}

		users := v1.Group("/users", auth)
		{
			users.GET("/me", controllers.GetProfile)
			users.PUT("/me", controllers.UpdateProfile)
			users.POST("/me/credits", controllers.ConsumeCredit)
		}

		tailors := v1.Group("/tailors")
		{
			tailors.GET("/search", controllers.SearchTailors)
			tailors.GET("/:id", controllers.GetTailor)
			tailors.POST("", auth, middleware.RequireRole(models.RoleTailor, models.RoleAdmin), controllers.CreateTailor)
			tailors.PUT("/:id/services", auth, controllers.UpdateTailorServices)
			tailors.PUT("/:id/availability", auth, controllers.SetTailorAvailability)
			tailors.GET("/:id/earnings", auth, controllers.GetTailorEarnings)
		}

		jobs := v1.Group("/jobs", auth)
		{
			jobs.POST("", middleware.RequireRole(models.RoleCustomer), controllers.CreateJob)
			jobs.GET("/user/me", controllers.ListMyJobs)
			jobs.GET("/tailor/:id", controllers.ListTailorJobs)
			jobs.GET("/:id", controllers.GetJob)
			jobs.POST("/:id/accept", controllers.AcceptJob)
			jobs.POST("/:id/start", controllers.StartJob)
			jobs.POST("/:id/finish", controllers.FinishJob)
			jobs.POST("/:id/confirm", controllers.ConfirmJob)
			jobs.POST("/:id/cancel", controllers.CancelJob)
			jobs.POST("/:id/revision", controllers.RequestRevision)
			jobs.POST("/:id/message", controllers.SendMessage)
			jobs.GET("/:id/messages", controllers.ListMessages)
			jobs.POST("/:id/image", controllers.AddJobImage)
			jobs.POST("/:id/images/upload", controllers.UploadJobImage)
			jobs.POST("/:id/rate", controllers.RateJob)
		}

		admin := v1.Group("/admin", auth, adminOnly)
		{
			admin.GET("/metrics", controllers.GetMetrics)
			admin.GET("/metrics/export", controllers.ExportMetrics)
			admin.POST("/reconcile", controllers.ReconcileCounters)
			admin.POST("/tailors/:id/verify", controllers.VerifyTailor)
			admin.POST("/jobs/:id/assign-rider", controllers.AssignRider)
			admin.POST("/jobs/:id/deliver", controllers.MarkJobDelivered)
			admin.POST("/jobs/:id/close", controllers.CloseJob)
			admin.POST("/jobs/:id/payment", controllers.SetPaymentStatus)
		}
	}

	return router
}
