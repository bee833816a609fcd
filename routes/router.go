package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/veilboard/veilboard/config"
	"github.com/veilboard/veilboard/controllers"
	"github.com/veilboard/veilboard/middleware"
	"github.com/veilboard/veilboard/services"
	"github.com/veilboard/veilboard/utils"
)

// SetupRouter wires services, middlewares, and controllers. The event bus is
// owned by the caller so subscribers (notification counter, tests) share the
// same instance the services publish on.
func SetupRouter(db *gorm.DB, bus *services.EventBus, counter *services.NotificationCounter) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(utils.AccessLog())
	r.Use(utils.Recovery())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	privilegeSvc := services.NewPrivilegeService(db, bus)
	checkinSvc := services.NewCheckInService(db, privilegeSvc, bus)
	identitySvc := services.NewIdentityService(db)
	postSvc := services.NewPostService(db, identitySvc, privilegeSvc)
	accessSvc := services.NewAccessService(db)
	messageSvc := services.NewMessageService(db, accessSvc, bus)

	authController := controllers.NewAuthController(db)
	checkinController := controllers.NewCheckInController(checkinSvc, privilegeSvc)
	postController := controllers.NewPostController(db, postSvc)
	messageController := controllers.NewMessageController(messageSvc)
	nearbyController := controllers.NewNearbyController(accessSvc)
	notificationController := controllers.NewNotificationController(counter)

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)

	api.GET("/posts", postController.ListPosts)
	api.GET("/posts/:id", postController.GetPost)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())
	protected.POST("/checkin", checkinController.CheckIn)
	protected.GET("/privilege/status", checkinController.PrivilegeStatus)
	protected.POST("/posts", postController.CreatePost)
	protected.POST("/posts/:id/comments", postController.CreateComment)
	protected.POST("/messages", messageController.Send)
	protected.GET("/messages/:peer", messageController.Thread)
	protected.GET("/nearby/authorize", nearbyController.Authorize)
	protected.GET("/notifications/count", notificationController.Count)
	protected.POST("/notifications/read", notificationController.MarkRead)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
