package server

import (
	"strings"
	"time"

	"anoa.com/skillexchange/internal/config"
	"anoa.com/skillexchange/internal/handler"
	"anoa.com/skillexchange/internal/middleware"
	"anoa.com/skillexchange/internal/repository"
	"anoa.com/skillexchange/internal/service"
	"anoa.com/skillexchange/pkg/logger"
	"anoa.com/skillexchange/pkg/storage"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
}

func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	log := logger.Component("server")

	userRepo := repository.NewUserRepository(db)
	skillRepo := repository.NewSkillRepository(db)
	swapRepo := repository.NewSwapRepository(db)
	convRepo := repository.NewConversationRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	reportRepo := repository.NewReportRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	var imageStorage storage.ImageStorage
	if cfg.CloudinaryCloudName != "" {
		var err error
		imageStorage, err = storage.NewCloudinaryStorage()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize cloudinary storage")
		}
	} else {
		log.Warn().Msg("cloudinary is not configured, profile picture uploads disabled")
	}

	meiliHost := cfg.MeiliSearchHost
	if !strings.HasPrefix(meiliHost, "http") {
		meiliHost = "http://" + meiliHost + ":7700"
	}
	meiliClient := meilisearch.New(meiliHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
	meiliSvc := service.NewMeiliSearchService(meiliClient)

	notificationSvc := service.NewNotificationService(notifRepo, activityRepo, redisClient)
	authSvc := service.NewAuthService(userRepo, activityRepo, cfg.JWTSecret, cfg.JWTTTLMinutes)
	profileSvc := service.NewProfileService(userRepo, skillRepo, swapRepo, convRepo, notifRepo, activityRepo, imageStorage)
	skillSvc := service.NewSkillService(skillRepo, activityRepo, notificationSvc, meiliSvc)
	swapSvc := service.NewSwapService(swapRepo, skillRepo, activityRepo, notificationSvc, redisClient, cfg.RateLimitSwapCreate)
	messagingSvc := service.NewMessagingService(convRepo, userRepo, activityRepo, notificationSvc)
	announcementSvc := service.NewAnnouncementService(announcementRepo, userRepo, notificationSvc)
	reportSvc := service.NewReportService(reportRepo, activityRepo, redisClient, cfg.RateLimitReport)
	analyticsSvc := service.NewAnalyticsService(analyticsRepo, userRepo, skillRepo, swapRepo, convRepo, reportRepo, activityRepo)

	authHandler := handler.NewAuthHandler(authSvc)
	profileHandler := handler.NewProfileHandler(profileSvc)
	skillHandler := handler.NewSkillHandler(skillSvc)
	swapHandler := handler.NewSwapHandler(swapSvc)
	conversationHandler := handler.NewConversationHandler(messagingSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc, redisClient)
	announcementHandler := handler.NewAnnouncementHandler(announcementSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	adminHandler := handler.NewAdminHandler(analyticsSvc, skillSvc, activityRepo)

	router := gin.New()
	setupCORS(router, cfg.AllowedOrigins)
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	authMiddleware := middleware.NewAuthMiddleware(authSvc, userRepo)

	api := router.Group("/api")

	// Public routes (no auth required)
	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}
	api.GET("/categories", skillHandler.GetCategories)
	api.GET("/skills", skillHandler.Search)
	api.GET("/skills/:id/reviews", skillHandler.GetReviews)

	// Protected routes
	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		// Staff routes
		adminGroup := protected.Group("/admin")
		adminGroup.Use(authMiddleware.RequireStaff())
		{
			adminGroup.GET("/dashboard", adminHandler.Dashboard)
			adminGroup.GET("/analytics/summary", adminHandler.Summary)
			adminGroup.GET("/activities", adminHandler.Activities)
			adminGroup.POST("/categories", adminHandler.CreateCategory)
			adminGroup.DELETE("/categories/:id", adminHandler.DeleteCategory)
			adminGroup.POST("/announcements", announcementHandler.Create)
			adminGroup.GET("/reports", reportHandler.List)
			adminGroup.GET("/reports/:id", reportHandler.Get)
			adminGroup.PUT("/reports/:id", reportHandler.Update)
		}

		// Profile routes
		protected.GET("/profile/me", profileHandler.Me)
		protected.PUT("/profile", profileHandler.UpdateProfile)
		protected.POST("/profile/picture", profileHandler.UploadProfilePicture)
		protected.GET("/dashboard", profileHandler.Dashboard)
		protected.GET("/users", profileHandler.SearchUsers)
		protected.GET("/users/:id", profileHandler.GetUser)

		// Skill routes
		protected.POST("/skills", skillHandler.CreateListing)
		protected.GET("/skills/me", skillHandler.MyListings)
		protected.GET("/skills/:id", skillHandler.GetListing)
		protected.PUT("/skills/:id", skillHandler.UpdateListing)
		protected.PATCH("/skills/:id/toggle", skillHandler.ToggleListing)
		protected.DELETE("/skills/:id", skillHandler.DeleteListing)
		protected.POST("/skills/:id/reviews", skillHandler.CreateReview)

		// Swap routes
		protected.POST("/swaps", swapHandler.Create)
		protected.GET("/swaps", swapHandler.List)
		protected.GET("/swaps/:id", swapHandler.Get)
		protected.POST("/swaps/:id/accept", swapHandler.Accept)
		protected.POST("/swaps/:id/reject", swapHandler.Reject)
		protected.POST("/swaps/:id/cancel", swapHandler.Cancel)
		protected.POST("/swaps/:id/complete", swapHandler.Complete)
		protected.POST("/swaps/:id/reviews", swapHandler.CreateReview)

		// Messaging routes
		protected.POST("/conversations", conversationHandler.Start)
		protected.GET("/conversations", conversationHandler.List)
		protected.GET("/conversations/unread-count", conversationHandler.UnreadCount)
		protected.GET("/conversations/:id", conversationHandler.Get)
		protected.GET("/conversations/:id/messages", conversationHandler.GetMessages)
		protected.POST("/conversations/:id/messages", conversationHandler.SendMessage)

		// Notification routes
		protected.GET("/notifications", notificationHandler.List)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.GET("/notifications/ws", notificationHandler.HandleWebSocket)

		// Announcement routes
		protected.GET("/announcements", announcementHandler.List)
		protected.GET("/announcements/unread-count", announcementHandler.UnreadCount)
		protected.GET("/announcements/:id", announcementHandler.Get)
		protected.PUT("/announcements/:id/read", announcementHandler.MarkRead)

		// Report routes
		protected.POST("/reports", reportHandler.Create)
		protected.GET("/reports/me", reportHandler.MyReports)
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
	}
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func setupCORS(router *gin.Engine, allowedOrigins string) {
	var origins []string
	if allowedOrigins != "" {
		origins = strings.Split(allowedOrigins, ",")
	} else {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
