package server

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Al0olo/Fleet-Mangement-System-sub000/internal/config"
	"github.com/Al0olo/Fleet-Mangement-System-sub000/internal/handler"
	"github.com/Al0olo/Fleet-Mangement-System-sub000/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	config *config.Config
	db     *gorm.DB
	redis  *redis.Client
	nats   *nats.Conn
	wsHub  *handler.WSHub

	analyticsService *service.AnalyticsService
	usageService     *service.UsageStatsService
	reportService    *service.ReportService
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, natsConn *nats.Conn,
	analyticsService *service.AnalyticsService, usageService *service.UsageStatsService, reportService *service.ReportService) *Server {
	return &Server{
		config:           cfg,
		db:               db,
		redis:            redisClient,
		nats:             natsConn,
		analyticsService: analyticsService,
		usageService:     usageService,
		reportService:    reportService,
	}
}

// Setup initializes routes and handlers
func (s *Server) Setup() {
	s.wsHub = handler.NewWSHub(s.nats)
	wsHandler := handler.NewWSHandler(s.wsHub)

	analyticsHandler := handler.NewAnalyticsHandler(s.analyticsService, s.usageService)
	reportHandler := handler.NewReportHandler(s.reportService)

	go s.wsHub.Run()
	log.Println("[Server] WebSocket hub started")

	s.router = gin.Default()

	// CORS middleware
	s.router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// Swagger UI
	s.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	s.router.GET("/health", func(c *gin.Context) {
		health := gin.H{"status": "ok"}
		if sqlDB, err := s.db.DB(); err != nil || sqlDB.Ping() != nil {
			health["status"] = "degraded"
			health["database"] = "unreachable"
		}
		if err := s.redis.Ping(c.Request.Context()).Err(); err != nil {
			health["status"] = "degraded"
			health["redis"] = "unreachable"
		}
		if s.nats != nil && !s.nats.IsConnected() {
			health["status"] = "degraded"
			health["nats"] = "disconnected"
		}
		c.JSON(200, health)
	})

	// WebSocket routes
	s.router.GET("/ws/metrics", wsHandler.HandleMetrics)
	s.router.GET("/ws/stats", wsHandler.GetStats)

	api := s.router.Group("/api/v1")
	{
		// Analytics
		api.GET("/fleet/stats", analyticsHandler.GetFleetStats)
		api.GET("/vehicles/:id/metrics/trend", analyticsHandler.GetTrend)
		api.GET("/vehicles/:id/metrics/comparison", analyticsHandler.GetComparison)
		api.GET("/vehicles/:id/usage", analyticsHandler.GetUsage)

		// Reports
		api.POST("/reports", reportHandler.Generate)
		api.GET("/reports", reportHandler.List)
		api.GET("/reports/:id", reportHandler.Get)
		api.GET("/reports/:id/export", reportHandler.Export)
	}
}

// Run starts the HTTP server
func (s *Server) Run(addr string) error {
	log.Printf("[Server] HTTP server listening on %s", addr)
	return s.router.Run(addr)
}

// GetRouter returns the gin router for testing
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown() {
	if s.wsHub != nil {
		s.wsHub.Stop()
		log.Println("[Server] WebSocket hub stopped")
	}
}
