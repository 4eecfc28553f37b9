// main.go
package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/openai/openai-go/v3"
	"gorm.io/gorm"

	"github.com/adi29tyax/omniai-hub-backend/director"
	"github.com/adi29tyax/omniai-hub-backend/internal/platform"
	"github.com/adi29tyax/omniai-hub-backend/pipeline"
	"github.com/adi29tyax/omniai-hub-backend/projects"
	"github.com/adi29tyax/omniai-hub-backend/render"
	"github.com/adi29tyax/omniai-hub-backend/stages"
	"github.com/adi29tyax/omniai-hub-backend/storage"
	"github.com/adi29tyax/omniai-hub-backend/store"
	"github.com/adi29tyax/omniai-hub-backend/usage"
)

type Server struct {
	DB     *gorm.DB
	Redis  *redis.Client
	Router *gin.Engine
	Store  *store.Store
	Usage  *usage.Service
}

func NewServer() (*Server, error) {
	// Use the shared connection initializers
	db := platform.NewDBConnection()
	rdb := platform.NewRedisClient()

	st := store.New(db)
	if err := st.AutoMigrate(); err != nil {
		return nil, err
	}

	router := gin.Default()

	// Add CORS middleware for the frontend
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", os.Getenv("FRONTEND_URL"))
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-User-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	server := &Server{
		DB:     db,
		Redis:  rdb,
		Router: router,
		Store:  st,
		Usage:  usage.NewService(db),
	}

	// Setup routes
	server.setupRoutes()

	return server, nil
}

func (s *Server) setupRoutes() {
	// Health check (no auth required)
	s.Router.GET("/health", func(c *gin.Context) {
		sqlDB, err := s.DB.DB()
		if err != nil {
			c.JSON(500, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}

		if err := sqlDB.Ping(); err != nil {
			c.JSON(500, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}

		c.JSON(200, gin.H{
			"status":   "healthy",
			"database": "connected",
		})
	})

	s.Router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "OmniAI Auto-Director API v1"})
	})

	// Build the pipeline: stage engine, media providers, object storage,
	// and the ffmpeg driver.
	llm, err := stages.NewOpenAIGenerator(openai.ChatModelGPT4oMini)
	if err != nil {
		log.Fatal("Failed to create OpenAI client:", err)
	}
	engine := stages.NewEngine(llm, nil)
	uploader := storage.NewClient(platform.NewObjectStorage())
	driver := render.NewDriver(uploader)
	d := pipeline.NewDirector(s.Store, engine, stages.PlaceholderMedia{}, uploader, driver)

	projectHandler := projects.NewHandler(s.Store)
	directorHandler := director.NewHandler(s.Store, d, s.Redis)

	// All generation routes are gated on the caller's plan. Identity comes
	// from the gateway's X-User-ID header.
	identified := s.Router.Group("")
	identified.Use(s.Usage.Middleware(usage.KindAICall))
	{
		projectRoutes := identified.Group("/projects")
		{
			projectRoutes.POST("", projectHandler.CreateProject)
			projectRoutes.GET("", projectHandler.GetUserProjects)
			projectRoutes.GET("/:id", projectHandler.GetProject)
			projectRoutes.DELETE("/:id", projectHandler.DeleteProject)
		}

		directorRoutes := identified.Group("/director")
		{
			directorRoutes.POST("/story", directorHandler.GenerateStory)
			directorRoutes.GET("/stories/:id", directorHandler.GetStory)
			directorRoutes.POST("/scenes/:id/breakdown", directorHandler.BreakdownScene)
			directorRoutes.POST("/scenes/:id/bgm", directorHandler.GenerateBGM)
			directorRoutes.GET("/scenes/:id/assets", directorHandler.GetSceneAssets)
			directorRoutes.POST("/shots/:id/voice", directorHandler.GenerateVoice)
			directorRoutes.POST("/shots/:id/sfx", directorHandler.GenerateSFX)
			directorRoutes.GET("/render/:task_id", directorHandler.RenderStatus)

			directorRoutes.POST("/shots/:id/keyframe",
				s.Usage.Middleware(usage.KindKeyframe), directorHandler.GenerateKeyframe)
			directorRoutes.POST("/shots/:id/animation",
				s.Usage.Middleware(usage.KindAnimation), directorHandler.GenerateAnimation)
			directorRoutes.GET("/stories/:id/timeline",
				s.Usage.Middleware(usage.KindTimeline), directorHandler.CompileTimeline)
			directorRoutes.POST("/stories/:id/render",
				s.Usage.Middleware(usage.KindTimeline), directorHandler.RenderEpisode)
			directorRoutes.POST("/episode",
				s.Usage.Middleware(usage.KindEpisode), directorHandler.GenerateEpisode)
		}
	}
}

func (s *Server) Run() error {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	return s.Router.Run(":" + port)
}

func main() {
	server, err := NewServer()
	if err != nil {
		log.Fatal("Failed to create server:", err)
	}

	if err := server.Run(); err != nil {
		log.Fatal("Failed to run server:", err)
	}
}
