package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"unicode"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/safepost/safepost/internal/auth"
	"github.com/safepost/safepost/internal/config"
	"github.com/safepost/safepost/internal/likes"
	"github.com/safepost/safepost/internal/models"
	"github.com/safepost/safepost/internal/posts"
	"github.com/safepost/safepost/internal/uploads"
)

// Server represents the HTTP server
type Server struct {
	router         *gin.Engine
	db             *gorm.DB
	config         *config.Config
	logger         zerolog.Logger
	validator      *validator.Validate
	asynqClient    *asynq.Client
	postsService   *posts.Service
	likesService   *likes.Service
	uploadsService *uploads.Service
	version        string
}

// New creates a new server instance
func New(cfg *config.Config, zlog zerolog.Logger, version string) (*Server, error) {
	// Initialize database with production settings
	db, err := initDatabase(cfg, zlog)
	if err != nil {
		return nil, err
	}

	// Run database migrations
	if err := models.AutoMigrate(db); err != nil {
		return nil, err
	}

	// Initialize JWT authentication. Prefer the configured secret; otherwise
	// use the persisted one, generating it on first startup
	secret, err := resolveJWTSecret(db, cfg)
	if err != nil {
		return nil, err
	}
	auth.InitializeJWT(secret)

	// Initialize validator
	validate := validator.New()

	// Register custom validators
	validate.RegisterValidation("strongpw", func(fl validator.FieldLevel) bool {
		// Require at least one upper, one lower and one digit
		var upper, lower, digit bool
		for _, char := range fl.Field().String() {
			switch {
			case unicode.IsUpper(char):
				upper = true
			case unicode.IsLower(char):
				lower = true
			case unicode.IsDigit(char):
				digit = true
			}
		}
		return upper && lower && digit
	})

	// Initialize Asynq client for enqueueing tasks
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr: cfg.Redis.Address,
	})

	// Create server
	server := &Server{
		db:             db,
		config:         cfg,
		logger:         zlog,
		validator:      validate,
		asynqClient:    asynqClient,
		postsService:   posts.NewService(db, zlog),
		likesService:   likes.NewService(db, zlog),
		uploadsService: uploads.NewService(db, cfg.Uploads.Dir, zlog),
		version:        version,
	}

	// Setup router
	server.setupRouter()

	return server, nil
}

// resolveJWTSecret returns the signing secret, persisting a generated one in
// the settings singleton when neither env nor database provides it
func resolveJWTSecret(db *gorm.DB, cfg *config.Config) (string, error) {
	if cfg.Auth.JWTSecret != "" {
		return cfg.Auth.JWTSecret, nil
	}

	var setting models.Setting
	err := db.First(&setting).Error
	if err == nil {
		return setting.JWTSecret, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("failed to load settings: %w", err)
	}

	// First startup: generate 64 hex characters (32 bytes of randomness)
	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return "", fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	setting = models.Setting{JWTSecret: hex.EncodeToString(secretBytes)}
	if err := db.Create(&setting).Error; err != nil {
		return "", fmt.Errorf("failed to persist settings: %w", err)
	}
	return setting.JWTSecret, nil
}

// initDatabase initializes the database connection with production settings
func initDatabase(cfg *config.Config, zlog zerolog.Logger) (*gorm.DB, error) {
	const (
		maxOpenConns    = 8    // Reduced for SQLite efficiency
		maxIdleConns    = 4    // Reduced proportionally
		connMaxLifetime = 300  // 5 minutes
		busyTimeout     = 5000 // 5 seconds
	)

	// Open database connection
	db, err := gorm.Open(sqlite.Open(cfg.Database.URL), &gorm.Config{
		Logger: gormlogger.New(
			stdlog.New(os.Stdout, "\r\n", stdlog.LstdFlags),
			gormlogger.Config{
				LogLevel:                  gormlogger.Error,
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             200 * time.Millisecond,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Get underlying sql.DB to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool settings
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(connMaxLifetime) * time.Second)

	// Test the connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Apply SQLite pragmas directly. WAL mode must be set first for optimal
	// concurrency
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout),
		"PRAGMA foreign_keys=1",
		"PRAGMA temp_store=2",
	}

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			zlog.Warn().Str("pragma", pragma).Err(err).Msg("Failed to apply pragma")
		}
	}

	return db, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	// Set Gin mode based on environment
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()
	s.router.MaxMultipartMemory = uploads.MaxImageSize

	// Add middleware
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	// CORS middleware
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint (no auth required)
	s.router.GET("/health", s.healthCheck)

	api := s.router.Group("/api/v1")

	// Public auth endpoints (no auth required)
	api.POST("/auth/login", s.login)
	api.POST("/auth/register", s.register)

	// Public read endpoints
	api.GET("/posts", s.listPosts)
	api.GET("/posts/drafts", JWTAuthMiddleware(s.db, s.logger), s.listDrafts)
	api.GET("/posts/:id", s.getPost)
	api.GET("/posts/:id/likes", OptionalAuthMiddleware(s.db, s.logger), s.getLikeStatus)
	api.GET("/categories", s.listCategories)
	api.GET("/tags", s.listTags)
	api.GET("/users/:id/profile", s.getPublicProfile)
	api.GET("/files/covers/:filename", s.serveFile(models.UploadKindCover))
	api.GET("/files/avatars/:filename", s.serveFile(models.UploadKindAvatar))

	// Authenticated API routes (JWT required)
	authed := api.Group("")
	authed.Use(JWTAuthMiddleware(s.db, s.logger))
	{
		// Auth endpoints
		authed.POST("/auth/logout", s.logout)
		authed.GET("/auth/profile", s.getProfile)

		// Profiles
		authed.PUT("/users/profile", s.updateProfile)

		// Posts
		authed.POST("/posts", s.createPost)
		authed.PUT("/posts/:id", s.updatePost)
		authed.DELETE("/posts/:id", s.deletePost)

		// Likes
		authed.POST("/posts/:id/likes", s.toggleLike)

		// Tags (creation is open to any author)
		authed.POST("/tags", s.createTags)

		// Files
		authed.POST("/files/covers", s.uploadFile(models.UploadKindCover))
		authed.DELETE("/files/covers/:filename", s.deleteFile(models.UploadKindCover))
		authed.POST("/files/avatars", s.uploadFile(models.UploadKindAvatar))
		authed.DELETE("/files/avatars/:filename", s.deleteFile(models.UploadKindAvatar))

		// Admin-only curation
		admin := authed.Group("")
		admin.Use(AdminOnlyMiddleware(s.logger))
		{
			admin.POST("/categories", s.createCategory)
			admin.PUT("/categories/:id", s.updateCategory)
			admin.DELETE("/categories/:id", s.deleteCategory)
			admin.DELETE("/tags/:id", s.deleteTag)
		}
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "safepost-api",
	})
}

// GetDB returns the database connection for use by workers
func (s *Server) GetDB() *gorm.DB {
	return s.db
}

// Router returns the configured gin engine (used by handler tests)
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	port := ":8080"

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Create HTTP server with production timeouts
	srv := &http.Server{
		Addr:              port,
		Handler:           s.router,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		ReadHeaderTimeout: 30 * time.Second,
		IdleTimeout:       300 * time.Second,
	}

	// Start server in goroutine
	go func() {
		s.logger.Info().Str("port", port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")

	// Close Asynq client
	if err := s.asynqClient.Close(); err != nil {
		s.logger.Warn().Err(err).Msg("Error closing Asynq client")
	}

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	// Close database connection to flush WAL writes
	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Error closing database")
		}
	}

	s.logger.Info().Msg("Server shutdown complete")
	return nil
}
