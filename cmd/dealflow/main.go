package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitfantasy/dealflow/internal/config"
	"github.com/bitfantasy/dealflow/internal/crm/entity"
	"github.com/bitfantasy/dealflow/internal/crm/handler"
	"github.com/bitfantasy/dealflow/internal/crm/repository"
	"github.com/bitfantasy/dealflow/internal/crm/service"
	"github.com/bitfantasy/dealflow/internal/middleware"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting dealflow service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// 自动迁移
	if err := entity.AutoMigrate(db); err != nil {
		zapLogger.Fatal("Failed to auto-migrate CRM tables", zap.Error(err))
	}
	zapLogger.Info("Database migration completed")

	// 初始化Redis
	rdb := initRedis(cfg.Redis)

	// 初始化依赖
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, rdb, cfg)
	handlers := handler.NewHandlers(services, cfg)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gzip.Gzip(gzip.DefaultCompression))
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())

	// 注册路由
	registerRoutes(router, handlers, cfg)

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	if cfg.Host == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config) {
	// 健康检查
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "dealflow"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "dealflow"})
	})

	// 版本信息
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":    "dealflow",
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	// API v1
	v1 := r.Group("/api/v1")
	{
		// 认证 (无需登录)
		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
		}

		// 需要认证的接口
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(cfg.JWT.Secret))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)

			// 用户
			users := authorized.Group("/users")
			{
				users.GET("/me", h.Auth.Me)
				users.GET("", h.User.List)
				users.POST("", h.User.Create)
				users.GET("/:id", h.User.Get)
				users.PATCH("/:id", h.User.Update)
				users.DELETE("/:id", h.User.Delete)
			}

			// 公司
			companies := authorized.Group("/companies")
			{
				companies.GET("", h.Company.List)
				companies.POST("", h.Company.Create)
				companies.GET("/:id", h.Company.Get)
				companies.PATCH("/:id", h.Company.Update)
				companies.DELETE("/:id", h.Company.Delete)
			}

			// 联系人
			contacts := authorized.Group("/contacts")
			{
				contacts.GET("", h.Contact.List)
				contacts.POST("", h.Contact.Create)
				contacts.GET("/:id", h.Contact.Get)
				contacts.PATCH("/:id", h.Contact.Update)
				contacts.DELETE("/:id", h.Contact.Delete)
			}

			// 管线阶段
			stages := authorized.Group("/stages")
			{
				stages.GET("", h.Stage.List)
				stages.POST("", h.Stage.Create)
				stages.GET("/:id", h.Stage.Get)
				stages.PATCH("/:id", h.Stage.Update)
				stages.DELETE("/:id", h.Stage.Delete)
			}

			// 交易
			deals := authorized.Group("/deals")
			{
				deals.GET("", h.Deal.List)
				deals.POST("", h.Deal.Create)
				deals.GET("/kanban", h.Deal.Kanban)
				deals.GET("/export", h.Deal.Export)
				deals.GET("/:id", h.Deal.Get)
				deals.PATCH("/:id", h.Deal.Update)
				deals.DELETE("/:id", h.Deal.Delete)
				deals.PATCH("/:id/move_stage", h.Deal.MoveStage)
			}

			// 任务
			tasks := authorized.Group("/tasks")
			{
				tasks.GET("", h.Task.List)
				tasks.POST("", h.Task.Create)
				tasks.GET("/my_tasks", h.Task.MyTasks)
				tasks.GET("/:id", h.Task.Get)
				tasks.PATCH("/:id", h.Task.Update)
				tasks.DELETE("/:id", h.Task.Delete)
			}

			// 互动记录
			interactions := authorized.Group("/interactions")
			{
				interactions.GET("", h.Interaction.List)
				interactions.POST("", h.Interaction.Create)
				interactions.GET("/:id", h.Interaction.Get)
				interactions.PATCH("/:id", h.Interaction.Update)
				interactions.DELETE("/:id", h.Interaction.Delete)
			}

			// 文档
			documents := authorized.Group("/documents")
			{
				documents.GET("", h.Document.List)
				documents.POST("/upload", h.Document.Upload)
				documents.GET("/:id", h.Document.Get)
				documents.GET("/:id/download", h.Document.Download)
				documents.DELETE("/:id", h.Document.Delete)
			}

			// 保密协议
			ndas := authorized.Group("/ndas")
			{
				ndas.GET("", h.NDA.List)
				ndas.POST("", h.NDA.Create)
				ndas.GET("/:id", h.NDA.Get)
				ndas.PATCH("/:id", h.NDA.Update)
				ndas.DELETE("/:id", h.NDA.Delete)
			}
		}
	}
}
