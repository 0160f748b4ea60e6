package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"sudooom.im.hub/internal/api"
	"sudooom.im.hub/internal/auth"
	"sudooom.im.hub/internal/channel"
	"sudooom.im.hub/internal/chat"
	"sudooom.im.hub/internal/config"
	"sudooom.im.hub/internal/connection"
	"sudooom.im.hub/internal/group"
	"sudooom.im.hub/internal/health"
	"sudooom.im.hub/internal/hub"
	"sudooom.im.hub/internal/notify"
	"sudooom.im.hub/internal/presence"
	"sudooom.im.hub/internal/receipt"
	imRedis "sudooom.im.hub/internal/redis"
	"sudooom.im.hub/internal/repository"
	"sudooom.im.hub/internal/server"
	"sudooom.im.hub/internal/typing"
	"sudooom.im.hub/internal/workerpool"
)

func main() {
	// 初始化日志
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// 加载配置
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 连接数据库
	db, err := connectDatabase(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL", "host", cfg.Database.Host)

	// 连接 Redis
	redisClient := imRedis.NewClient(cfg.Redis, cfg.App.NodeID)
	defer redisClient.Close()
	if err := redisClient.Ping(ctx); err != nil {
		logger.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to Redis", "addr", cfg.Redis.Addr)

	// 仓库层
	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	receiptRepo := repository.NewReadReceiptRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// 核心组件
	registry := connection.NewManager()
	channels := channel.NewManager()
	gate := channel.NewGate(groupRepo)
	pusher := connection.NewPusher(registry, logger)
	pool := workerpool.New(8, 1024, logger)
	defer pool.Shutdown()

	// 服务层
	jwtService := auth.NewService(cfg.Auth.TokenSecret, cfg.Auth.TokenExpire)
	notifyService := notify.NewService(notificationRepo, logger)
	presenceTracker := presence.NewTracker(userRepo, groupRepo, redisClient, registry, pusher, pool, logger)
	typingRelay := typing.NewRelay(channels, pusher, pool, logger)
	receiptTracker := receipt.NewTracker(messageRepo, receiptRepo, pusher, logger)
	chatService := chat.NewService(messageRepo, userRepo, groupRepo, gate, channels, pusher, notifyService, logger)
	groupService := group.NewService(groupRepo, userRepo, gate, channels, registry, logger)

	// 会话处理器 + WebTransport 服务器
	sessionHandler := hub.NewHandler(
		registry, channels,
		jwtService, redisClient, userRepo, groupRepo,
		gate, presenceTracker, chatService, receiptTracker, typingRelay,
		pusher, pool, logger,
	)
	wtServer := server.New(cfg, sessionHandler, logger)

	// REST 服务
	router := api.SetupRouter(
		cfg,
		jwtService,
		api.NewGroupHandler(groupService),
		api.NewMessageHandler(chatService, receiptTracker),
		api.NewNotificationHandler(notifyService),
		api.NewUserHandler(userRepo),
	)
	httpServer := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: router,
	}
	go func() {
		logger.Info("HTTP API server started", "addr", cfg.HTTP.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP API server failed", "error", err)
		}
	}()

	// 健康检查
	healthChecker := health.NewChecker(db, redisClient, registry)
	go startHealthServer(cfg.HTTP.HealthAddr, healthChecker, logger)

	// WebTransport 接入
	go func() {
		if err := wtServer.Start(ctx); err != nil {
			logger.Error("WebTransport server failed", "error", err)
			cancel()
		}
	}()

	logger.Info("Hub service started", "name", cfg.App.Name, "node_id", cfg.App.NodeID)

	// 优雅退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	wtServer.Shutdown()
	logger.Info("Hub service stopped")
}

// startHealthServer 启动健康检查 HTTP 服务
func startHealthServer(addr string, healthChecker *health.Checker, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/health", healthChecker)
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if healthChecker.IsHealthy(r.Context()) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("Not Ready"))
		}
	})

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	logger.Info("Health check server started", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Health check server failed", "error", err)
	}
}

// connectDatabase 连接 PostgreSQL
func connectDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Name,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = 10 * time.Minute

	return pgxpool.NewWithConfig(ctx, poolConfig)
}
