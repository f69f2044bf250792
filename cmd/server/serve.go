package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"timesheet/internal/api/handler"
	"timesheet/internal/api/router"
	"timesheet/internal/repository"
	"timesheet/internal/service"
	"timesheet/pkg/jwt"
	"timesheet/pkg/mail"
	"timesheet/pkg/redis"
	"timesheet/pkg/week"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(*configPath, true)
			if err != nil {
				return err
			}
			defer a.close()
			return a.serve()
		},
	}
}

func (a *app) serve() error {
	cfg, logger := a.cfg, a.logger

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("log_level", cfg.Log.Level),
	)

	// 1. 数据库迁移
	if err := a.migrate(); err != nil {
		return fmt.Errorf("数据库迁移失败: %w", err)
	}

	// 2. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，Token 黑名单与共享限流将不可用", zap.Error(err))
		rdb = nil
	}

	// 3. 依赖注入: Repository → Service → Handler
	jwtMgr := jwt.NewManager(&cfg.Auth)
	repo := repository.NewRepository(a.db)
	clock := week.SystemClock(cfg.Timesheet.Location())

	deps := service.Deps{
		Config: cfg,
		Repo:   repo,
		JWT:    jwtMgr,
		Mailer: mail.NewSender(&cfg.Mail, logger),
		Clock:  clock,
		Logger: logger,
	}
	var cache handler.Pinger
	if rdb != nil {
		deps.Blacklist = rdb
		cache = rdb
	}
	svc := service.NewService(deps)

	// 4. 预置管理员
	if cfg.Bootstrap.AdminPassword != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		created, err := svc.Employee.EnsureAdmin(ctx, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminUsername, cfg.Bootstrap.AdminPassword)
		cancel()
		if err != nil {
			return fmt.Errorf("预置管理员失败: %w", err)
		}
		if created {
			logger.Info("已预置管理员账号", zap.String("username", cfg.Bootstrap.AdminUsername))
		}
	}

	h := handler.NewHandler(svc, handler.NewSystemHandler(repo, cache, clock))
	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)

	// 5. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 6. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.Error("HTTP 服务器异常", zap.Error(err))
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
	return nil
}
