package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"timesheet/config"
	"timesheet/internal/model"
	"timesheet/internal/repository"
	"timesheet/internal/service"
	"timesheet/pkg/database"
	applogger "timesheet/pkg/logger"
	"timesheet/pkg/week"
)

// app 各子命令共享的基础依赖
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
}

// setup 加载配置与日志；withDB 为 true 时同时连接数据库
func setup(configPath string, withDB bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}

	a := &app{cfg: cfg, logger: logger}
	if !withDB {
		return a, nil
	}

	db, err := database.NewDB(&cfg.Database, applogger.GormLevel(cfg.Log.Level), logger)
	if err != nil {
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}
	a.db = db
	return a, nil
}

func (a *app) close() {
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	_ = a.logger.Sync()
}

func (a *app) migrate() error {
	return database.RunMigrations(a.db, a.cfg.Database.Driver, a.logger, model.All()...)
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "timesheet",
		Short:         "Weekly employee timesheet service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径（默认 ./config/config.yaml）")

	rootCmd.AddCommand(
		newServeCmd(&configPath),
		newMigrateCmd(&configPath),
		newCreateAdminCmd(&configPath),
		newWeekCmd(&configPath),
	)
	return rootCmd
}

// newMigrateCmd 执行或回滚数据库迁移
func newMigrateCmd(configPath *string) *cobra.Command {
	var down int

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations (or roll back with --down)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(*configPath, true)
			if err != nil {
				return err
			}
			defer a.close()

			if down > 0 {
				if a.cfg.Database.Driver != "postgres" {
					return errors.New("仅 postgres 支持回滚迁移")
				}
				return database.RollbackMigrations(a.db, down, a.logger)
			}
			return a.migrate()
		},
	}
	cmd.Flags().IntVar(&down, "down", 0, "回滚的迁移步数")
	return cmd
}

// newCreateAdminCmd 创建管理员账号，已存在时跳过
func newCreateAdminCmd(configPath *string) *cobra.Command {
	var email, username, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create the administrator account if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(*configPath, true)
			if err != nil {
				return err
			}
			defer a.close()

			if email == "" {
				email = a.cfg.Bootstrap.AdminEmail
			}
			if username == "" {
				username = a.cfg.Bootstrap.AdminUsername
			}
			if password == "" {
				password = a.cfg.Bootstrap.AdminPassword
			}
			if len(password) < 8 {
				return errors.New("管理员密码长度不能少于 8 字符（--password 或 bootstrap.admin_password）")
			}

			if err := a.migrate(); err != nil {
				return err
			}

			employees := service.NewEmployeeService(repository.NewRepository(a.db), a.logger)
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			created, err := employees.EnsureAdmin(ctx, email, username, password)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "管理员 %s 已创建\n", username)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "管理员 %s 已存在，跳过\n", username)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "管理员邮箱")
	cmd.Flags().StringVar(&username, "username", "", "管理员用户名")
	cmd.Flags().StringVar(&password, "password", "", "管理员密码")
	return cmd
}

// newWeekCmd 打印当前周期与工作日
func newWeekCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "week",
		Short: "Print the current reporting period",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(*configPath, false)
			if err != nil {
				return err
			}
			defer a.close()

			w := week.Of(week.SystemClock(a.cfg.Timesheet.Location())())
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, w.Period())
			for _, d := range w.Days() {
				fmt.Fprintf(out, "  %s %s\n", d.Label, d.Weekday)
			}
			return nil
		},
	}
}
