package service

import (
	"go.uber.org/zap"

	"timesheet/config"
	"timesheet/internal/repository"
	"timesheet/pkg/jwt"
	"timesheet/pkg/mail"
	"timesheet/pkg/week"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth       AuthService
	Timesheet  TimesheetService
	Review     ReviewService
	Export     ExportService
	Department DepartmentService
	Role       RoleService
	Employee   EmployeeService
}

// Deps Service 层的外部依赖
type Deps struct {
	Config    *config.Config
	Repo      *repository.Repository
	JWT       *jwt.Manager
	Blacklist TokenBlacklist // 可为 nil
	Mailer    mail.Sender
	Clock     week.Clock
	Logger    *zap.Logger
}

// NewService 创建 Service 聚合
func NewService(d Deps) *Service {
	loc := d.Config.Timesheet.Location()
	clock := d.Clock
	if clock == nil {
		clock = week.SystemClock(loc)
	}
	return &Service{
		Auth:       NewAuthService(d.Repo, d.JWT, d.Blacklist, d.Logger),
		Timesheet:  NewTimesheetService(d.Repo, &d.Config.Timesheet, clock, d.Logger),
		Review:     NewReviewService(d.Repo, d.Mailer, loc, d.Logger),
		Export:     NewExportService(d.Repo, loc, clock, d.Logger),
		Department: NewDepartmentService(d.Repo, d.Logger),
		Role:       NewRoleService(d.Repo, d.Logger),
		Employee:   NewEmployeeService(d.Repo, d.Logger),
	}
}
