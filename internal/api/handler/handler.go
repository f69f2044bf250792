package handler

import "timesheet/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth       *AuthHandler
	Timesheet  *TimesheetHandler
	Review     *ReviewHandler
	Department *DepartmentHandler
	Role       *RoleHandler
	Employee   *EmployeeHandler
	System     *SystemHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, system *SystemHandler) *Handler {
	return &Handler{
		Auth:       NewAuthHandler(svc.Auth),
		Timesheet:  NewTimesheetHandler(svc.Timesheet),
		Review:     NewReviewHandler(svc.Review, svc.Export),
		Department: NewDepartmentHandler(svc.Department),
		Role:       NewRoleHandler(svc.Role),
		Employee:   NewEmployeeHandler(svc.Employee),
		System:     system,
	}
}
