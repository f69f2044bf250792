package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"timesheet/internal/dto"
	"timesheet/internal/service"
	"timesheet/pkg/response"
)

// EmployeeHandler 员工管理 HTTP 处理器
type EmployeeHandler struct {
	employeeSvc service.EmployeeService
}

// NewEmployeeHandler 创建 EmployeeHandler
func NewEmployeeHandler(employeeSvc service.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{employeeSvc: employeeSvc}
}

// ListEmployees 员工列表（分页）
// GET /api/v1/admin/employees
func (h *EmployeeHandler) ListEmployees(c *gin.Context) {
	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	var page dto.PaginationRequest
	if !bindQuery(c, &page) {
		return
	}

	list, total, err := h.employeeSvc.List(c.Request.Context(), id, &page)
	if err != nil {
		h.handleEmployeeError(c, err)
		return
	}

	response.OKPage(c, list, total, page.GetPage(), page.GetPageSize())
}

// RegisterEmployee 登记员工
// POST /api/v1/admin/employees
func (h *EmployeeHandler) RegisterEmployee(c *gin.Context) {
	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	var req dto.RegisterEmployeeRequest
	if !bindJSON(c, &req) {
		return
	}

	emp, err := h.employeeSvc.Register(c.Request.Context(), id, &req)
	if err != nil {
		h.handleEmployeeError(c, err)
		return
	}

	response.Created(c, emp)
}

// GetEmployee 员工详情
// GET /api/v1/admin/employees/:id
func (h *EmployeeHandler) GetEmployee(c *gin.Context) {
	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	emp, err := h.employeeSvc.GetByID(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		h.handleEmployeeError(c, err)
		return
	}

	response.OK(c, emp)
}

// AssignEmployee 分配部门与岗位
// PUT /api/v1/admin/employees/:id/assign
func (h *EmployeeHandler) AssignEmployee(c *gin.Context) {
	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	var req dto.AssignEmployeeRequest
	if !bindJSON(c, &req) {
		return
	}

	emp, err := h.employeeSvc.Assign(c.Request.Context(), id, c.Param("id"), &req)
	if err != nil {
		h.handleEmployeeError(c, err)
		return
	}

	response.OK(c, emp)
}

func (h *EmployeeHandler) handleEmployeeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEmployeeNotFound):
		response.NotFound(c, 12001, "员工不存在")
	case errors.Is(err, service.ErrEmailExists):
		response.Conflict(c, 12002, "邮箱已被使用")
	case errors.Is(err, service.ErrUsernameExists):
		response.Conflict(c, 12003, "用户名已被使用")
	case errors.Is(err, service.ErrAdminAssignment):
		response.Forbidden(c, 12004, "管理员不能分配部门或岗位")
	case errors.Is(err, service.ErrDepartmentNotFound):
		response.NotFound(c, 12005, "部门不存在")
	case errors.Is(err, service.ErrRoleNotFound):
		response.NotFound(c, 12006, "岗位不存在")
	default:
		handleCommonError(c, err)
	}
}
