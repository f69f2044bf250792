package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"timesheet/internal/dto"
	"timesheet/internal/service"
	"timesheet/pkg/response"
)

// RoleHandler 岗位模块 HTTP 处理器
type RoleHandler struct {
	roleSvc service.RoleService
}

// NewRoleHandler 创建 RoleHandler
func NewRoleHandler(roleSvc service.RoleService) *RoleHandler {
	return &RoleHandler{roleSvc: roleSvc}
}

// ListRoles 获取岗位列表
// GET /api/v1/admin/roles
func (h *RoleHandler) ListRoles(c *gin.Context) {
	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	roles, err := h.roleSvc.List(c.Request.Context(), id)
	if err != nil {
		h.handleRoleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": roles})
}

// GetRole 获取岗位详情
// GET /api/v1/admin/roles/:id
func (h *RoleHandler) GetRole(c *gin.Context) {
	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	role, err := h.roleSvc.GetByID(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		h.handleRoleError(c, err)
		return
	}

	response.OK(c, role)
}

// CreateRole 创建岗位
// POST /api/v1/admin/roles
func (h *RoleHandler) CreateRole(c *gin.Context) {
	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	var req dto.CreateDirectoryEntryRequest
	if !bindJSON(c, &req) {
		return
	}

	role, err := h.roleSvc.Create(c.Request.Context(), id, &req)
	if err != nil {
		h.handleRoleError(c, err)
		return
	}

	response.Created(c, role)
}

// UpdateRole 更新岗位
// PUT /api/v1/admin/roles/:id
func (h *RoleHandler) UpdateRole(c *gin.Context) {
	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	var req dto.UpdateDirectoryEntryRequest
	if !bindJSON(c, &req) {
		return
	}

	role, err := h.roleSvc.Update(c.Request.Context(), id, c.Param("id"), &req)
	if err != nil {
		h.handleRoleError(c, err)
		return
	}

	response.OK(c, role)
}

// DeleteRole 删除岗位，成员的岗位被置空
// DELETE /api/v1/admin/roles/:id
func (h *RoleHandler) DeleteRole(c *gin.Context) {
	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	if err := h.roleSvc.Delete(c.Request.Context(), id, c.Param("id")); err != nil {
		h.handleRoleError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *RoleHandler) handleRoleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRoleNotFound):
		response.NotFound(c, 14001, "岗位不存在")
	case errors.Is(err, service.ErrRoleNameExists):
		response.Conflict(c, 14002, "岗位名称已存在")
	default:
		handleCommonError(c, err)
	}
}
