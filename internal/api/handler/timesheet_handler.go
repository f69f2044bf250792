package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"timesheet/internal/dto"
	"timesheet/internal/model"
	"timesheet/internal/service"
	"timesheet/pkg/response"
)

// TimesheetHandler 员工工时表 HTTP 处理器
type TimesheetHandler struct {
	timesheetSvc service.TimesheetService
}

// NewTimesheetHandler 创建 TimesheetHandler
func NewTimesheetHandler(timesheetSvc service.TimesheetService) *TimesheetHandler {
	return &TimesheetHandler{timesheetSvc: timesheetSvc}
}

// CurrentWeek 本周日期与已有工时表，用于预填创建表单
// GET /api/v1/employee/timesheets/current
func (h *TimesheetHandler) CurrentWeek(c *gin.Context) {
	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	result, err := h.timesheetSvc.CurrentWeek(c.Request.Context(), id)
	if err != nil {
		h.handleTimesheetError(c, err)
		return
	}

	response.OK(c, result)
}

// ListTimesheets 我的工时表（最近若干周）
// GET /api/v1/employee/timesheets
func (h *TimesheetHandler) ListTimesheets(c *gin.Context) {
	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	list, err := h.timesheetSvc.ListMine(c.Request.Context(), id)
	if err != nil {
		h.handleTimesheetError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// CreateTimesheet 创建本周工时表
// POST /api/v1/employee/timesheets
func (h *TimesheetHandler) CreateTimesheet(c *gin.Context) {
	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	var req dto.CreateTimesheetRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.timesheetSvc.Create(c.Request.Context(), id, &req)
	if err != nil {
		h.handleTimesheetError(c, err)
		return
	}

	response.Created(c, result)
}

// GetTimesheet 工时表详情
// GET /api/v1/employee/timesheets/:id
func (h *TimesheetHandler) GetTimesheet(c *gin.Context) {
	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	result, err := h.timesheetSvc.GetMine(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		h.handleTimesheetError(c, err)
		return
	}

	response.OK(c, result)
}

// EditTimesheet 编辑工时表，可同时提交
// PUT /api/v1/employee/timesheets/:id
func (h *TimesheetHandler) EditTimesheet(c *gin.Context) {
	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	var req dto.EditTimesheetRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.timesheetSvc.Edit(c.Request.Context(), id, c.Param("id"), &req)
	if err != nil {
		h.handleTimesheetError(c, err)
		return
	}

	response.OK(c, result)
}

// SubmitTimesheet 提交工时表
// PUT /api/v1/employee/timesheets/:id/submit
func (h *TimesheetHandler) SubmitTimesheet(c *gin.Context) {
	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	result, err := h.timesheetSvc.Submit(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		h.handleTimesheetError(c, err)
		return
	}

	response.OK(c, result)
}

// DeleteTimesheet 删除未提交的工时表
// DELETE /api/v1/employee/timesheets/:id
func (h *TimesheetHandler) DeleteTimesheet(c *gin.Context) {
	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	if err := h.timesheetSvc.Delete(c.Request.Context(), id, c.Param("id")); err != nil {
		h.handleTimesheetError(c, err)
		return
	}

	response.OK(c, nil)
}

// ExportCalendar 导出为 iCalendar 文件
// GET /api/v1/employee/timesheets/:id/calendar
func (h *TimesheetHandler) ExportCalendar(c *gin.Context) {
	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	data, filename, err := h.timesheetSvc.Calendar(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		h.handleTimesheetError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", data)
}

func (h *TimesheetHandler) handleTimesheetError(c *gin.Context, err error) {
	var exists *service.TimesheetExistsError
	switch {
	case errors.As(err, &exists):
		next := "edit"
		if exists.Status == model.StatusSubmitted {
			next = "view"
		}
		response.ErrorWithData(c, http.StatusConflict, 15001, "本周工时表已存在", dto.ExistingTimesheetResponse{
			TimesheetID: exists.TimesheetID,
			Status:      exists.Status,
			Next:        next,
		})
	case errors.Is(err, service.ErrTimesheetNotFound):
		response.NotFound(c, 15002, "工时表不存在")
	case errors.Is(err, service.ErrSheetNotFound):
		response.NotFound(c, 15003, "日工时不存在")
	case errors.Is(err, service.ErrTimesheetNotDeletable):
		response.Conflict(c, 15004, "只有未提交的工时表可以删除")
	case errors.Is(err, service.ErrTimesheetFinalized):
		response.Conflict(c, 15005, "工时表已审批，不能再修改")
	case errors.Is(err, service.ErrInvalidEntries):
		response.ErrorWithDetails(c, http.StatusBadRequest, 15006, "工时明细无效", err.Error())
	default:
		handleCommonError(c, err)
	}
}
