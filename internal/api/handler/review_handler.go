package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"timesheet/internal/dto"
	"timesheet/internal/service"
	"timesheet/pkg/response"
)

// ReviewHandler 管理员审批与导出 HTTP 处理器
type ReviewHandler struct {
	reviewSvc service.ReviewService
	exportSvc service.ExportService
}

// NewReviewHandler 创建 ReviewHandler
func NewReviewHandler(reviewSvc service.ReviewService, exportSvc service.ExportService) *ReviewHandler {
	return &ReviewHandler{reviewSvc: reviewSvc, exportSvc: exportSvc}
}

// ListTimesheets 待审批与已审批的工时表（不含未提交）
// GET /api/v1/admin/timesheets?status=&period=&employee_id=&department_id=&page=&page_size=
func (h *ReviewHandler) ListTimesheets(c *gin.Context) {
	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	var req dto.ReviewListRequest
	if !bindQuery(c, &req) {
		return
	}

	list, total, err := h.reviewSvc.List(c.Request.Context(), id, &req)
	if err != nil {
		h.handleReviewError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetTimesheet 工时表详情
// GET /api/v1/admin/timesheets/:id
func (h *ReviewHandler) GetTimesheet(c *gin.Context) {
	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	result, err := h.reviewSvc.Get(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		h.handleReviewError(c, err)
		return
	}

	response.OK(c, result)
}

// DecideWeek 整周审批
// PUT /api/v1/admin/timesheets/:id/decision/:decision
func (h *ReviewHandler) DecideWeek(c *gin.Context) {
	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	result, err := h.reviewSvc.DecideWeek(c.Request.Context(), id, c.Param("id"), c.Param("decision"))
	if err != nil {
		h.handleReviewError(c, err)
		return
	}

	response.OK(c, result)
}

// DecideDay 单日审批
// PUT /api/v1/admin/timesheets/sheets/:id/decision/:decision
func (h *ReviewHandler) DecideDay(c *gin.Context) {
	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	result, err := h.reviewSvc.DecideDay(c.Request.Context(), id, c.Param("id"), c.Param("decision"))
	if err != nil {
		h.handleReviewError(c, err)
		return
	}

	response.OK(c, result)
}

// DeleteTimesheet 管理员删除未提交的工时表
// DELETE /api/v1/admin/timesheets/:id
func (h *ReviewHandler) DeleteTimesheet(c *gin.Context) {
	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	if err := h.reviewSvc.DeleteAny(c.Request.Context(), id, c.Param("id")); err != nil {
		h.handleReviewError(c, err)
		return
	}

	response.OK(c, nil)
}

// ExportTimesheets 按审批列表的筛选条件导出 Excel
// GET /api/v1/admin/timesheets/export
func (h *ReviewHandler) ExportTimesheets(c *gin.Context) {
	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	var req dto.ReviewListRequest
	if !bindQuery(c, &req) {
		return
	}

	buf, filename, err := h.exportSvc.ExportTimesheets(c.Request.Context(), id, &req)
	if err != nil {
		h.handleReviewError(c, err)
		return
	}

	const xlsx = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, xlsx, buf.Bytes())
}

func (h *ReviewHandler) handleReviewError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTimesheetNotFound):
		response.NotFound(c, 16001, "工时表不存在")
	case errors.Is(err, service.ErrSheetNotFound):
		response.NotFound(c, 16002, "日工时不存在")
	case errors.Is(err, service.ErrInvalidDecision):
		response.BadRequest(c, 16003, "审批结果只能是 approve 或 reject")
	case errors.Is(err, service.ErrTimesheetNotSubmitted):
		response.Conflict(c, 16004, "工时表尚未提交，无法审批")
	case errors.Is(err, service.ErrInvalidPeriod):
		response.ErrorWithDetails(c, http.StatusBadRequest, 16006, "周期格式无效", err.Error())
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		handleCommonError(c, err)
	}
}
