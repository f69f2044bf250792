package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	"go.uber.org/zap"

	"timesheet/internal/access"
	"timesheet/internal/dto"
	"timesheet/internal/model"
	"timesheet/internal/repository"
	pkgerrors "timesheet/pkg/errors"
	"timesheet/pkg/mail"
	"timesheet/pkg/week"
)

// ErrTimesheetNotSubmitted 未提交的工时表不能审批
var ErrTimesheetNotSubmitted = pkgerrors.New(pkgerrors.ErrConstraintViolation, "工时表尚未提交，无法审批")

// decisions 审批动作到目标状态的映射
var decisions = map[string]string{
	"approve": model.StatusApproved,
	"reject":  model.StatusRejected,
}

// ParseDecision 解析审批动作
func ParseDecision(decision string) (string, error) {
	status, ok := decisions[decision]
	if !ok {
		return "", ErrInvalidDecision
	}
	return status, nil
}

// ReviewService 管理员审批业务接口
//
// 周级审批统一设置整周与五天的状态；日级审批只在五天全部通过时把整周置为 Approved，
// 驳回某一天不会改变整周状态。
type ReviewService interface {
	List(ctx context.Context, id access.Identity, req *dto.ReviewListRequest) ([]dto.TimesheetResponse, int64, error)
	Get(ctx context.Context, id access.Identity, timesheetID string) (*dto.TimesheetResponse, error)
	DecideWeek(ctx context.Context, id access.Identity, timesheetID, decision string) (*dto.TimesheetResponse, error)
	DecideDay(ctx context.Context, id access.Identity, sheetID, decision string) (*dto.TimesheetResponse, error)
	// DeleteAny 删除任意状态的工时表
	DeleteAny(ctx context.Context, id access.Identity, timesheetID string) error
}

type reviewService struct {
	repo   *repository.Repository
	mailer mail.Sender
	loc    *time.Location
	logger *zap.Logger
}

// NewReviewService 创建 ReviewService 实例
func NewReviewService(repo *repository.Repository, mailer mail.Sender, loc *time.Location, logger *zap.Logger) ReviewService {
	if loc == nil {
		loc = time.UTC
	}
	return &reviewService{repo: repo, mailer: mailer, loc: loc, logger: logger}
}

// ────────────────────── List / Get ──────────────────────

func (s *reviewService) List(ctx context.Context, id access.Identity, req *dto.ReviewListRequest) ([]dto.TimesheetResponse, int64, error) {
	if err := access.RequireCapability(id, access.CapAdmin); err != nil {
		return nil, 0, err
	}
	filter, err := reviewFilter(req, s.loc)
	if err != nil {
		return nil, 0, err
	}

	list, total, err := s.repo.WeekSheet.ListForReview(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询待审批工时表失败", zap.Error(err))
		return nil, 0, err
	}
	return toTimesheetResponses(list), total, nil
}

func (s *reviewService) Get(ctx context.Context, id access.Identity, timesheetID string) (*dto.TimesheetResponse, error) {
	if err := access.RequireCapability(id, access.CapAdmin); err != nil {
		return nil, err
	}
	ws, err := s.load(ctx, timesheetID)
	if err != nil {
		return nil, err
	}
	resp := toTimesheetResponse(ws)
	return &resp, nil
}

// ────────────────────── DecideWeek ──────────────────────

func (s *reviewService) DecideWeek(ctx context.Context, id access.Identity, timesheetID, decision string) (*dto.TimesheetResponse, error) {
	if err := access.RequireCapability(id, access.CapAdmin); err != nil {
		return nil, err
	}
	status, err := ParseDecision(decision)
	if err != nil {
		return nil, err
	}

	ws, err := s.load(ctx, timesheetID)
	if err != nil {
		return nil, err
	}
	if ws.Status == model.StatusNotSubmitted {
		return nil, ErrTimesheetNotSubmitted
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.WeekSheet.UpdateStatus(ctx, timesheetID, status, id.EmployeeID); err != nil {
			return err
		}
		return tx.Sheet.UpdateStatusByWeekSheet(ctx, timesheetID, status, id.EmployeeID)
	})
	if err != nil {
		s.logger.Error("审批工时表失败", zap.String("week_sheet_id", timesheetID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("工时表已审批",
		zap.String("week_sheet_id", timesheetID),
		zap.String("status", status),
		zap.String("by", id.EmployeeID),
	)

	return s.afterDecision(ctx, timesheetID, ws.Status)
}

// ────────────────────── DecideDay ──────────────────────

func (s *reviewService) DecideDay(ctx context.Context, id access.Identity, sheetID, decision string) (*dto.TimesheetResponse, error) {
	if err := access.RequireCapability(id, access.CapAdmin); err != nil {
		return nil, err
	}
	status, err := ParseDecision(decision)
	if err != nil {
		return nil, err
	}

	sheet, err := s.repo.Sheet.GetByID(ctx, sheetID)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			return nil, ErrSheetNotFound
		}
		s.logger.Error("查询日工时失败", zap.String("sheet_id", sheetID), zap.Error(err))
		return nil, err
	}
	ws, err := s.load(ctx, sheet.WeekSheetID)
	if err != nil {
		return nil, err
	}
	if ws.Status == model.StatusNotSubmitted {
		return nil, ErrTimesheetNotSubmitted
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Sheet.UpdateStatus(ctx, sheetID, status, id.EmployeeID); err != nil {
			return err
		}
		siblings, err := tx.Sheet.ListByWeekSheet(ctx, sheet.WeekSheetID)
		if err != nil {
			return err
		}
		parent := model.WeekSheet{Sheets: siblings}
		if parent.AllSheetsApproved() {
			return tx.WeekSheet.UpdateStatus(ctx, sheet.WeekSheetID, model.StatusApproved, id.EmployeeID)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("审批日工时失败", zap.String("sheet_id", sheetID), zap.Error(err))
		return nil, err
	}

	return s.afterDecision(ctx, sheet.WeekSheetID, ws.Status)
}

// afterDecision 重新加载工时表；整周状态发生变化时通知员工
func (s *reviewService) afterDecision(ctx context.Context, timesheetID, previousStatus string) (*dto.TimesheetResponse, error) {
	ws, err := s.load(ctx, timesheetID)
	if err != nil {
		return nil, err
	}
	if ws.Status != previousStatus {
		s.notify(ctx, ws)
	}
	resp := toTimesheetResponse(ws)
	return &resp, nil
}

// notify 发送失败只记录日志，不影响已提交的审批结果
func (s *reviewService) notify(ctx context.Context, ws *model.WeekSheet) {
	if s.mailer == nil || ws.Employee == nil || ws.Employee.Email == "" {
		return
	}
	msg := mail.Message{
		To:      []string{ws.Employee.Email},
		Subject: fmt.Sprintf("Timesheet %s: %s", ws.Period, ws.Status),
		HTML: fmt.Sprintf(
			"<p>%s,</p><p>Your timesheet for <b>%s</b> is now <b>%s</b> (%d hours).</p>",
			html.EscapeString(ws.Employee.FullName()), html.EscapeString(ws.Period), ws.Status, ws.TotalHours(),
		),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Warn("发送审批通知失败", zap.String("week_sheet_id", ws.WeekSheetID), zap.Error(err))
	}
}

// ────────────────────── DeleteAny ──────────────────────

func (s *reviewService) DeleteAny(ctx context.Context, id access.Identity, timesheetID string) error {
	if err := access.RequireCapability(id, access.CapAdmin); err != nil {
		return err
	}
	ws, err := s.load(ctx, timesheetID)
	if err != nil {
		return err
	}

	if err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		return tx.WeekSheet.Delete(ctx, timesheetID)
	}); err != nil {
		s.logger.Error("删除工时表失败", zap.String("week_sheet_id", timesheetID), zap.Error(err))
		return err
	}

	s.logger.Info("管理员删除工时表",
		zap.String("week_sheet_id", timesheetID),
		zap.String("status", ws.Status),
		zap.String("by", id.EmployeeID),
	)
	return nil
}

// ────────────────────── helpers ──────────────────────

func (s *reviewService) load(ctx context.Context, timesheetID string) (*model.WeekSheet, error) {
	ws, err := s.repo.WeekSheet.GetByID(ctx, timesheetID)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			return nil, ErrTimesheetNotFound
		}
		s.logger.Error("查询工时表失败", zap.String("week_sheet_id", timesheetID), zap.Error(err))
		return nil, err
	}
	return ws, nil
}

func reviewFilter(req *dto.ReviewListRequest, loc *time.Location) (repository.ReviewFilter, error) {
	if req.Status != "" && (req.Status == model.StatusNotSubmitted || !model.ValidStatus(req.Status)) {
		return repository.ReviewFilter{}, fmt.Errorf("%w: 状态 %q 不可筛选", pkgerrors.ErrValidation, req.Status)
	}
	if req.Period != "" {
		if _, err := week.ParsePeriod(req.Period, loc); err != nil {
			return repository.ReviewFilter{}, fmt.Errorf("%w: %v", ErrInvalidPeriod, err)
		}
	}
	return repository.ReviewFilter{
		Status:       req.Status,
		Period:       req.Period,
		EmployeeID:   req.EmployeeID,
		DepartmentID: req.DepartmentID,
	}, nil
}
