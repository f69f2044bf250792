package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"timesheet/config"
	"timesheet/internal/access"
	"timesheet/internal/dto"
	"timesheet/internal/model"
	"timesheet/internal/repository"
	pkgerrors "timesheet/pkg/errors"
	"timesheet/pkg/week"
)

// TimesheetService 员工侧工时表业务接口
//
// 状态流转：
//   - Not Submitted：可创建、编辑、删除
//   - Submitted：不可删除，仍可编辑，等待审批
//   - Approved / Rejected：只能由管理员设置，员工侧不可再修改
type TimesheetService interface {
	// CurrentWeek 本周日期及已存在的工时表（如有）
	CurrentWeek(ctx context.Context, id access.Identity) (*dto.CurrentWeekResponse, error)
	Create(ctx context.Context, id access.Identity, req *dto.CreateTimesheetRequest) (*dto.TimesheetResponse, error)
	Edit(ctx context.Context, id access.Identity, timesheetID string, req *dto.EditTimesheetRequest) (*dto.TimesheetResponse, error)
	Submit(ctx context.Context, id access.Identity, timesheetID string) (*dto.TimesheetResponse, error)
	Delete(ctx context.Context, id access.Identity, timesheetID string) error
	ListMine(ctx context.Context, id access.Identity) ([]dto.TimesheetResponse, error)
	GetMine(ctx context.Context, id access.Identity, timesheetID string) (*dto.TimesheetResponse, error)
	// Calendar 导出为 iCalendar，每天一个全天事件
	Calendar(ctx context.Context, id access.Identity, timesheetID string) ([]byte, string, error)
}

type timesheetService struct {
	repo         *repository.Repository
	clock        week.Clock
	historyLimit int
	maxDayHours  int
	logger       *zap.Logger
}

// NewTimesheetService 创建 TimesheetService 实例
func NewTimesheetService(
	repo *repository.Repository,
	cfg *config.TimesheetConfig,
	clock week.Clock,
	logger *zap.Logger,
) TimesheetService {
	limit := cfg.HistoryLimit
	if limit <= 0 {
		limit = 52
	}
	maxHours := cfg.MaxDayHours
	if maxHours <= 0 {
		maxHours = 24
	}
	return &timesheetService{
		repo:         repo,
		clock:        clock,
		historyLimit: limit,
		maxDayHours:  maxHours,
		logger:       logger,
	}
}

// ────────────────────── CurrentWeek ──────────────────────

func (s *timesheetService) CurrentWeek(ctx context.Context, id access.Identity) (*dto.CurrentWeekResponse, error) {
	w := week.Of(s.clock())
	resp := &dto.CurrentWeekResponse{Period: w.Period(), Days: w.Days()}

	existing, err := s.repo.WeekSheet.GetByEmployeeAndPeriod(ctx, id.EmployeeID, resp.Period)
	switch {
	case err == nil:
		resp.TimesheetID = existing.WeekSheetID
		resp.Status = existing.Status
	case !errors.Is(err, pkgerrors.ErrNotFound):
		s.logger.Error("查询本周工时表失败", zap.String("employee_id", id.EmployeeID), zap.Error(err))
		return nil, err
	}
	return resp, nil
}

// ────────────────────── Create ──────────────────────

func (s *timesheetService) Create(ctx context.Context, id access.Identity, req *dto.CreateTimesheetRequest) (*dto.TimesheetResponse, error) {
	if len(req.Entries) != week.Days {
		return nil, invalidEntries("需要恰好 %d 天的工时，实际 %d", week.Days, len(req.Entries))
	}
	for i := range req.Entries {
		if err := s.validateEntry(&req.Entries[i]); err != nil {
			return nil, err
		}
	}

	w := week.Of(s.clock())
	period := w.Period()

	// 每人每周只允许一张工时表
	existing, err := s.repo.WeekSheet.GetByEmployeeAndPeriod(ctx, id.EmployeeID, period)
	if err == nil {
		return nil, &TimesheetExistsError{TimesheetID: existing.WeekSheetID, Status: existing.Status}
	}
	if !errors.Is(err, pkgerrors.ErrNotFound) {
		s.logger.Error("查询本周工时表失败", zap.Error(err))
		return nil, err
	}

	status := model.StatusNotSubmitted
	if req.Submit {
		status = model.StatusSubmitted
	}

	ws := &model.WeekSheet{
		EmployeeID: id.EmployeeID,
		Period:     period,
		Status:     status,
	}
	ws.CreatedBy = &id.EmployeeID
	ws.UpdatedBy = &id.EmployeeID

	// 日期由服务端计算，请求中的 position 在创建时不生效
	for i, day := range w.Days() {
		entry := req.Entries[i]
		sheet := model.Sheet{
			Position:    i,
			Date:        day.Date,
			Hours:       entry.Hours,
			Description: strings.TrimSpace(entry.Description),
			Status:      status,
		}
		sheet.CreatedBy = &id.EmployeeID
		sheet.UpdatedBy = &id.EmployeeID
		ws.Sheets = append(ws.Sheets, sheet)
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		return tx.WeekSheet.Create(ctx, ws)
	})
	if err != nil {
		if errors.Is(err, pkgerrors.ErrConstraintViolation) {
			// 并发创建：唯一索引兜底
			if dup, lookupErr := s.repo.WeekSheet.GetByEmployeeAndPeriod(ctx, id.EmployeeID, period); lookupErr == nil {
				return nil, &TimesheetExistsError{TimesheetID: dup.WeekSheetID, Status: dup.Status}
			}
		}
		s.logger.Error("创建工时表失败", zap.String("employee_id", id.EmployeeID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("工时表已创建",
		zap.String("week_sheet_id", ws.WeekSheetID),
		zap.String("period", period),
		zap.String("status", status),
	)

	resp := toTimesheetResponse(ws)
	return &resp, nil
}

// ────────────────────── Edit ──────────────────────

func (s *timesheetService) Edit(ctx context.Context, id access.Identity, timesheetID string, req *dto.EditTimesheetRequest) (*dto.TimesheetResponse, error) {
	ws, err := s.loadOwned(ctx, id, timesheetID)
	if err != nil {
		return nil, err
	}
	if isFinal(ws.Status) {
		return nil, ErrTimesheetFinalized
	}

	byPosition := make(map[int]*model.Sheet, len(ws.Sheets))
	for i := range ws.Sheets {
		byPosition[ws.Sheets[i].Position] = &ws.Sheets[i]
	}

	seen := make(map[int]bool, len(req.Entries))
	for i := range req.Entries {
		e := &req.Entries[i]
		if err := s.validateEntry(e); err != nil {
			return nil, err
		}
		if seen[e.Position] {
			return nil, invalidEntries("第 %d 天重复提交", e.Position)
		}
		seen[e.Position] = true
		if byPosition[e.Position] == nil {
			return nil, ErrSheetNotFound
		}
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		for _, e := range req.Entries {
			sheet := byPosition[e.Position]
			if err := tx.Sheet.UpdateEntry(ctx, sheet.SheetID, e.Hours, strings.TrimSpace(e.Description), id.EmployeeID); err != nil {
				return err
			}
		}
		if req.Submit {
			return submitAll(ctx, tx, ws.WeekSheetID, id.EmployeeID)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("编辑工时表失败", zap.String("week_sheet_id", timesheetID), zap.Error(err))
		return nil, err
	}

	return s.reload(ctx, timesheetID)
}

// ────────────────────── Submit ──────────────────────

func (s *timesheetService) Submit(ctx context.Context, id access.Identity, timesheetID string) (*dto.TimesheetResponse, error) {
	ws, err := s.loadOwned(ctx, id, timesheetID)
	if err != nil {
		return nil, err
	}
	if isFinal(ws.Status) {
		return nil, ErrTimesheetFinalized
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		return submitAll(ctx, tx, ws.WeekSheetID, id.EmployeeID)
	})
	if err != nil {
		s.logger.Error("提交工时表失败", zap.String("week_sheet_id", timesheetID), zap.Error(err))
		return nil, err
	}

	return s.reload(ctx, timesheetID)
}

func submitAll(ctx context.Context, tx *repository.Repository, weekSheetID, by string) error {
	if err := tx.WeekSheet.UpdateStatus(ctx, weekSheetID, model.StatusSubmitted, by); err != nil {
		return err
	}
	return tx.Sheet.UpdateStatusByWeekSheet(ctx, weekSheetID, model.StatusSubmitted, by)
}

// ────────────────────── Delete ──────────────────────

func (s *timesheetService) Delete(ctx context.Context, id access.Identity, timesheetID string) error {
	ws, err := s.loadOwned(ctx, id, timesheetID)
	if err != nil {
		return err
	}
	if ws.Status != model.StatusNotSubmitted {
		return ErrTimesheetNotDeletable
	}

	if err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		return tx.WeekSheet.Delete(ctx, timesheetID)
	}); err != nil {
		s.logger.Error("删除工时表失败", zap.String("week_sheet_id", timesheetID), zap.Error(err))
		return err
	}

	s.logger.Info("工时表已删除", zap.String("week_sheet_id", timesheetID), zap.String("by", id.EmployeeID))
	return nil
}

// ────────────────────── Read ──────────────────────

func (s *timesheetService) ListMine(ctx context.Context, id access.Identity) ([]dto.TimesheetResponse, error) {
	list, err := s.repo.WeekSheet.ListByEmployee(ctx, id.EmployeeID, s.historyLimit)
	if err != nil {
		s.logger.Error("查询工时表列表失败", zap.String("employee_id", id.EmployeeID), zap.Error(err))
		return nil, err
	}
	return toTimesheetResponses(list), nil
}

func (s *timesheetService) GetMine(ctx context.Context, id access.Identity, timesheetID string) (*dto.TimesheetResponse, error) {
	ws, err := s.loadOwned(ctx, id, timesheetID)
	if err != nil {
		return nil, err
	}
	resp := toTimesheetResponse(ws)
	return &resp, nil
}

func (s *timesheetService) Calendar(ctx context.Context, id access.Identity, timesheetID string) ([]byte, string, error) {
	ws, err := s.loadOwned(ctx, id, timesheetID)
	if err != nil {
		return nil, "", err
	}
	return buildCalendar(ws), calendarFilename(ws), nil
}

// ────────────────────── helpers ──────────────────────

// loadOwned 先判存在再判所有权：不存在 404，非本人 403
func (s *timesheetService) loadOwned(ctx context.Context, id access.Identity, timesheetID string) (*model.WeekSheet, error) {
	ws, err := s.repo.WeekSheet.GetByID(ctx, timesheetID)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			return nil, ErrTimesheetNotFound
		}
		s.logger.Error("查询工时表失败", zap.String("week_sheet_id", timesheetID), zap.Error(err))
		return nil, err
	}
	if err := access.RequireOwner(id, ws.EmployeeID); err != nil {
		s.logger.Warn("越权访问工时表",
			zap.String("week_sheet_id", timesheetID),
			zap.String("caller", id.EmployeeID),
		)
		return nil, err
	}
	return ws, nil
}

func (s *timesheetService) reload(ctx context.Context, timesheetID string) (*dto.TimesheetResponse, error) {
	ws, err := s.repo.WeekSheet.GetByID(ctx, timesheetID)
	if err != nil {
		s.logger.Error("重新加载工时表失败", zap.String("week_sheet_id", timesheetID), zap.Error(err))
		return nil, err
	}
	resp := toTimesheetResponse(ws)
	return &resp, nil
}

func (s *timesheetService) validateEntry(e *dto.SheetEntryRequest) error {
	if e.Position < 0 || e.Position >= week.Days {
		return invalidEntries("日期序号 %d 超出范围", e.Position)
	}
	if e.Hours <= 0 || e.Hours > s.maxDayHours {
		return invalidEntries("工时必须在 1-%d 之间", s.maxDayHours)
	}
	if strings.TrimSpace(e.Description) == "" {
		return invalidEntries("工作描述不能为空")
	}
	return nil
}

func isFinal(status string) bool {
	return status == model.StatusApproved || status == model.StatusRejected
}
