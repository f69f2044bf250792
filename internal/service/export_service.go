package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"timesheet/internal/access"
	"timesheet/internal/dto"
	"timesheet/internal/repository"
	"timesheet/pkg/week"
)

// ── 导出模块业务错误 ──

var ErrExportGenerateFail = errors.New("生成 Excel 文件失败")

// ExportService 导出业务接口
//
// 导出内容与审批列表一致（不含未提交的工时表），筛选条件相同但不分页。
// 工作簿包含两张表：
//   - "汇总"：每张工时表一行，周一至周五工时与合计
//   - "明细"：每天一行，含工作描述与状态
type ExportService interface {
	ExportTimesheets(ctx context.Context, id access.Identity, req *dto.ReviewListRequest) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	loc    *time.Location
	now    week.Clock
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, loc *time.Location, clock week.Clock, logger *zap.Logger) ExportService {
	if loc == nil {
		loc = time.UTC
	}
	return &exportService{repo: repo, loc: loc, now: clock, logger: logger}
}

const (
	summarySheet = "汇总"
	detailSheet  = "明细"
)

func (s *exportService) ExportTimesheets(ctx context.Context, id access.Identity, req *dto.ReviewListRequest) (*bytes.Buffer, string, error) {
	if err := access.RequireCapability(id, access.CapAdmin); err != nil {
		return nil, "", err
	}
	filter, err := reviewFilter(req, s.loc)
	if err != nil {
		return nil, "", err
	}

	list, _, err := s.repo.WeekSheet.ListForReview(ctx, filter, 0, 0)
	if err != nil {
		s.logger.Error("查询导出数据失败", zap.Error(err))
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, "", ErrExportGenerateFail
	}
	if _, err := f.NewSheet(detailSheet); err != nil {
		return nil, "", ErrExportGenerateFail
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	summaryHeader := []any{"员工", "周期", "状态", "周一", "周二", "周三", "周四", "周五", "合计"}
	detailHeader := []any{"员工", "周期", "日期", "星期", "工时", "工作描述", "状态"}
	if err := writeHeader(f, summarySheet, summaryHeader, headerStyle); err != nil {
		return nil, "", ErrExportGenerateFail
	}
	if err := writeHeader(f, detailSheet, detailHeader, headerStyle); err != nil {
		return nil, "", ErrExportGenerateFail
	}

	f.SetColWidth(summarySheet, "A", "A", 22)
	f.SetColWidth(summarySheet, "B", "B", 24)
	f.SetColWidth(summarySheet, "C", "C", 14)
	f.SetColWidth(detailSheet, "A", "A", 22)
	f.SetColWidth(detailSheet, "B", "B", 24)
	f.SetColWidth(detailSheet, "F", "F", 48)

	detailRow := 2
	for i := range list {
		ws := &list[i]
		name := ws.EmployeeID
		if ws.Employee != nil {
			name = ws.Employee.FullName()
		}

		row := []any{name, ws.Period, ws.Status}
		hours := make([]any, week.Days)
		for p := range hours {
			hours[p] = 0
		}
		for _, sh := range ws.Sheets {
			if sh.Position >= 0 && sh.Position < week.Days {
				hours[sh.Position] = sh.Hours
			}
		}
		row = append(row, hours...)
		row = append(row, ws.TotalHours())
		if err := f.SetSheetRow(summarySheet, cell("A", i+2), &row); err != nil {
			s.logger.Error("写入 Excel 失败", zap.Error(err))
			return nil, "", ErrExportGenerateFail
		}

		for _, sh := range ws.Sheets {
			detail := []any{
				name,
				ws.Period,
				sh.Date.Format(week.DateLayout),
				sh.Date.Weekday().String(),
				sh.Hours,
				sh.Description,
				sh.Status,
			}
			if err := f.SetSheetRow(detailSheet, cell("A", detailRow), &detail); err != nil {
				s.logger.Error("写入 Excel 失败", zap.Error(err))
				return nil, "", ErrExportGenerateFail
			}
			detailRow++
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("timesheets_%s.xlsx", s.now().Format("20060102"))
	if req.Period != "" {
		filename = fmt.Sprintf("timesheets_%s.xlsx", sanitizePeriod(req.Period))
	}

	s.logger.Info("导出工时表", zap.Int("count", len(list)), zap.String("by", id.EmployeeID))
	return buf, filename, nil
}

// ── 辅助函数 ──

func writeHeader(f *excelize.File, sheet string, header []any, style int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	return f.SetCellStyle(sheet, "A1", last, style)
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// sanitizePeriod 周期中的 "/" 不能出现在文件名里
func sanitizePeriod(p string) string {
	return strings.ReplaceAll(p, "/", "")
}
