package repository

import (
	"context"

	"gorm.io/gorm"

	"timesheet/internal/model"
	pkgerrors "timesheet/pkg/errors"
)

// ReviewFilter 审批列表筛选条件，空值表示不过滤
type ReviewFilter struct {
	Status       string
	Period       string
	EmployeeID   string
	DepartmentID string
}

// WeekSheetRepository 周工时表数据访问接口
type WeekSheetRepository interface {
	// Create 连同 Sheets 一并写入
	Create(ctx context.Context, ws *model.WeekSheet) error
	GetByID(ctx context.Context, id string) (*model.WeekSheet, error)
	GetByEmployeeAndPeriod(ctx context.Context, employeeID, period string) (*model.WeekSheet, error)
	ListByEmployee(ctx context.Context, employeeID string, limit int) ([]model.WeekSheet, error)
	// ListForReview 只返回已提交过的工时表；limit <= 0 时不分页
	ListForReview(ctx context.Context, filter ReviewFilter, offset, limit int) ([]model.WeekSheet, int64, error)
	UpdateStatus(ctx context.Context, id, status, updatedBy string) error
	// Delete 删除工时表及其全部日工时
	Delete(ctx context.Context, id string) error
}

type weekSheetRepo struct {
	db *gorm.DB
}

// NewWeekSheetRepo 创建 WeekSheetRepository 实例
func NewWeekSheetRepo(db *gorm.DB) WeekSheetRepository {
	return &weekSheetRepo{db: db}
}

func orderedSheets(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (r *weekSheetRepo) Create(ctx context.Context, ws *model.WeekSheet) error {
	return pkgerrors.Translate(r.db.WithContext(ctx).Omit("Employee").Create(ws).Error)
}

func (r *weekSheetRepo) GetByID(ctx context.Context, id string) (*model.WeekSheet, error) {
	var ws model.WeekSheet
	err := r.db.WithContext(ctx).
		Preload("Sheets", orderedSheets).
		Preload("Employee").
		Where("week_sheet_id = ?", id).
		First(&ws).Error
	if err != nil {
		return nil, pkgerrors.Translate(err)
	}
	return &ws, nil
}

func (r *weekSheetRepo) GetByEmployeeAndPeriod(ctx context.Context, employeeID, period string) (*model.WeekSheet, error) {
	var ws model.WeekSheet
	err := r.db.WithContext(ctx).
		Preload("Sheets", orderedSheets).
		Where("employee_id = ? AND period = ?", employeeID, period).
		First(&ws).Error
	if err != nil {
		return nil, pkgerrors.Translate(err)
	}
	return &ws, nil
}

func (r *weekSheetRepo) ListByEmployee(ctx context.Context, employeeID string, limit int) ([]model.WeekSheet, error) {
	var list []model.WeekSheet
	db := r.db.WithContext(ctx).
		Preload("Sheets", orderedSheets).
		Where("employee_id = ?", employeeID).
		Order("created_at DESC")
	if limit > 0 {
		db = db.Limit(limit)
	}
	err := db.Find(&list).Error
	return list, pkgerrors.Translate(err)
}

func (r *weekSheetRepo) ListForReview(ctx context.Context, filter ReviewFilter, offset, limit int) ([]model.WeekSheet, int64, error) {
	var list []model.WeekSheet
	var total int64

	db := r.db.WithContext(ctx).
		Model(&model.WeekSheet{}).
		Where("week_sheets.status <> ?", model.StatusNotSubmitted)
	if filter.Status != "" {
		db = db.Where("week_sheets.status = ?", filter.Status)
	}
	if filter.Period != "" {
		db = db.Where("week_sheets.period = ?", filter.Period)
	}
	if filter.EmployeeID != "" {
		db = db.Where("week_sheets.employee_id = ?", filter.EmployeeID)
	}
	if filter.DepartmentID != "" {
		db = db.Where("week_sheets.employee_id IN (?)",
			r.db.Model(&model.Employee{}).Select("employee_id").Where("department_id = ?", filter.DepartmentID))
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, pkgerrors.Translate(err)
	}

	q := db.Preload("Sheets", orderedSheets).
		Preload("Employee").
		Order("week_sheets.created_at DESC")
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, 0, pkgerrors.Translate(err)
	}

	return list, total, nil
}

func (r *weekSheetRepo) UpdateStatus(ctx context.Context, id, status, updatedBy string) error {
	res := r.db.WithContext(ctx).
		Model(&model.WeekSheet{}).
		Where("week_sheet_id = ?", id).
		Updates(map[string]any{"status": status, "updated_by": updatedBy})
	if res.Error != nil {
		return pkgerrors.Translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return pkgerrors.Translate(gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *weekSheetRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("week_sheet_id = ?", id).Delete(&model.Sheet{}).Error; err != nil {
			return pkgerrors.Translate(err)
		}
		res := tx.Where("week_sheet_id = ?", id).Delete(&model.WeekSheet{})
		if res.Error != nil {
			return pkgerrors.Translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return pkgerrors.Translate(gorm.ErrRecordNotFound)
		}
		return nil
	})
}
