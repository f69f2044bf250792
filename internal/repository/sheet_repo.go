package repository

import (
	"context"

	"gorm.io/gorm"

	"timesheet/internal/model"
	pkgerrors "timesheet/pkg/errors"
)

// SheetRepository 日工时数据访问接口
type SheetRepository interface {
	GetByID(ctx context.Context, id string) (*model.Sheet, error)
	ListByWeekSheet(ctx context.Context, weekSheetID string) ([]model.Sheet, error)
	UpdateEntry(ctx context.Context, id string, hours int, description, updatedBy string) error
	UpdateStatus(ctx context.Context, id, status, updatedBy string) error
	UpdateStatusByWeekSheet(ctx context.Context, weekSheetID, status, updatedBy string) error
}

type sheetRepo struct {
	db *gorm.DB
}

// NewSheetRepo 创建 SheetRepository 实例
func NewSheetRepo(db *gorm.DB) SheetRepository {
	return &sheetRepo{db: db}
}

func (r *sheetRepo) GetByID(ctx context.Context, id string) (*model.Sheet, error) {
	var s model.Sheet
	if err := r.db.WithContext(ctx).Where("sheet_id = ?", id).First(&s).Error; err != nil {
		return nil, pkgerrors.Translate(err)
	}
	return &s, nil
}

func (r *sheetRepo) ListByWeekSheet(ctx context.Context, weekSheetID string) ([]model.Sheet, error) {
	var list []model.Sheet
	err := r.db.WithContext(ctx).
		Where("week_sheet_id = ?", weekSheetID).
		Order("position ASC").
		Find(&list).Error
	return list, pkgerrors.Translate(err)
}

func (r *sheetRepo) UpdateEntry(ctx context.Context, id string, hours int, description, updatedBy string) error {
	return r.update(ctx, id, map[string]any{
		"hours":       hours,
		"description": description,
		"updated_by":  updatedBy,
	})
}

func (r *sheetRepo) UpdateStatus(ctx context.Context, id, status, updatedBy string) error {
	return r.update(ctx, id, map[string]any{"status": status, "updated_by": updatedBy})
}

func (r *sheetRepo) update(ctx context.Context, id string, fields map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&model.Sheet{}).
		Where("sheet_id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return pkgerrors.Translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return pkgerrors.Translate(gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *sheetRepo) UpdateStatusByWeekSheet(ctx context.Context, weekSheetID, status, updatedBy string) error {
	return pkgerrors.Translate(r.db.WithContext(ctx).
		Model(&model.Sheet{}).
		Where("week_sheet_id = ?", weekSheetID).
		Updates(map[string]any{"status": status, "updated_by": updatedBy}).Error)
}
