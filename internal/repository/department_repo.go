package repository

import (
	"context"

	"gorm.io/gorm"

	"timesheet/internal/model"
	pkgerrors "timesheet/pkg/errors"
)

// DepartmentRepository 部门数据访问接口
type DepartmentRepository interface {
	Create(ctx context.Context, dept *model.Department) error
	GetByID(ctx context.Context, id string) (*model.Department, error)
	GetByName(ctx context.Context, name string) (*model.Department, error)
	List(ctx context.Context) ([]model.Department, error)
	Update(ctx context.Context, dept *model.Department) error
	Delete(ctx context.Context, id string) error
	CountMembers(ctx context.Context, departmentID string) (int64, error)
}

// departmentRepo DepartmentRepository 的 GORM 实现
type departmentRepo struct {
	db *gorm.DB
}

// NewDepartmentRepo 创建 DepartmentRepository 实例
func NewDepartmentRepo(db *gorm.DB) DepartmentRepository {
	return &departmentRepo{db: db}
}

func (r *departmentRepo) Create(ctx context.Context, dept *model.Department) error {
	return pkgerrors.Translate(r.db.WithContext(ctx).Create(dept).Error)
}

func (r *departmentRepo) GetByID(ctx context.Context, id string) (*model.Department, error) {
	var dept model.Department
	err := r.db.WithContext(ctx).
		Where("department_id = ?", id).
		First(&dept).Error
	if err != nil {
		return nil, pkgerrors.Translate(err)
	}
	return &dept, nil
}

func (r *departmentRepo) GetByName(ctx context.Context, name string) (*model.Department, error) {
	var dept model.Department
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&dept).Error
	if err != nil {
		return nil, pkgerrors.Translate(err)
	}
	return &dept, nil
}

func (r *departmentRepo) List(ctx context.Context) ([]model.Department, error) {
	var depts []model.Department
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&depts).Error
	return depts, pkgerrors.Translate(err)
}

func (r *departmentRepo) Update(ctx context.Context, dept *model.Department) error {
	return pkgerrors.Translate(r.db.WithContext(ctx).Save(dept).Error)
}

// Delete 物理删除；引用该部门的员工由外键置空
func (r *departmentRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 不依赖数据库级联，AutoMigrate 建出的 SQLite 表同样适用
		if err := tx.Model(&model.Employee{}).
			Where("department_id = ?", id).
			Update("department_id", nil).Error; err != nil {
			return pkgerrors.Translate(err)
		}
		res := tx.Where("department_id = ?", id).Delete(&model.Department{})
		if res.Error != nil {
			return pkgerrors.Translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return pkgerrors.Translate(gorm.ErrRecordNotFound)
		}
		return nil
	})
}

func (r *departmentRepo) CountMembers(ctx context.Context, departmentID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Employee{}).
		Where("department_id = ?", departmentID).
		Count(&count).Error
	return count, pkgerrors.Translate(err)
}
