package repository

import (
	"context"

	"gorm.io/gorm"

	"timesheet/internal/model"
	pkgerrors "timesheet/pkg/errors"
)

// EmployeeRepository 员工数据访问接口
type EmployeeRepository interface {
	Create(ctx context.Context, emp *model.Employee) error
	GetByID(ctx context.Context, id string) (*model.Employee, error)
	// GetByLogin 按用户名或邮箱查找
	GetByLogin(ctx context.Context, login string) (*model.Employee, error)
	List(ctx context.Context, offset, limit int) ([]model.Employee, int64, error)
	UpdateAssignment(ctx context.Context, id string, departmentID, roleID *string, updatedBy string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

type employeeRepo struct {
	db *gorm.DB
}

// NewEmployeeRepo 创建 EmployeeRepository 实例
func NewEmployeeRepo(db *gorm.DB) EmployeeRepository {
	return &employeeRepo{db: db}
}

func (r *employeeRepo) Create(ctx context.Context, emp *model.Employee) error {
	return pkgerrors.Translate(r.db.WithContext(ctx).Omit("Department", "Role").Create(emp).Error)
}

func (r *employeeRepo) GetByID(ctx context.Context, id string) (*model.Employee, error) {
	var emp model.Employee
	err := r.db.WithContext(ctx).
		Preload("Department").
		Preload("Role").
		Where("employee_id = ?", id).
		First(&emp).Error
	if err != nil {
		return nil, pkgerrors.Translate(err)
	}
	return &emp, nil
}

func (r *employeeRepo) GetByLogin(ctx context.Context, login string) (*model.Employee, error) {
	var emp model.Employee
	err := r.db.WithContext(ctx).
		Where("username = ? OR email = ?", login, login).
		First(&emp).Error
	if err != nil {
		return nil, pkgerrors.Translate(err)
	}
	return &emp, nil
}

func (r *employeeRepo) List(ctx context.Context, offset, limit int) ([]model.Employee, int64, error) {
	var emps []model.Employee
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Employee{})

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, pkgerrors.Translate(err)
	}

	if err := db.Preload("Department").
		Preload("Role").
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&emps).Error; err != nil {
		return nil, 0, pkgerrors.Translate(err)
	}

	return emps, total, nil
}

func (r *employeeRepo) UpdateAssignment(ctx context.Context, id string, departmentID, roleID *string, updatedBy string) error {
	res := r.db.WithContext(ctx).
		Model(&model.Employee{}).
		Where("employee_id = ?", id).
		Updates(map[string]any{
			"department_id": departmentID,
			"role_id":       roleID,
			"updated_by":    updatedBy,
		})
	if res.Error != nil {
		return pkgerrors.Translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return pkgerrors.Translate(gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *employeeRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res := r.db.WithContext(ctx).
		Model(&model.Employee{}).
		Where("employee_id = ?", id).
		Update("password_hash", passwordHash)
	if res.Error != nil {
		return pkgerrors.Translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return pkgerrors.Translate(gorm.ErrRecordNotFound)
	}
	return nil
}
