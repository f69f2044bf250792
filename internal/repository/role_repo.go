package repository

import (
	"context"

	"gorm.io/gorm"

	"timesheet/internal/model"
	pkgerrors "timesheet/pkg/errors"
)

// RoleRepository 岗位数据访问接口
type RoleRepository interface {
	Create(ctx context.Context, role *model.Role) error
	GetByID(ctx context.Context, id string) (*model.Role, error)
	GetByName(ctx context.Context, name string) (*model.Role, error)
	List(ctx context.Context) ([]model.Role, error)
	Update(ctx context.Context, role *model.Role) error
	Delete(ctx context.Context, id string) error
	CountMembers(ctx context.Context, roleID string) (int64, error)
}

type roleRepo struct {
	db *gorm.DB
}

// NewRoleRepo 创建 RoleRepository 实例
func NewRoleRepo(db *gorm.DB) RoleRepository {
	return &roleRepo{db: db}
}

func (r *roleRepo) Create(ctx context.Context, role *model.Role) error {
	return pkgerrors.Translate(r.db.WithContext(ctx).Create(role).Error)
}

func (r *roleRepo) GetByID(ctx context.Context, id string) (*model.Role, error) {
	var role model.Role
	if err := r.db.WithContext(ctx).Where("role_id = ?", id).First(&role).Error; err != nil {
		return nil, pkgerrors.Translate(err)
	}
	return &role, nil
}

func (r *roleRepo) GetByName(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, pkgerrors.Translate(err)
	}
	return &role, nil
}

func (r *roleRepo) List(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	err := r.db.WithContext(ctx).Order("name ASC").Find(&roles).Error
	return roles, pkgerrors.Translate(err)
}

func (r *roleRepo) Update(ctx context.Context, role *model.Role) error {
	return pkgerrors.Translate(r.db.WithContext(ctx).Save(role).Error)
}

func (r *roleRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Employee{}).
			Where("role_id = ?", id).
			Update("role_id", nil).Error; err != nil {
			return pkgerrors.Translate(err)
		}
		res := tx.Where("role_id = ?", id).Delete(&model.Role{})
		if res.Error != nil {
			return pkgerrors.Translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return pkgerrors.Translate(gorm.ErrRecordNotFound)
		}
		return nil
	})
}

func (r *roleRepo) CountMembers(ctx context.Context, roleID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Employee{}).
		Where("role_id = ?", roleID).
		Count(&count).Error
	return count, pkgerrors.Translate(err)
}
