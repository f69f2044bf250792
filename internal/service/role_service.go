package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"timesheet/internal/access"
	"timesheet/internal/dto"
	"timesheet/internal/model"
	"timesheet/internal/repository"
	pkgerrors "timesheet/pkg/errors"
)

// RoleService 岗位业务接口，全部操作需要管理员能力
type RoleService interface {
	Create(ctx context.Context, id access.Identity, req *dto.CreateDirectoryEntryRequest) (*dto.DirectoryEntryResponse, error)
	GetByID(ctx context.Context, id access.Identity, roleID string) (*dto.DirectoryEntryResponse, error)
	List(ctx context.Context, id access.Identity) ([]dto.DirectoryEntryResponse, error)
	Update(ctx context.Context, id access.Identity, roleID string, req *dto.UpdateDirectoryEntryRequest) (*dto.DirectoryEntryResponse, error)
	// Delete 删除岗位，原属员工的岗位被置空
	Delete(ctx context.Context, id access.Identity, roleID string) error
}

type roleService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewRoleService 创建 RoleService 实例
func NewRoleService(repo *repository.Repository, logger *zap.Logger) RoleService {
	return &roleService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *roleService) Create(ctx context.Context, id access.Identity, req *dto.CreateDirectoryEntryRequest) (*dto.DirectoryEntryResponse, error) {
	if err := access.RequireCapability(id, access.CapAdmin); err != nil {
		return nil, err
	}

	existing, err := s.repo.Role.GetByName(ctx, req.Name)
	if err != nil && !errors.Is(err, pkgerrors.ErrNotFound) {
		s.logger.Error("查询岗位失败", zap.Error(err))
		return nil, err
	}
	if existing != nil {
		return nil, ErrRoleNameExists
	}

	role := &model.Role{
		Name:        req.Name,
		Description: req.Description,
	}
	role.CreatedBy = &id.EmployeeID
	role.UpdatedBy = &id.EmployeeID

	if err := s.repo.Role.Create(ctx, role); err != nil {
		if errors.Is(err, pkgerrors.ErrConstraintViolation) {
			return nil, ErrRoleNameExists
		}
		s.logger.Error("创建岗位失败", zap.Error(err))
		return nil, err
	}

	return s.toResponse(ctx, role), nil
}

// ────────────────────── Read ──────────────────────

func (s *roleService) GetByID(ctx context.Context, id access.Identity, roleID string) (*dto.DirectoryEntryResponse, error) {
	if err := access.RequireCapability(id, access.CapAdmin); err != nil {
		return nil, err
	}
	role, err := s.get(ctx, roleID)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, role), nil
}

func (s *roleService) List(ctx context.Context, id access.Identity) ([]dto.DirectoryEntryResponse, error) {
	if err := access.RequireCapability(id, access.CapAdmin); err != nil {
		return nil, err
	}
	roles, err := s.repo.Role.List(ctx)
	if err != nil {
		s.logger.Error("列出岗位失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.DirectoryEntryResponse, 0, len(roles))
	for i := range roles {
		result = append(result, *s.toResponse(ctx, &roles[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *roleService) Update(ctx context.Context, id access.Identity, roleID string, req *dto.UpdateDirectoryEntryRequest) (*dto.DirectoryEntryResponse, error) {
	if err := access.RequireCapability(id, access.CapAdmin); err != nil {
		return nil, err
	}
	role, err := s.get(ctx, roleID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != role.Name {
		existing, err := s.repo.Role.GetByName(ctx, *req.Name)
		if err != nil && !errors.Is(err, pkgerrors.ErrNotFound) {
			s.logger.Error("查询岗位失败", zap.Error(err))
			return nil, err
		}
		if existing != nil {
			return nil, ErrRoleNameExists
		}
		role.Name = *req.Name
	}
	if req.Description != nil {
		role.Description = *req.Description
	}
	role.UpdatedBy = &id.EmployeeID

	if err := s.repo.Role.Update(ctx, role); err != nil {
		if errors.Is(err, pkgerrors.ErrConstraintViolation) {
			return nil, ErrRoleNameExists
		}
		s.logger.Error("更新岗位失败", zap.String("id", roleID), zap.Error(err))
		return nil, err
	}

	return s.toResponse(ctx, role), nil
}

// ────────────────────── Delete ──────────────────────

func (s *roleService) Delete(ctx context.Context, id access.Identity, roleID string) error {
	if err := access.RequireCapability(id, access.CapAdmin); err != nil {
		return err
	}
	if err := s.repo.Role.Delete(ctx, roleID); err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			return ErrRoleNotFound
		}
		s.logger.Error("删除岗位失败", zap.String("id", roleID), zap.Error(err))
		return err
	}
	s.logger.Info("岗位已删除", zap.String("id", roleID), zap.String("by", id.EmployeeID))
	return nil
}

// ── 辅助函数 ──

func (s *roleService) get(ctx context.Context, roleID string) (*model.Role, error) {
	role, err := s.repo.Role.GetByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			return nil, ErrRoleNotFound
		}
		s.logger.Error("查询岗位失败", zap.String("id", roleID), zap.Error(err))
		return nil, err
	}
	return role, nil
}

func (s *roleService) toResponse(ctx context.Context, role *model.Role) *dto.DirectoryEntryResponse {
	count, err := s.repo.Role.CountMembers(ctx, role.RoleID)
	if err != nil {
		s.logger.Warn("查询岗位成员数失败", zap.String("id", role.RoleID), zap.Error(err))
	}
	return &dto.DirectoryEntryResponse{
		ID:          role.RoleID,
		Name:        role.Name,
		Description: role.Description,
		MemberCount: count,
		CreatedAt:   role.CreatedAt.Format(dto.TimeLayout),
		UpdatedAt:   role.UpdatedAt.Format(dto.TimeLayout),
	}
}
