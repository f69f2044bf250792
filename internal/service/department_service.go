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

// DepartmentService 部门业务接口，全部操作需要管理员能力
type DepartmentService interface {
	Create(ctx context.Context, id access.Identity, req *dto.CreateDirectoryEntryRequest) (*dto.DirectoryEntryResponse, error)
	GetByID(ctx context.Context, id access.Identity, departmentID string) (*dto.DirectoryEntryResponse, error)
	List(ctx context.Context, id access.Identity) ([]dto.DirectoryEntryResponse, error)
	Update(ctx context.Context, id access.Identity, departmentID string, req *dto.UpdateDirectoryEntryRequest) (*dto.DirectoryEntryResponse, error)
	// Delete 删除部门，原属员工的部门被置空
	Delete(ctx context.Context, id access.Identity, departmentID string) error
}

type departmentService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewDepartmentService 创建 DepartmentService 实例
func NewDepartmentService(repo *repository.Repository, logger *zap.Logger) DepartmentService {
	return &departmentService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *departmentService) Create(ctx context.Context, id access.Identity, req *dto.CreateDirectoryEntryRequest) (*dto.DirectoryEntryResponse, error) {
	if err := access.RequireCapability(id, access.CapAdmin); err != nil {
		return nil, err
	}

	existing, err := s.repo.Department.GetByName(ctx, req.Name)
	if err != nil && !errors.Is(err, pkgerrors.ErrNotFound) {
		s.logger.Error("查询部门失败", zap.Error(err))
		return nil, err
	}
	if existing != nil {
		return nil, ErrDepartmentNameExists
	}

	dept := &model.Department{
		Name:        req.Name,
		Description: req.Description,
	}
	dept.CreatedBy = &id.EmployeeID
	dept.UpdatedBy = &id.EmployeeID

	if err := s.repo.Department.Create(ctx, dept); err != nil {
		if errors.Is(err, pkgerrors.ErrConstraintViolation) {
			return nil, ErrDepartmentNameExists
		}
		s.logger.Error("创建部门失败", zap.Error(err))
		return nil, err
	}

	return s.toResponse(ctx, dept), nil
}

// ────────────────────── Read ──────────────────────

func (s *departmentService) GetByID(ctx context.Context, id access.Identity, departmentID string) (*dto.DirectoryEntryResponse, error) {
	if err := access.RequireCapability(id, access.CapAdmin); err != nil {
		return nil, err
	}
	dept, err := s.get(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, dept), nil
}

func (s *departmentService) List(ctx context.Context, id access.Identity) ([]dto.DirectoryEntryResponse, error) {
	if err := access.RequireCapability(id, access.CapAdmin); err != nil {
		return nil, err
	}
	depts, err := s.repo.Department.List(ctx)
	if err != nil {
		s.logger.Error("列出部门失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.DirectoryEntryResponse, 0, len(depts))
	for i := range depts {
		result = append(result, *s.toResponse(ctx, &depts[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *departmentService) Update(ctx context.Context, id access.Identity, departmentID string, req *dto.UpdateDirectoryEntryRequest) (*dto.DirectoryEntryResponse, error) {
	if err := access.RequireCapability(id, access.CapAdmin); err != nil {
		return nil, err
	}
	dept, err := s.get(ctx, departmentID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != dept.Name {
		existing, err := s.repo.Department.GetByName(ctx, *req.Name)
		if err != nil && !errors.Is(err, pkgerrors.ErrNotFound) {
			s.logger.Error("查询部门失败", zap.Error(err))
			return nil, err
		}
		if existing != nil {
			return nil, ErrDepartmentNameExists
		}
		dept.Name = *req.Name
	}
	if req.Description != nil {
		dept.Description = *req.Description
	}
	dept.UpdatedBy = &id.EmployeeID

	if err := s.repo.Department.Update(ctx, dept); err != nil {
		if errors.Is(err, pkgerrors.ErrConstraintViolation) {
			return nil, ErrDepartmentNameExists
		}
		s.logger.Error("更新部门失败", zap.String("id", departmentID), zap.Error(err))
		return nil, err
	}

	return s.toResponse(ctx, dept), nil
}

// ────────────────────── Delete ──────────────────────

func (s *departmentService) Delete(ctx context.Context, id access.Identity, departmentID string) error {
	if err := access.RequireCapability(id, access.CapAdmin); err != nil {
		return err
	}
	if err := s.repo.Department.Delete(ctx, departmentID); err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			return ErrDepartmentNotFound
		}
		s.logger.Error("删除部门失败", zap.String("id", departmentID), zap.Error(err))
		return err
	}
	s.logger.Info("部门已删除", zap.String("id", departmentID), zap.String("by", id.EmployeeID))
	return nil
}

// ── 辅助函数 ──

func (s *departmentService) get(ctx context.Context, departmentID string) (*model.Department, error) {
	dept, err := s.repo.Department.GetByID(ctx, departmentID)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			return nil, ErrDepartmentNotFound
		}
		s.logger.Error("查询部门失败", zap.String("id", departmentID), zap.Error(err))
		return nil, err
	}
	return dept, nil
}

func (s *departmentService) toResponse(ctx context.Context, dept *model.Department) *dto.DirectoryEntryResponse {
	count, err := s.repo.Department.CountMembers(ctx, dept.DepartmentID)
	if err != nil {
		s.logger.Warn("查询部门成员数失败", zap.String("id", dept.DepartmentID), zap.Error(err))
	}
	return &dto.DirectoryEntryResponse{
		ID:          dept.DepartmentID,
		Name:        dept.Name,
		Description: dept.Description,
		MemberCount: count,
		CreatedAt:   dept.CreatedAt.Format(dto.TimeLayout),
		UpdatedAt:   dept.UpdatedAt.Format(dto.TimeLayout),
	}
}
