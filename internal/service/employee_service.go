package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"timesheet/internal/access"
	"timesheet/internal/dto"
	"timesheet/internal/model"
	"timesheet/internal/repository"
	pkgerrors "timesheet/pkg/errors"
)

// EmployeeService 员工管理业务接口
type EmployeeService interface {
	Register(ctx context.Context, id access.Identity, req *dto.RegisterEmployeeRequest) (*dto.EmployeeResponse, error)
	List(ctx context.Context, id access.Identity, req *dto.PaginationRequest) ([]dto.EmployeeResponse, int64, error)
	GetByID(ctx context.Context, id access.Identity, employeeID string) (*dto.EmployeeResponse, error)
	// Assign 分配部门与岗位；管理员账号不可分配
	Assign(ctx context.Context, id access.Identity, employeeID string, req *dto.AssignEmployeeRequest) (*dto.EmployeeResponse, error)
	// EnsureAdmin 启动时预置管理员，已存在同邮箱或用户名的账号时跳过
	EnsureAdmin(ctx context.Context, email, username, password string) (created bool, err error)
}

type employeeService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewEmployeeService 创建 EmployeeService 实例
func NewEmployeeService(repo *repository.Repository, logger *zap.Logger) EmployeeService {
	return &employeeService{repo: repo, logger: logger}
}

// ────────────────────── Register ──────────────────────

func (s *employeeService) Register(ctx context.Context, id access.Identity, req *dto.RegisterEmployeeRequest) (*dto.EmployeeResponse, error) {
	if err := access.RequireCapability(id, access.CapAdmin); err != nil {
		return nil, err
	}

	emp := &model.Employee{
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Username:  strings.TrimSpace(req.Username),
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
	}
	emp.CreatedBy = &id.EmployeeID
	emp.UpdatedBy = &id.EmployeeID

	if err := s.create(ctx, emp, req.Password); err != nil {
		return nil, err
	}

	s.logger.Info("员工已登记", zap.String("employee_id", emp.EmployeeID), zap.String("by", id.EmployeeID))
	resp := toEmployeeResponse(emp)
	return &resp, nil
}

// create 校验唯一性、哈希密码并写入
func (s *employeeService) create(ctx context.Context, emp *model.Employee, password string) error {
	if err := s.checkUnique(ctx, emp.Email, ErrEmailExists); err != nil {
		return err
	}
	if err := s.checkUnique(ctx, emp.Username, ErrUsernameExists); err != nil {
		return err
	}

	hash, err := hashPassword(password)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return err
	}
	emp.PasswordHash = hash

	if err := s.repo.Employee.Create(ctx, emp); err != nil {
		if errors.Is(err, pkgerrors.ErrConstraintViolation) {
			// 并发登记时由唯一索引兜底，重新判定冲突的字段
			if cerr := s.checkUnique(ctx, emp.Email, ErrEmailExists); cerr != nil {
				return cerr
			}
			if cerr := s.checkUnique(ctx, emp.Username, ErrUsernameExists); cerr != nil {
				return cerr
			}
			return err
		}
		s.logger.Error("创建员工失败", zap.Error(err))
		return err
	}
	return nil
}

func (s *employeeService) checkUnique(ctx context.Context, login string, conflict error) error {
	existing, err := s.repo.Employee.GetByLogin(ctx, login)
	if err != nil && !errors.Is(err, pkgerrors.ErrNotFound) {
		s.logger.Error("查询员工失败", zap.Error(err))
		return err
	}
	if existing != nil {
		return conflict
	}
	return nil
}

// ────────────────────── Read ──────────────────────

func (s *employeeService) List(ctx context.Context, id access.Identity, req *dto.PaginationRequest) ([]dto.EmployeeResponse, int64, error) {
	if err := access.RequireCapability(id, access.CapAdmin); err != nil {
		return nil, 0, err
	}
	emps, total, err := s.repo.Employee.List(ctx, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出员工失败", zap.Error(err))
		return nil, 0, err
	}
	result := make([]dto.EmployeeResponse, 0, len(emps))
	for i := range emps {
		result = append(result, toEmployeeResponse(&emps[i]))
	}
	return result, total, nil
}

func (s *employeeService) GetByID(ctx context.Context, id access.Identity, employeeID string) (*dto.EmployeeResponse, error) {
	if err := access.RequireCapability(id, access.CapAdmin); err != nil {
		return nil, err
	}
	emp, err := s.get(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	resp := toEmployeeResponse(emp)
	return &resp, nil
}

// ────────────────────── Assign ──────────────────────

func (s *employeeService) Assign(ctx context.Context, id access.Identity, employeeID string, req *dto.AssignEmployeeRequest) (*dto.EmployeeResponse, error) {
	if err := access.RequireCapability(id, access.CapAdmin); err != nil {
		return nil, err
	}

	emp, err := s.get(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if access.FromEmployee(emp).Has(access.CapAdmin) {
		return nil, ErrAdminAssignment
	}

	if _, err := s.repo.Department.GetByID(ctx, req.DepartmentID); err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			return nil, ErrDepartmentNotFound
		}
		s.logger.Error("查询部门失败", zap.Error(err))
		return nil, err
	}
	if _, err := s.repo.Role.GetByID(ctx, req.RoleID); err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			return nil, ErrRoleNotFound
		}
		s.logger.Error("查询岗位失败", zap.Error(err))
		return nil, err
	}

	deptID, roleID := req.DepartmentID, req.RoleID
	if err := s.repo.Employee.UpdateAssignment(ctx, employeeID, &deptID, &roleID, id.EmployeeID); err != nil {
		s.logger.Error("分配部门岗位失败", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("员工已分配",
		zap.String("employee_id", employeeID),
		zap.String("department_id", deptID),
		zap.String("role_id", roleID),
	)

	emp, err = s.get(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	resp := toEmployeeResponse(emp)
	return &resp, nil
}

// ────────────────────── EnsureAdmin ──────────────────────

func (s *employeeService) EnsureAdmin(ctx context.Context, email, username, password string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, login := range []string{email, username} {
		_, err := s.repo.Employee.GetByLogin(ctx, login)
		if err == nil {
			return false, nil
		}
		if !errors.Is(err, pkgerrors.ErrNotFound) {
			s.logger.Error("查询管理员失败", zap.Error(err))
			return false, err
		}
	}

	admin := &model.Employee{
		Email:     email,
		Username:  username,
		FirstName: "Admin",
		LastName:  "",
		IsAdmin:   true,
	}
	if err := s.create(ctx, admin, password); err != nil {
		return false, err
	}

	s.logger.Info("已创建初始管理员", zap.String("username", username))
	return true, nil
}

// ── 辅助函数 ──

func (s *employeeService) get(ctx context.Context, employeeID string) (*model.Employee, error) {
	emp, err := s.repo.Employee.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			return nil, ErrEmployeeNotFound
		}
		s.logger.Error("查询员工失败", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, err
	}
	return emp, nil
}
