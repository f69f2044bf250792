package service

import (
	"errors"
	"fmt"

	pkgerrors "timesheet/pkg/errors"
)

// ── 认证模块 ──

var (
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrTokenRevoked       = errors.New("token 已失效")
	ErrWrongPassword      = errors.New("原密码错误")
)

// ── 目录模块 ──

var (
	ErrEmployeeNotFound     = pkgerrors.New(pkgerrors.ErrNotFound, "员工不存在")
	ErrDepartmentNotFound   = pkgerrors.New(pkgerrors.ErrNotFound, "部门不存在")
	ErrRoleNotFound         = pkgerrors.New(pkgerrors.ErrNotFound, "岗位不存在")
	ErrDepartmentNameExists = pkgerrors.New(pkgerrors.ErrConstraintViolation, "部门名称已存在")
	ErrRoleNameExists       = pkgerrors.New(pkgerrors.ErrConstraintViolation, "岗位名称已存在")
	ErrEmailExists          = pkgerrors.New(pkgerrors.ErrConstraintViolation, "邮箱已被使用")
	ErrUsernameExists       = pkgerrors.New(pkgerrors.ErrConstraintViolation, "用户名已被使用")
	ErrAdminAssignment      = pkgerrors.New(pkgerrors.ErrForbidden, "管理员不能被分配部门或岗位")
)

// ── 工时表模块 ──

var (
	ErrTimesheetNotFound     = pkgerrors.New(pkgerrors.ErrNotFound, "工时表不存在")
	ErrSheetNotFound         = pkgerrors.New(pkgerrors.ErrNotFound, "日工时不存在")
	ErrTimesheetExists       = pkgerrors.New(pkgerrors.ErrConstraintViolation, "本周工时表已存在")
	ErrTimesheetNotDeletable = pkgerrors.New(pkgerrors.ErrConstraintViolation, "工时表已提交，无法删除")
	ErrTimesheetFinalized    = pkgerrors.New(pkgerrors.ErrConstraintViolation, "工时表已审批，无法修改")
	ErrInvalidDecision       = pkgerrors.New(pkgerrors.ErrValidation, "审批结果只能是 approve 或 reject")
	ErrInvalidEntries        = pkgerrors.New(pkgerrors.ErrValidation, "工时明细无效")
	ErrInvalidPeriod         = pkgerrors.New(pkgerrors.ErrValidation, "周期格式无效")
)

// TimesheetExistsError 本周已有工时表，携带其 ID 与状态供客户端跳转
type TimesheetExistsError struct {
	TimesheetID string
	Status      string
}

func (e *TimesheetExistsError) Error() string {
	return fmt.Sprintf("%s (%s)", ErrTimesheetExists.Error(), e.Status)
}

// Unwrap 使 errors.Is(err, ErrTimesheetExists) 成立
func (e *TimesheetExistsError) Unwrap() error { return ErrTimesheetExists }

func invalidEntries(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidEntries}, args...)...)
}
