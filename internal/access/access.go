// Package access 是权限判断的唯一入口。
// 员工记录中的存储表示（IsAdmin 标记）只在 FromEmployee 中被解释为能力。
package access

import (
	"slices"

	"timesheet/internal/model"
	pkgerrors "timesheet/pkg/errors"
)

// Capability 操作能力
type Capability string

// CapAdmin 管理员能力：审批工时表、维护部门/岗位/员工
const CapAdmin Capability = "admin"

// ErrForbidden 无权限
var ErrForbidden = pkgerrors.New(pkgerrors.ErrForbidden, "无权限执行此操作")

// Identity 已认证的调用者
type Identity struct {
	EmployeeID   string
	Capabilities []Capability
}

// FromEmployee 由员工记录推导身份
func FromEmployee(emp *model.Employee) Identity {
	id := Identity{EmployeeID: emp.EmployeeID}
	if emp.IsAdmin {
		id.Capabilities = append(id.Capabilities, CapAdmin)
	}
	return id
}

// FromClaims 由 Token 中携带的能力字符串还原身份
func FromClaims(employeeID string, caps []string) Identity {
	id := Identity{EmployeeID: employeeID}
	for _, c := range caps {
		id.Capabilities = append(id.Capabilities, Capability(c))
	}
	return id
}

// Has 判断是否具备某能力
func (i Identity) Has(c Capability) bool {
	return slices.Contains(i.Capabilities, c)
}

// Strings 能力列表的字符串形式，写入 Token
func (i Identity) Strings() []string {
	out := make([]string, 0, len(i.Capabilities))
	for _, c := range i.Capabilities {
		out = append(out, string(c))
	}
	return out
}

// RequireCapability 缺少能力时返回 ErrForbidden
func RequireCapability(id Identity, c Capability) error {
	if id.EmployeeID == "" || !id.Has(c) {
		return ErrForbidden
	}
	return nil
}

// RequireOwner 调用者不是资源所有者时返回 ErrForbidden
func RequireOwner(id Identity, ownerID string) error {
	if id.EmployeeID == "" || id.EmployeeID != ownerID {
		return ErrForbidden
	}
	return nil
}
