package dto

// ── 员工模块 DTO ──

// RegisterEmployeeRequest 管理员登记员工
type RegisterEmployeeRequest struct {
	Email     string `json:"email"      binding:"required,email,max=255"`
	Username  string `json:"username"   binding:"required,min=3,max=64"`
	FirstName string `json:"first_name" binding:"required,max=100"`
	LastName  string `json:"last_name"  binding:"required,max=100"`
	Password  string `json:"password"   binding:"required,min=8,max=72"`
}

// AssignEmployeeRequest 为员工分配部门与岗位
type AssignEmployeeRequest struct {
	DepartmentID string `json:"department_id" binding:"required"`
	RoleID       string `json:"role_id"       binding:"required"`
}

// EmployeeResponse 员工信息（脱敏）
type EmployeeResponse struct {
	ID         string       `json:"id"`
	Email      string       `json:"email"`
	Username   string       `json:"username"`
	FirstName  string       `json:"first_name"`
	LastName   string       `json:"last_name"`
	IsAdmin    bool         `json:"is_admin"`
	Department *RefResponse `json:"department,omitempty"`
	Role       *RefResponse `json:"role,omitempty"`
	CreatedAt  string       `json:"created_at"`
}
