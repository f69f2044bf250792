package model

import "gorm.io/gorm"

// Employee 员工表 — 对应 employees
// IsAdmin 只在 internal/access 中被解释为能力
type Employee struct {
	EmployeeID   string  `gorm:"type:char(36);primaryKey"                json:"employee_id"`
	Email        string  `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	Username     string  `gorm:"type:varchar(64);not null;uniqueIndex"  json:"username"`
	FirstName    string  `gorm:"type:varchar(100);not null"             json:"first_name"`
	LastName     string  `gorm:"type:varchar(100);not null"             json:"last_name"`
	PasswordHash string  `gorm:"type:varchar(255);not null"             json:"-"`
	IsAdmin      bool    `gorm:"not null;default:false"                 json:"is_admin"`
	DepartmentID *string `gorm:"type:char(36);index"                    json:"department_id,omitempty"`
	RoleID       *string `gorm:"type:char(36);index"                    json:"role_id,omitempty"`
	BaseModel

	// 关联，删除部门/岗位时置空
	Department *Department `gorm:"foreignKey:DepartmentID;references:DepartmentID;constraint:OnDelete:SET NULL" json:"department,omitempty"`
	Role       *Role       `gorm:"foreignKey:RoleID;references:RoleID;constraint:OnDelete:SET NULL"             json:"role,omitempty"`
}

// TableName 指定表名
func (Employee) TableName() string { return "employees" }

// BeforeCreate 生成主键
func (e *Employee) BeforeCreate(*gorm.DB) error {
	newID(&e.EmployeeID)
	return nil
}

// FullName 姓名
func (e *Employee) FullName() string {
	switch {
	case e.FirstName == "":
		return e.LastName
	case e.LastName == "":
		return e.FirstName
	default:
		return e.FirstName + " " + e.LastName
	}
}
