package model

import "gorm.io/gorm"

// Department 部门表 — 对应 departments
type Department struct {
	DepartmentID string `gorm:"type:char(36);primaryKey"                json:"department_id"`
	Name         string `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	Description  string `gorm:"type:text"                               json:"description,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Department) TableName() string { return "departments" }

// BeforeCreate 生成主键
func (d *Department) BeforeCreate(*gorm.DB) error {
	newID(&d.DepartmentID)
	return nil
}
