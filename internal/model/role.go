package model

import "gorm.io/gorm"

// Role 岗位表 — 对应 roles
type Role struct {
	RoleID      string `gorm:"type:char(36);primaryKey"                json:"role_id"`
	Name        string `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	Description string `gorm:"type:text"                               json:"description,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Role) TableName() string { return "roles" }

// BeforeCreate 生成主键
func (r *Role) BeforeCreate(*gorm.DB) error {
	newID(&r.RoleID)
	return nil
}
