package model

import (
	"time"

	"github.com/google/uuid"
)

// BaseModel 通用审计字段（所有业务模型嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null"          json:"created_at"`
	CreatedBy *string   `gorm:"type:char(36)"     json:"created_by,omitempty"`
	UpdatedAt time.Time `gorm:"not null"          json:"updated_at"`
	UpdatedBy *string   `gorm:"type:char(36)"     json:"updated_by,omitempty"`
}

// newID 主键由应用生成，保证 postgres/mysql/sqlite 行为一致
func newID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// All 返回需要 AutoMigrate 的模型，顺序满足外键依赖
func All() []any {
	return []any{
		&Department{},
		&Role{},
		&Employee{},
		&WeekSheet{},
		&Sheet{},
	}
}
