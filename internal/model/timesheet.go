package model

import (
	"time"

	"gorm.io/gorm"
)

// 工时表状态，WeekSheet 与 Sheet 共用
const (
	StatusNotSubmitted = "Not Submitted"
	StatusSubmitted    = "Submitted"
	StatusApproved     = "Approved"
	StatusRejected     = "Rejected"
)

// ValidStatus 判断状态值是否合法
func ValidStatus(s string) bool {
	switch s {
	case StatusNotSubmitted, StatusSubmitted, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// WeekSheet 周工时表 — 对应 week_sheets
// 同一员工同一周期只允许一条记录
type WeekSheet struct {
	WeekSheetID string `gorm:"type:char(36);primaryKey"                                      json:"week_sheet_id"`
	EmployeeID  string `gorm:"type:char(36);not null;uniqueIndex:uk_week_sheets_employee_period" json:"employee_id"`
	Period      string `gorm:"type:varchar(32);not null;uniqueIndex:uk_week_sheets_employee_period;index" json:"period"`
	Status      string `gorm:"type:varchar(20);not null;index"                               json:"status"`
	BaseModel

	// 关联
	Employee *Employee `gorm:"foreignKey:EmployeeID;references:EmployeeID;constraint:OnDelete:CASCADE" json:"employee,omitempty"`
	Sheets   []Sheet   `gorm:"foreignKey:WeekSheetID;constraint:OnDelete:CASCADE"                      json:"sheets,omitempty"`
}

// TableName 指定表名
func (WeekSheet) TableName() string { return "week_sheets" }

// BeforeCreate 生成主键
func (w *WeekSheet) BeforeCreate(*gorm.DB) error {
	newID(&w.WeekSheetID)
	return nil
}

// AllSheetsApproved 所有日工时均已通过
func (w *WeekSheet) AllSheetsApproved() bool {
	if len(w.Sheets) == 0 {
		return false
	}
	for _, s := range w.Sheets {
		if s.Status != StatusApproved {
			return false
		}
	}
	return true
}

// TotalHours 本周工时合计
func (w *WeekSheet) TotalHours() int {
	total := 0
	for _, s := range w.Sheets {
		total += s.Hours
	}
	return total
}

// Sheet 日工时 — 对应 sheets，Position 0..4 对应周一至周五
type Sheet struct {
	SheetID     string    `gorm:"type:char(36);primaryKey"                                     json:"sheet_id"`
	WeekSheetID string    `gorm:"type:char(36);not null;uniqueIndex:uk_sheets_week_position"   json:"week_sheet_id"`
	Position    int       `gorm:"type:smallint;not null;uniqueIndex:uk_sheets_week_position"  json:"position"`
	Date        time.Time `gorm:"type:date;not null"                                           json:"date"`
	Hours       int       `gorm:"type:smallint;not null"                                       json:"hours"`
	Description string    `gorm:"type:text;not null"                                           json:"description"`
	Status      string    `gorm:"type:varchar(20);not null"                                    json:"status"`
	BaseModel
}

// TableName 指定表名
func (Sheet) TableName() string { return "sheets" }

// BeforeCreate 生成主键
func (s *Sheet) BeforeCreate(*gorm.DB) error {
	newID(&s.SheetID)
	return nil
}
