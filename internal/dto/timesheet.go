package dto

import "timesheet/pkg/week"

// ── 工时表模块 DTO ──

// SheetEntryRequest 单日工时，Position 0..4 对应周一至周五
type SheetEntryRequest struct {
	Position    int    `json:"position"    binding:"min=0,max=4"`
	Hours       int    `json:"hours"       binding:"required,min=1,max=24"`
	Description string `json:"description" binding:"required,max=2000"`
}

// CreateTimesheetRequest 创建本周工时表，必须恰好五天
type CreateTimesheetRequest struct {
	Entries []SheetEntryRequest `json:"entries" binding:"required,len=5,dive"`
	Submit  bool                `json:"submit"`
}

// EditTimesheetRequest 编辑工时表，只更新提供的日期
type EditTimesheetRequest struct {
	Entries []SheetEntryRequest `json:"entries" binding:"omitempty,max=5,dive"`
	Submit  bool                `json:"submit"`
}

// ReviewListRequest 审批列表查询参数
type ReviewListRequest struct {
	PaginationRequest
	Status       string `form:"status"        binding:"omitempty,oneof='Submitted' 'Approved' 'Rejected'"`
	Period       string `form:"period"`
	EmployeeID   string `form:"employee_id"`
	DepartmentID string `form:"department_id"`
}

// SheetResponse 单日工时
type SheetResponse struct {
	ID          string `json:"id"`
	Position    int    `json:"position"`
	Date        string `json:"date"`
	Weekday     string `json:"weekday"`
	Hours       int    `json:"hours"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// TimesheetResponse 周工时表
type TimesheetResponse struct {
	ID         string          `json:"id"`
	EmployeeID string          `json:"employee_id"`
	Employee   *RefResponse    `json:"employee,omitempty"`
	Period     string          `json:"period"`
	Status     string          `json:"status"`
	TotalHours int             `json:"total_hours"`
	Sheets     []SheetResponse `json:"sheets"`
	CreatedAt  string          `json:"created_at"`
	UpdatedAt  string          `json:"updated_at"`
}

// CurrentWeekResponse 本周信息；已有工时表时附带其 ID 与状态
type CurrentWeekResponse struct {
	Period      string     `json:"period"`
	Days        []week.Day `json:"days"`
	TimesheetID string     `json:"timesheet_id,omitempty"`
	Status      string     `json:"status,omitempty"`
}

// ExistingTimesheetResponse 重复创建时返回，Next 提示客户端跳转 view 或 edit
type ExistingTimesheetResponse struct {
	TimesheetID string `json:"timesheet_id"`
	Status      string `json:"status"`
	Next        string `json:"next"`
}
