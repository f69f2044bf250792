package dto

// ── 部门 / 岗位 DTO ──
// 两者字段一致，共用同一组请求与响应结构

// CreateDirectoryEntryRequest 创建部门或岗位
type CreateDirectoryEntryRequest struct {
	Name        string `json:"name"        binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"omitempty,max=500"`
}

// UpdateDirectoryEntryRequest 更新部门或岗位，未提供的字段保持不变
type UpdateDirectoryEntryRequest struct {
	Name        *string `json:"name"        binding:"omitempty,min=1,max=100"`
	Description *string `json:"description" binding:"omitempty,max=500"`
}

// DirectoryEntryResponse 部门或岗位详情
type DirectoryEntryResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MemberCount int64  `json:"member_count"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}
