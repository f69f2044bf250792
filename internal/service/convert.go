package service

import (
	"timesheet/internal/dto"
	"timesheet/internal/model"
	"timesheet/pkg/week"
)

func toTimesheetResponse(ws *model.WeekSheet) dto.TimesheetResponse {
	resp := dto.TimesheetResponse{
		ID:         ws.WeekSheetID,
		EmployeeID: ws.EmployeeID,
		Period:     ws.Period,
		Status:     ws.Status,
		TotalHours: ws.TotalHours(),
		Sheets:     make([]dto.SheetResponse, 0, len(ws.Sheets)),
		CreatedAt:  ws.CreatedAt.Format(dto.TimeLayout),
		UpdatedAt:  ws.UpdatedAt.Format(dto.TimeLayout),
	}
	if ws.Employee != nil {
		resp.Employee = &dto.RefResponse{ID: ws.Employee.EmployeeID, Name: ws.Employee.FullName()}
	}
	for _, s := range ws.Sheets {
		resp.Sheets = append(resp.Sheets, dto.SheetResponse{
			ID:          s.SheetID,
			Position:    s.Position,
			Date:        s.Date.Format(week.DateLayout),
			Weekday:     s.Date.Weekday().String(),
			Hours:       s.Hours,
			Description: s.Description,
			Status:      s.Status,
		})
	}
	return resp
}

func toTimesheetResponses(list []model.WeekSheet) []dto.TimesheetResponse {
	out := make([]dto.TimesheetResponse, 0, len(list))
	for i := range list {
		out = append(out, toTimesheetResponse(&list[i]))
	}
	return out
}

func toEmployeeResponse(e *model.Employee) dto.EmployeeResponse {
	resp := dto.EmployeeResponse{
		ID:        e.EmployeeID,
		Email:     e.Email,
		Username:  e.Username,
		FirstName: e.FirstName,
		LastName:  e.LastName,
		IsAdmin:   e.IsAdmin,
		CreatedAt: e.CreatedAt.Format(dto.TimeLayout),
	}
	if e.Department != nil {
		resp.Department = &dto.RefResponse{ID: e.Department.DepartmentID, Name: e.Department.Name}
	}
	if e.Role != nil {
		resp.Role = &dto.RefResponse{ID: e.Role.RoleID, Name: e.Role.Name}
	}
	return resp
}
