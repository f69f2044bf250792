package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"timesheet/internal/access"
	"timesheet/internal/dto"
	"timesheet/internal/model"
	pkgerrors "timesheet/pkg/errors"
)

func fiveEntries(hours int) []dto.SheetEntryRequest {
	entries := make([]dto.SheetEntryRequest, 5)
	for i := range entries {
		entries[i] = dto.SheetEntryRequest{Position: i, Hours: hours, Description: "coding"}
	}
	return entries
}

// ── Create ──

func TestTimesheetService_Create_FirstOfWeek(t *testing.T) {
	svc, store := setupTestTimesheetService()

	resp, err := svc.Create(context.Background(), employeeID, &dto.CreateTimesheetRequest{Entries: fiveEntries(8)})
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if resp.Period != testPeriod {
		t.Errorf("期望周期 %s，实际 %s", testPeriod, resp.Period)
	}
	if resp.Status != model.StatusNotSubmitted {
		t.Errorf("期望状态 Not Submitted，实际 %s", resp.Status)
	}
	if len(resp.Sheets) != 5 {
		t.Fatalf("期望 5 天，实际 %d", len(resp.Sheets))
	}
	wantDates := []string{"04/03/2024", "05/03/2024", "06/03/2024", "07/03/2024", "08/03/2024"}
	for i, sh := range resp.Sheets {
		if sh.Status != model.StatusNotSubmitted {
			t.Errorf("第 %d 天状态应为 Not Submitted，实际 %s", i, sh.Status)
		}
		if sh.Date != wantDates[i] {
			t.Errorf("第 %d 天日期期望 %s，实际 %s", i, wantDates[i], sh.Date)
		}
	}
	if resp.TotalHours != 40 {
		t.Errorf("期望合计 40，实际 %d", resp.TotalHours)
	}
	if len(store.weekSheets) != 1 {
		t.Errorf("应只写入一张工时表，实际 %d", len(store.weekSheets))
	}
}

func TestTimesheetService_Create_WithSubmit(t *testing.T) {
	svc, _ := setupTestTimesheetService()

	resp, err := svc.Create(context.Background(), employeeID, &dto.CreateTimesheetRequest{Entries: fiveEntries(8), Submit: true})
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if resp.Status != model.StatusSubmitted {
		t.Errorf("期望 Submitted，实际 %s", resp.Status)
	}
	for i, sh := range resp.Sheets {
		if sh.Status != model.StatusSubmitted {
			t.Errorf("第 %d 天应为 Submitted，实际 %s", i, sh.Status)
		}
	}
}

func TestTimesheetService_Create_OncePerWeek(t *testing.T) {
	svc, store := setupTestTimesheetService()
	ctx := context.Background()

	first, err := svc.Create(ctx, employeeID, &dto.CreateTimesheetRequest{Entries: fiveEntries(8), Submit: true})
	if err != nil {
		t.Fatalf("首次 Create 应成功: %v", err)
	}

	_, err = svc.Create(ctx, employeeID, &dto.CreateTimesheetRequest{Entries: fiveEntries(4)})
	if !errors.Is(err, ErrTimesheetExists) {
		t.Fatalf("期望 ErrTimesheetExists，实际 %v", err)
	}
	var exists *TimesheetExistsError
	if !errors.As(err, &exists) {
		t.Fatalf("错误应携带已有工时表信息: %v", err)
	}
	if exists.TimesheetID != first.ID || exists.Status != model.StatusSubmitted {
		t.Errorf("已有工时表信息不符: %+v", exists)
	}
	if len(store.weekSheets) != 1 {
		t.Errorf("重复创建后仍应只有一张，实际 %d", len(store.weekSheets))
	}

	// 其他员工同一周不受影响
	if _, err := svc.Create(ctx, otherID, &dto.CreateTimesheetRequest{Entries: fiveEntries(8)}); err != nil {
		t.Errorf("其他员工创建应成功: %v", err)
	}
}

func TestTimesheetService_Create_WeekendBelongsToSameWeek(t *testing.T) {
	store := newMockStore()
	sunday := time.Date(2024, time.March, 10, 22, 0, 0, 0, time.UTC)
	svc := NewTimesheetService(store.repository(), testTimesheetConfig(), func() time.Time { return sunday }, zap.NewNop())

	resp, err := svc.Create(context.Background(), employeeID, &dto.CreateTimesheetRequest{Entries: fiveEntries(8)})
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if resp.Period != testPeriod {
		t.Errorf("周日创建应归属本周，实际 %s", resp.Period)
	}
}

func TestTimesheetService_Create_InvalidEntries(t *testing.T) {
	svc, store := setupTestTimesheetService()

	blank := fiveEntries(8)
	blank[3].Description = "   "
	tooMany := fiveEntries(25)

	cases := map[string][]dto.SheetEntryRequest{
		"四天":   fiveEntries(8)[:4],
		"零工时":  fiveEntries(0),
		"超出上限": tooMany,
		"空白描述": blank,
	}
	for name, entries := range cases {
		_, err := svc.Create(context.Background(), employeeID, &dto.CreateTimesheetRequest{Entries: entries})
		if !errors.Is(err, ErrInvalidEntries) || !errors.Is(err, pkgerrors.ErrValidation) {
			t.Errorf("%s: 期望 ErrInvalidEntries，实际 %v", name, err)
		}
	}
	if len(store.weekSheets) != 0 {
		t.Errorf("校验失败不应写入数据，实际 %d", len(store.weekSheets))
	}
}

func TestTimesheetService_Create_StoreFailure(t *testing.T) {
	svc, store := setupTestTimesheetService()
	store.createWeekSheetErr = errBoom

	_, err := svc.Create(context.Background(), employeeID, &dto.CreateTimesheetRequest{Entries: fiveEntries(8)})
	if !errors.Is(err, errBoom) {
		t.Errorf("期望透传存储错误，实际 %v", err)
	}
}

// ── Edit ──

func TestTimesheetService_Edit_UpdatesSuppliedDays(t *testing.T) {
	svc, store := setupTestTimesheetService()
	ws := store.seedWeekSheet("emp-1", testPeriod, model.StatusNotSubmitted)

	resp, err := svc.Edit(context.Background(), employeeID, ws.WeekSheetID, &dto.EditTimesheetRequest{
		Entries: []dto.SheetEntryRequest{{Position: 2, Hours: 5, Description: "review"}},
	})
	if err != nil {
		t.Fatalf("Edit 应成功: %v", err)
	}
	if resp.Sheets[2].Hours != 5 || resp.Sheets[2].Description != "review" {
		t.Errorf("周三未被更新: %+v", resp.Sheets[2])
	}
	if resp.Sheets[0].Hours != 8 || resp.Sheets[4].Hours != 8 {
		t.Error("未提交的日期不应被修改")
	}
	if resp.Status != model.StatusNotSubmitted {
		t.Errorf("未勾选提交时状态不变，实际 %s", resp.Status)
	}
}

func TestTimesheetService_Edit_Submit(t *testing.T) {
	svc, store := setupTestTimesheetService()
	ws := store.seedWeekSheet("emp-1", testPeriod, model.StatusNotSubmitted)

	resp, err := svc.Edit(context.Background(), employeeID, ws.WeekSheetID, &dto.EditTimesheetRequest{Submit: true})
	if err != nil {
		t.Fatalf("Edit 应成功: %v", err)
	}
	if resp.Status != model.StatusSubmitted {
		t.Errorf("期望 Submitted，实际 %s", resp.Status)
	}
	for _, sh := range store.weekSheets[ws.WeekSheetID].Sheets {
		if sh.Status != model.StatusSubmitted {
			t.Errorf("日工时 %s 应为 Submitted，实际 %s", sh.SheetID, sh.Status)
		}
	}
}

func TestTimesheetService_Edit_SubmittedStillEditable(t *testing.T) {
	svc, store := setupTestTimesheetService()
	ws := store.seedWeekSheet("emp-1", testPeriod, model.StatusSubmitted)

	resp, err := svc.Edit(context.Background(), employeeID, ws.WeekSheetID, &dto.EditTimesheetRequest{
		Entries: []dto.SheetEntryRequest{{Position: 0, Hours: 6, Description: "fix"}},
	})
	if err != nil {
		t.Fatalf("已提交的工时表应可编辑: %v", err)
	}
	if resp.Status != model.StatusSubmitted {
		t.Errorf("编辑后状态应保持 Submitted，实际 %s", resp.Status)
	}
}

func TestTimesheetService_Edit_Finalized(t *testing.T) {
	svc, store := setupTestTimesheetService()
	for _, status := range []string{model.StatusApproved, model.StatusRejected} {
		ws := store.seedWeekSheet("emp-1", "period-"+status, status)
		_, err := svc.Edit(context.Background(), employeeID, ws.WeekSheetID, &dto.EditTimesheetRequest{Submit: true})
		if !errors.Is(err, ErrTimesheetFinalized) {
			t.Errorf("%s: 期望 ErrTimesheetFinalized，实际 %v", status, err)
		}
		if store.weekSheets[ws.WeekSheetID].Status != status {
			t.Errorf("%s: 状态不应被修改", status)
		}
	}
}

func TestTimesheetService_Edit_NotFoundAndForbidden(t *testing.T) {
	svc, store := setupTestTimesheetService()
	ws := store.seedWeekSheet("emp-1", testPeriod, model.StatusNotSubmitted)

	_, err := svc.Edit(context.Background(), employeeID, "missing", &dto.EditTimesheetRequest{})
	if !errors.Is(err, ErrTimesheetNotFound) {
		t.Errorf("期望 ErrTimesheetNotFound，实际 %v", err)
	}

	_, err = svc.Edit(context.Background(), otherID, ws.WeekSheetID, &dto.EditTimesheetRequest{Submit: true})
	if !errors.Is(err, access.ErrForbidden) {
		t.Errorf("期望 ErrForbidden，实际 %v", err)
	}
	if store.weekSheets[ws.WeekSheetID].Status != model.StatusNotSubmitted {
		t.Error("越权编辑不应改变状态")
	}
}

func TestTimesheetService_Edit_DuplicatePosition(t *testing.T) {
	svc, store := setupTestTimesheetService()
	ws := store.seedWeekSheet("emp-1", testPeriod, model.StatusNotSubmitted)

	_, err := svc.Edit(context.Background(), employeeID, ws.WeekSheetID, &dto.EditTimesheetRequest{
		Entries: []dto.SheetEntryRequest{
			{Position: 1, Hours: 3, Description: "a"},
			{Position: 1, Hours: 4, Description: "b"},
		},
	})
	if !errors.Is(err, ErrInvalidEntries) {
		t.Errorf("期望 ErrInvalidEntries，实际 %v", err)
	}
	if store.weekSheets[ws.WeekSheetID].Sheets[1].Hours != 8 {
		t.Error("校验失败不应部分写入")
	}
}

// ── Submit ──

func TestTimesheetService_Submit(t *testing.T) {
	svc, store := setupTestTimesheetService()
	ws := store.seedWeekSheet("emp-1", testPeriod, model.StatusNotSubmitted)

	resp, err := svc.Submit(context.Background(), employeeID, ws.WeekSheetID)
	if err != nil {
		t.Fatalf("Submit 应成功: %v", err)
	}
	if resp.Status != model.StatusSubmitted {
		t.Errorf("期望 Submitted，实际 %s", resp.Status)
	}
	for _, sh := range resp.Sheets {
		if sh.Status != model.StatusSubmitted {
			t.Errorf("日工时应为 Submitted，实际 %s", sh.Status)
		}
	}

	if _, err := svc.Submit(context.Background(), otherID, ws.WeekSheetID); !errors.Is(err, access.ErrForbidden) {
		t.Errorf("非本人提交应返回 ErrForbidden，实际 %v", err)
	}
}

// ── Delete ──

func TestTimesheetService_Delete_NotSubmitted(t *testing.T) {
	svc, store := setupTestTimesheetService()
	ws := store.seedWeekSheet("emp-1", testPeriod, model.StatusNotSubmitted)

	if err := svc.Delete(context.Background(), employeeID, ws.WeekSheetID); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	if _, ok := store.weekSheets[ws.WeekSheetID]; ok {
		t.Error("工时表应被删除")
	}
}

func TestTimesheetService_Delete_RejectedUnlessNotSubmitted(t *testing.T) {
	svc, store := setupTestTimesheetService()
	for _, status := range []string{model.StatusSubmitted, model.StatusApproved, model.StatusRejected} {
		ws := store.seedWeekSheet("emp-1", "period-"+status, status)
		err := svc.Delete(context.Background(), employeeID, ws.WeekSheetID)
		if !errors.Is(err, ErrTimesheetNotDeletable) {
			t.Errorf("%s: 期望 ErrTimesheetNotDeletable，实际 %v", status, err)
		}
		got, ok := store.weekSheets[ws.WeekSheetID]
		if !ok {
			t.Fatalf("%s: 工时表不应被删除", status)
		}
		if got.Status != status || len(got.Sheets) != 5 {
			t.Errorf("%s: 记录不应被修改", status)
		}
	}
}

func TestTimesheetService_Delete_Forbidden(t *testing.T) {
	svc, store := setupTestTimesheetService()
	ws := store.seedWeekSheet("emp-1", testPeriod, model.StatusNotSubmitted)

	if err := svc.Delete(context.Background(), otherID, ws.WeekSheetID); !errors.Is(err, access.ErrForbidden) {
		t.Errorf("期望 ErrForbidden，实际 %v", err)
	}
	if _, ok := store.weekSheets[ws.WeekSheetID]; !ok {
		t.Error("越权删除不应生效")
	}
}

// ── Read ──

func TestTimesheetService_GetMine(t *testing.T) {
	svc, store := setupTestTimesheetService()
	ws := store.seedWeekSheet("emp-1", testPeriod, model.StatusSubmitted)

	resp, err := svc.GetMine(context.Background(), employeeID, ws.WeekSheetID)
	if err != nil {
		t.Fatalf("GetMine 应成功: %v", err)
	}
	if resp.ID != ws.WeekSheetID || len(resp.Sheets) != 5 {
		t.Errorf("返回内容不符: %+v", resp)
	}

	if _, err := svc.GetMine(context.Background(), otherID, ws.WeekSheetID); !errors.Is(err, pkgerrors.ErrForbidden) {
		t.Errorf("非本人查看应返回 403 类错误，实际 %v", err)
	}
	if _, err := svc.GetMine(context.Background(), employeeID, "missing"); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Errorf("不存在时应返回 404 类错误，实际 %v", err)
	}
}

func TestTimesheetService_ListMine_HistoryLimit(t *testing.T) {
	svc, store := setupTestTimesheetService()
	for i := 0; i < 60; i++ {
		store.seedWeekSheet("emp-1", "p"+strings.Repeat("x", i), model.StatusSubmitted)
	}
	store.seedWeekSheet("emp-2", testPeriod, model.StatusSubmitted)

	list, err := svc.ListMine(context.Background(), employeeID)
	if err != nil {
		t.Fatalf("ListMine 应成功: %v", err)
	}
	if len(list) != 52 {
		t.Errorf("期望最多 52 条，实际 %d", len(list))
	}
	for _, ws := range list {
		if ws.EmployeeID != "emp-1" {
			t.Fatalf("不应返回他人的工时表: %s", ws.EmployeeID)
		}
	}
	// 最新的在前
	if list[0].Period != "p"+strings.Repeat("x", 59) {
		t.Errorf("列表应按创建时间倒序，首条为 %s", list[0].Period)
	}
}

func TestTimesheetService_CurrentWeek(t *testing.T) {
	svc, store := setupTestTimesheetService()

	resp, err := svc.CurrentWeek(context.Background(), employeeID)
	if err != nil {
		t.Fatalf("CurrentWeek 应成功: %v", err)
	}
	if resp.Period != testPeriod || len(resp.Days) != 5 {
		t.Errorf("本周信息不符: %+v", resp)
	}
	if resp.TimesheetID != "" {
		t.Error("尚未创建时不应返回工时表 ID")
	}

	ws := store.seedWeekSheet("emp-1", testPeriod, model.StatusSubmitted)
	resp, _ = svc.CurrentWeek(context.Background(), employeeID)
	if resp.TimesheetID != ws.WeekSheetID || resp.Status != model.StatusSubmitted {
		t.Errorf("应返回已有工时表，实际 %+v", resp)
	}
}

func TestTimesheetService_Calendar(t *testing.T) {
	svc, store := setupTestTimesheetService()
	ws := store.seedWeekSheet("emp-1", testPeriod, model.StatusApproved)

	data, filename, err := svc.Calendar(context.Background(), employeeID, ws.WeekSheetID)
	if err != nil {
		t.Fatalf("Calendar 应成功: %v", err)
	}
	if filename != "timesheet_04032024-08032024.ics" {
		t.Errorf("文件名不符: %s", filename)
	}

	cal, err := ics.ParseCalendar(strings.NewReader(string(data)))
	if err != nil {
		t.Fatalf("生成的日历应可解析: %v", err)
	}
	events := cal.Events()
	if len(events) != 5 {
		t.Fatalf("期望 5 个事件，实际 %d", len(events))
	}
	desc := events[0].GetProperty(ics.ComponentPropertyDescription)
	if desc == nil || desc.Value != "day 0" {
		t.Errorf("首个事件描述不符: %+v", desc)
	}
	status := events[0].GetProperty(ics.ComponentPropertyStatus)
	if status == nil || status.Value != string(ics.ObjectStatusConfirmed) {
		t.Errorf("已通过的日工时应为 CONFIRMED: %+v", status)
	}

	if _, _, err := svc.Calendar(context.Background(), otherID, ws.WeekSheetID); !errors.Is(err, access.ErrForbidden) {
		t.Errorf("非本人导出应返回 ErrForbidden，实际 %v", err)
	}
}
