package service

import (
	"fmt"

	ics "github.com/arran4/golang-ical"

	"timesheet/internal/model"
)

const calendarProductID = "-//timesheet//weekly timesheet//EN"

// buildCalendar 每个日工时生成一个全天 VEVENT，UID 取日工时 ID 保证重复导入时覆盖
func buildCalendar(ws *model.WeekSheet) []byte {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)
	cal.SetXWRCalName("Timesheet " + ws.Period)

	for _, s := range ws.Sheets {
		ev := cal.AddEvent(s.SheetID + "@timesheet")
		ev.SetDtStampTime(ws.UpdatedAt)
		ev.SetAllDayStartAt(s.Date)
		ev.SetAllDayEndAt(s.Date.AddDate(0, 0, 1))
		ev.SetSummary(fmt.Sprintf("%dh · %s", s.Hours, s.Status))
		ev.SetDescription(s.Description)
		ev.SetStatus(eventStatus(s.Status))
	}

	return []byte(cal.Serialize())
}

func eventStatus(status string) ics.ObjectStatus {
	switch status {
	case model.StatusApproved:
		return ics.ObjectStatusConfirmed
	case model.StatusRejected:
		return ics.ObjectStatusCancelled
	default:
		return ics.ObjectStatusTentative
	}
}

func calendarFilename(ws *model.WeekSheet) string {
	return "timesheet_" + sanitizePeriod(ws.Period) + ".ics"
}
