// Package week 计算工时表所属的自然周（周一至周五）。
// 所有函数都是输入时刻的纯函数，调用方负责传入"现在"。
package week

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout 日期标签格式 DD/MM/YYYY
const DateLayout = "02/01/2006"

// Days 每周工作日数量
const Days = 5

// Week 一个工作周，Monday 与 Friday 均为所在时区的零点
type Week struct {
	Monday time.Time
	Friday time.Time
}

// Day 工作周中的一天
type Day struct {
	Date    time.Time `json:"date"`
	Label   string    `json:"label"`
	Weekday string    `json:"weekday"`
}

// Clock 可注入的时钟
type Clock func() time.Time

// SystemClock 返回指定时区下的当前时间
func SystemClock(loc *time.Location) Clock {
	return func() time.Time { return time.Now().In(loc) }
}

// Of 返回 t 所在 ISO 周的周一至周五，周六周日归属同一周
func Of(t time.Time) Week {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	// Go 中周日为 0，ISO 周以周一开始
	offset := (int(day.Weekday()) + 6) % 7
	monday := day.AddDate(0, 0, -offset)
	return Week{Monday: monday, Friday: monday.AddDate(0, 0, Days-1)}
}

// Period 周期标签 "DD/MM/YYYY-DD/MM/YYYY"
func (w Week) Period() string {
	return w.Monday.Format(DateLayout) + "-" + w.Friday.Format(DateLayout)
}

// Days 周一至周五五天
func (w Week) Days() []Day {
	days := make([]Day, 0, Days)
	for i := 0; i < Days; i++ {
		d := w.Monday.AddDate(0, 0, i)
		days = append(days, Day{
			Date:    d,
			Label:   d.Format(DateLayout),
			Weekday: d.Weekday().String(),
		})
	}
	return days
}

// ParsePeriod 将周期标签解析回 Week，要求起始日为周一且跨度为 5 天
func ParsePeriod(label string, loc *time.Location) (Week, error) {
	start, end, ok := strings.Cut(label, "-")
	if !ok {
		return Week{}, fmt.Errorf("周期格式无效: %q", label)
	}
	monday, err := time.ParseInLocation(DateLayout, strings.TrimSpace(start), loc)
	if err != nil {
		return Week{}, fmt.Errorf("周期起始日期无效: %w", err)
	}
	friday, err := time.ParseInLocation(DateLayout, strings.TrimSpace(end), loc)
	if err != nil {
		return Week{}, fmt.Errorf("周期结束日期无效: %w", err)
	}
	if monday.Weekday() != time.Monday {
		return Week{}, fmt.Errorf("周期起始日期 %s 不是周一", start)
	}
	if !friday.Equal(monday.AddDate(0, 0, Days-1)) {
		return Week{}, fmt.Errorf("周期结束日期 %s 与起始日期不匹配", end)
	}
	return Week{Monday: monday, Friday: friday}, nil
}
