// Package calendar defines trading-day calendars.
//
// A Calendar is built once from data (weekend days and a holiday list) and is
// immutable afterwards, so one value can be shared by every component that
// aligns or extends a date index.
//
//	holidays, _ := calendar.ParseHolidays("2006-01-02", []string{"2024-12-25"})
//	cal := calendar.New(calendar.WithHolidays(holidays...))
//	days := cal.Next(last, 5)
package calendar
