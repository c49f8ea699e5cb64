package parse

import (
	"fmt"
	"strings"
	"time"
)

var weekdays = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// activeServices resolves the service-day selector against calendar.txt
// and calendar_dates.txt. The selector is either a lowercase weekday name
// ("monday") or a concrete YYYYMMDD date; a date is checked against each
// service's date range and weekday flag, then adjusted by calendar_dates
// exceptions (1 = added, 2 = removed).
func activeServices(selector string, calendar []CalendarCSV, dates []CalendarDateCSV) (map[string]bool, error) {
	selector = strings.ToLower(strings.TrimSpace(selector))

	if day, ok := weekdays[selector]; ok {
		active := map[string]bool{}
		for _, c := range calendar {
			if weekdayFlag(&c, day) == "1" {
				active[c.ServiceID] = true
			}
		}
		return active, nil
	}

	date, err := time.Parse("20060102", selector)
	if err != nil {
		return nil, fmt.Errorf("service day %q is neither a weekday name nor YYYYMMDD", selector)
	}

	active := map[string]bool{}
	for _, c := range calendar {
		if c.StartDate != "" && selector < c.StartDate {
			continue
		}
		if c.EndDate != "" && selector > c.EndDate {
			continue
		}
		if weekdayFlag(&c, date.Weekday()) == "1" {
			active[c.ServiceID] = true
		}
	}
	for _, d := range dates {
		if d.Date != selector {
			continue
		}
		switch d.ExceptionType {
		case "1":
			active[d.ServiceID] = true
		case "2":
			delete(active, d.ServiceID)
		}
	}
	return active, nil
}

func weekdayFlag(c *CalendarCSV, day time.Weekday) string {
	switch day {
	case time.Monday:
		return c.Monday
	case time.Tuesday:
		return c.Tuesday
	case time.Wednesday:
		return c.Wednesday
	case time.Thursday:
		return c.Thursday
	case time.Friday:
		return c.Friday
	case time.Saturday:
		return c.Saturday
	default:
		return c.Sunday
	}
}
