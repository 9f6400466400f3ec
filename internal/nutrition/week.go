package nutrition

import "time"

const DateLayout = "2006-01-02"

// WeekDates returns the seven days of the Monday-first week containing day,
// each truncated to midnight in day's location.
func WeekDates(day time.Time) [7]time.Time {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	offset := (int(start.Weekday()) + 6) % 7
	start = start.AddDate(0, 0, -offset)
	var out [7]time.Time
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}
