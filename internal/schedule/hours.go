package schedule

import "strings"

// ClosedLabel is shown for a weekday without any active class.
const ClosedLabel = "Zavřeno"

// DayNames maps day_of_week (0 = Sunday) to the Czech day name.
var DayNames = [7]string{"Neděle", "Pondělí", "Úterý", "Středa", "Čtvrtek", "Pátek", "Sobota"}

// ClassRecord is one recurring class occurrence as read from storage.
type ClassRecord struct {
	DayOfWeek int
	Start     Clock
	End       Clock
	IsActive  bool
}

// TimeSlot is a display-ready start/end pair.
type TimeSlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// DaySchedule holds the slots for one weekday.
type DaySchedule struct {
	DayIndex int        `json:"dayIndex"`
	DayName  string     `json:"dayName"`
	Slots    []TimeSlot `json:"slots"`
}

// Hours is the display string for the day, "Zavřeno" when there are no slots.
func (d DaySchedule) Hours() string {
	return FormatDayHours(d.Slots)
}

// Aggregate groups active weekday records into Monday..Friday.
// The result always has five entries. Slots keep the input order and are never merged.
func Aggregate(records []ClassRecord) []DaySchedule {
	days := make([]DaySchedule, 5)
	for i := range days {
		days[i] = DaySchedule{DayIndex: i + 1, DayName: DayNames[i+1], Slots: []TimeSlot{}}
	}
	for _, r := range records {
		if !r.IsActive || r.DayOfWeek < 1 || r.DayOfWeek > 5 {
			continue
		}
		d := &days[r.DayOfWeek-1]
		d.Slots = append(d.Slots, TimeSlot{Start: r.Start.String(), End: r.End.String()})
	}
	return days
}

// FormatDayHours joins slots as "start - end" separated by ", ".
func FormatDayHours(slots []TimeSlot) string {
	if len(slots) == 0 {
		return ClosedLabel
	}
	parts := make([]string, 0, len(slots))
	for _, s := range slots {
		parts = append(parts, s.Start+" - "+s.End)
	}
	return strings.Join(parts, ", ")
}
