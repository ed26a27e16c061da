package schedule

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrClassNotFound = errors.New("class not found")
	ErrInvalidClass  = errors.New("invalid class")
)

// RecurringClass is a weekly class in the studio timetable.
type RecurringClass struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Instructor string `json:"instructor,omitempty"`
	DayOfWeek  int    `json:"dayOfWeek"`
	Start      Clock  `json:"timeStart"`
	End        Clock  `json:"timeEnd"`
	Capacity   int    `json:"capacity"`
	IsActive   bool   `json:"isActive"`
}

// Record projects the class onto the fields the opening-hours view needs.
func (c RecurringClass) Record() ClassRecord {
	return ClassRecord{DayOfWeek: c.DayOfWeek, Start: c.Start, End: c.End, IsActive: c.IsActive}
}

// Validate checks the fields an admin can edit.
func (c RecurringClass) Validate() error {
	switch {
	case strings.TrimSpace(c.Name) == "":
		return fmt.Errorf("%w: name required", ErrInvalidClass)
	case c.DayOfWeek < 0 || c.DayOfWeek > 6:
		return fmt.Errorf("%w: day_of_week must be 0..6", ErrInvalidClass)
	case !c.Start.Before(c.End):
		return fmt.Errorf("%w: start must be before end", ErrInvalidClass)
	case c.Capacity < 0:
		return fmt.Errorf("%w: capacity must not be negative", ErrInvalidClass)
	}
	return nil
}

// MarshalJSON encodes the clock as "H:MM".
func (c Clock) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON accepts any form ParseClock accepts.
func (c *Clock) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := ParseClock(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
