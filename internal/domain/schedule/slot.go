package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Shift is the coarse slot granularity, an alternative to explicit times.
type Shift string

const (
	ShiftMorning   Shift = "morning"
	ShiftAfternoon Shift = "afternoon"
	ShiftEvening   Shift = "evening"
)

func (s Shift) IsValid() bool {
	switch s {
	case ShiftMorning, ShiftAfternoon, ShiftEvening:
		return true
	}
	return false
}

const (
	DateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// Window identifies a slot within a day: a shift, a start/end time range, or
// both. Two windows match only when all three fields are equal.
type Window struct {
	Shift     Shift  `json:"shift,omitempty"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
}

func (w Window) Validate() error {
	hasRange := w.StartTime != "" || w.EndTime != ""
	if w.Shift == "" && !hasRange {
		return ErrEmptyWindow
	}
	if w.Shift != "" && !w.Shift.IsValid() {
		return ErrInvalidShift
	}
	if hasRange {
		start, err := ParseClock(w.StartTime)
		if err != nil {
			return err
		}
		end, err := ParseClock(w.EndTime)
		if err != nil {
			return err
		}
		if !start.Before(end) {
			return ErrInvalidTimeRange
		}
	}
	return nil
}

func (w Window) String() string {
	switch {
	case w.Shift != "" && w.StartTime != "":
		return fmt.Sprintf("%s %s-%s", w.Shift, w.StartTime, w.EndTime)
	case w.Shift != "":
		return string(w.Shift)
	default:
		return w.StartTime + "-" + w.EndTime
	}
}

// ParseClock parses an "HH:MM" wall-clock time.
func ParseClock(s string) (time.Time, error) {
	t, err := time.Parse(clockLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return t, nil
}

// NormalizeDate strips the time of day, keeping the calendar day as seen in
// t's own location, and returns it as UTC midnight.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate accepts "2006-01-02" or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return NormalizeDate(t), nil
}

// Slot is one bookable unit of a doctor's availability. The slot key
// (doctor, date, shift, start, end) is unique.
type Slot struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	DoctorID  uuid.UUID `gorm:"column:doctor_id;type:char(36);not null;uniqueIndex:uq_slot_key,priority:1"`
	Date      time.Time `gorm:"column:date;type:date;not null;uniqueIndex:uq_slot_key,priority:2"`
	Shift     Shift     `gorm:"column:shift;type:varchar(20);not null;default:'';uniqueIndex:uq_slot_key,priority:3"`
	StartTime string    `gorm:"column:start_time;type:varchar(5);not null;default:'';uniqueIndex:uq_slot_key,priority:4"`
	EndTime   string    `gorm:"column:end_time;type:varchar(5);not null;default:'';uniqueIndex:uq_slot_key,priority:5"`

	IsAvailable bool `gorm:"column:is_available;not null;default:true;index"`
}

func (Slot) TableName() string {
	return "schedule_slots"
}

func (s *Slot) Window() Window {
	return Window{Shift: s.Shift, StartTime: s.StartTime, EndTime: s.EndTime}
}

func (s *Slot) Matches(doctorID uuid.UUID, date time.Time, w Window) bool {
	return s.DoctorID == doctorID && s.Date.Equal(NormalizeDate(date)) && s.Window() == w
}

func (s *Slot) SetWindow(w Window) {
	s.Shift = w.Shift
	s.StartTime = w.StartTime
	s.EndTime = w.EndTime
}

type CreateSlotCommand struct {
	DoctorID uuid.UUID
	Date     time.Time
	Window   Window
}

// UpdateSlotCommand patches a slot; nil fields keep their value.
type UpdateSlotCommand struct {
	Date        *time.Time
	Shift       *Shift
	StartTime   *string
	EndTime     *string
	IsAvailable *bool
}

func (c *UpdateSlotCommand) Apply(s *Slot) {
	if c.Date != nil {
		s.Date = NormalizeDate(*c.Date)
	}
	if c.Shift != nil {
		s.Shift = *c.Shift
	}
	if c.StartTime != nil {
		s.StartTime = *c.StartTime
	}
	if c.EndTime != nil {
		s.EndTime = *c.EndTime
	}
	if c.IsAvailable != nil {
		s.IsAvailable = *c.IsAvailable
	}
}
