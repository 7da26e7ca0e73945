package doctor

import (
	"time"

	"github.com/google/uuid"

	"github.com/caresched/hospital-appointments/internal/timeslot"
)

type Doctor struct {
	ID        uuid.UUID
	Name      string
	Specialty string
	Phone     *string
	Schedule  []ScheduleEntry
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ScheduleEntry is one weekly working window of a doctor. It describes
// nominal on-duty hours and is independent of booking conflicts.
type ScheduleEntry struct {
	Weekday   time.Weekday
	StartTime timeslot.TimeOfDay
	EndTime   timeslot.TimeOfDay
	Available bool
}

// OnDuty reports whether the doctor's weekly schedule covers the given
// date and time. The window is inclusive on both ends. A doctor with no
// matching entry for the weekday is off duty.
func (d *Doctor) OnDuty(date timeslot.Date, t timeslot.TimeOfDay) bool {
	weekday := date.Weekday()
	for _, entry := range d.Schedule {
		if entry.Weekday != weekday || !entry.Available {
			continue
		}
		if !t.Before(entry.StartTime) && !t.After(entry.EndTime) {
			return true
		}
	}
	return false
}
