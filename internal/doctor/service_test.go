package doctor_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caresched/hospital-appointments/internal/doctor"
	"github.com/caresched/hospital-appointments/internal/timeslot"
)

type fakeRoster struct {
	doctors []doctor.Doctor
}

func (r *fakeRoster) GetByID(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	for i := range r.doctors {
		if r.doctors[i].ID == id {
			return &r.doctors[i], nil
		}
	}
	return nil, doctor.ErrDoctorNotFound
}

func (r *fakeRoster) ListAll(ctx context.Context) ([]doctor.Doctor, error) {
	return r.doctors, nil
}

// fakeChecker marks specific doctor ids as having a booking conflict.
type fakeChecker struct {
	booked map[uuid.UUID]bool
}

func (c *fakeChecker) IsSlotAvailable(ctx context.Context, doctorID uuid.UUID, date timeslot.Date, t timeslot.TimeOfDay) (bool, error) {
	return !c.booked[doctorID], nil
}

func mustDate(t *testing.T, s string) timeslot.Date {
	t.Helper()
	d, err := timeslot.ParseDate(s)
	require.NoError(t, err)
	return d
}

func mustTime(t *testing.T, s string) timeslot.TimeOfDay {
	t.Helper()
	tod, err := timeslot.ParseTimeOfDay(s)
	require.NoError(t, err)
	return tod
}

func weekdayEntry(t *testing.T, weekday time.Weekday, start, end string, available bool) doctor.ScheduleEntry {
	t.Helper()
	return doctor.ScheduleEntry{
		Weekday:   weekday,
		StartTime: mustTime(t, start),
		EndTime:   mustTime(t, end),
		Available: available,
	}
}

func TestOnDuty(t *testing.T) {
	monday := mustDate(t, "2025-06-02") // a Monday

	d := doctor.Doctor{
		ID:   uuid.New(),
		Name: "Dr. Webb",
		Schedule: []doctor.ScheduleEntry{
			weekdayEntry(t, time.Monday, "09:00", "17:00", true),
		},
	}

	tests := []struct {
		name string
		date timeslot.Date
		time string
		want bool
	}{
		{"inside window", monday, "10:00", true},
		{"window start inclusive", monday, "09:00", true},
		{"window end inclusive", monday, "17:00", true},
		{"before window", monday, "08:59", false},
		{"after window", monday, "17:01", false},
		{"no entry for weekday", mustDate(t, "2025-06-03"), "10:00", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.OnDuty(tt.date, mustTime(t, tt.time)))
		})
	}
}

func TestOnDuty_UnavailableEntry(t *testing.T) {
	monday := mustDate(t, "2025-06-02")

	d := doctor.Doctor{
		ID: uuid.New(),
		Schedule: []doctor.ScheduleEntry{
			weekdayEntry(t, time.Monday, "09:00", "17:00", false),
		},
	}

	assert.False(t, d.OnDuty(monday, mustTime(t, "10:00")))
}

func TestGetAvailableDoctors(t *testing.T) {
	monday := mustDate(t, "2025-06-02")
	ten := mustTime(t, "10:00")

	onDuty := doctor.Doctor{
		ID:   uuid.New(),
		Name: "Dr. Free",
		Schedule: []doctor.ScheduleEntry{
			weekdayEntry(t, time.Monday, "09:00", "17:00", true),
		},
	}
	offDuty := doctor.Doctor{
		ID:   uuid.New(),
		Name: "Dr. Off",
		Schedule: []doctor.ScheduleEntry{
			// Entry exists for Monday but is marked unavailable, so the
			// doctor is excluded even with the slot unbooked.
			weekdayEntry(t, time.Monday, "09:00", "17:00", false),
		},
	}
	booked := doctor.Doctor{
		ID:   uuid.New(),
		Name: "Dr. Busy",
		Schedule: []doctor.ScheduleEntry{
			weekdayEntry(t, time.Monday, "09:00", "17:00", true),
		},
	}
	noSchedule := doctor.Doctor{
		ID:   uuid.New(),
		Name: "Dr. Unscheduled",
	}

	roster := &fakeRoster{doctors: []doctor.Doctor{onDuty, offDuty, booked, noSchedule}}
	checker := &fakeChecker{booked: map[uuid.UUID]bool{booked.ID: true}}
	svc := doctor.NewService(roster, checker)

	available, err := svc.GetAvailableDoctors(context.Background(), monday, ten)
	require.NoError(t, err)

	require.Len(t, available, 1)
	assert.Equal(t, onDuty.ID, available[0].ID)
}
