package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/caresched/hospital-appointments/internal/timeslot"
)

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Final reports whether the status is terminal. Leaving a terminal status
// requires the status-revert override (see config.AllowStatusRevert).
func (s AppointmentStatus) Final() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type Patient struct {
	ID        uuid.UUID
	Name      string
	Email     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DoctorInfo is the display projection of a doctor used when list reads
// resolve names. The full roster model lives in the doctor package.
type DoctorInfo struct {
	ID        uuid.UUID
	Name      string
	Specialty string
}

type Appointment struct {
	ID           uuid.UUID
	PatientID    uuid.UUID
	DoctorID     uuid.UUID
	Date         timeslot.Date
	Time         timeslot.TimeOfDay
	Status       AppointmentStatus
	Reason       string
	CancelReason *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AppointmentDetail is an appointment with its relations resolved.
// A nil Patient or Doctor means the relation was absent or not loaded;
// callers must not substitute placeholder values.
type AppointmentDetail struct {
	Appointment
	Patient *Patient
	Doctor  *DoctorInfo
}
