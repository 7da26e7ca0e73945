package appointment

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/caresched/hospital-appointments/internal/timeslot"
)

var (
	ErrPatientNotFound     = errors.New("patient not found")
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	DoctorExists(ctx context.Context, id uuid.UUID) (bool, error)

	// HasActiveAppointment reports whether a non-cancelled appointment
	// occupies the (doctor, date, time) slot.
	HasActiveAppointment(ctx context.Context, doctorID uuid.UUID, date timeslot.Date, t timeslot.TimeOfDay) (bool, error)

	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error)

	// Insert persists a new row. Implementations must surface a violation
	// of the active-slot uniqueness constraint as ErrSlotTaken.
	Insert(ctx context.Context, appt *Appointment) (*Appointment, error)

	// Update persists the mutable fields (date, time, status, reason,
	// cancel reason) of an existing row. Same ErrSlotTaken contract as
	// Insert.
	Update(ctx context.Context, appt *Appointment) (*Appointment, error)

	Delete(ctx context.Context, id uuid.UUID) error

	ListAll(ctx context.Context) ([]AppointmentDetail, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]AppointmentDetail, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]AppointmentDetail, error)
	ListByDateRange(ctx context.Context, start, end timeslot.Date) ([]AppointmentDetail, error)
}
