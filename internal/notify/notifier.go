package notify

import (
	"time"

	"github.com/google/uuid"

	"github.com/caresched/hospital-appointments/internal/timeslot"
)

const (
	RoutingKeyBooked    = "appointment.booked"
	RoutingKeyCancelled = "appointment.cancelled"
)

// BookedEvent is published when an appointment is created.
type BookedEvent struct {
	AppointmentID uuid.UUID          `json:"appointment_id"`
	PatientID     uuid.UUID          `json:"patient_id"`
	DoctorID      uuid.UUID          `json:"doctor_id"`
	Date          timeslot.Date      `json:"date"`
	Time          timeslot.TimeOfDay `json:"time"`
	Reason        string             `json:"reason"`
	BookedAt      time.Time          `json:"booked_at"`
}

// CancelledEvent is published when an appointment transitions to cancelled.
type CancelledEvent struct {
	AppointmentID uuid.UUID          `json:"appointment_id"`
	PatientID     uuid.UUID          `json:"patient_id"`
	DoctorID      uuid.UUID          `json:"doctor_id"`
	Date          timeslot.Date      `json:"date"`
	Time          timeslot.TimeOfDay `json:"time"`
	CancelReason  string             `json:"cancel_reason"`
	CancelledAt   time.Time          `json:"cancelled_at"`
}
