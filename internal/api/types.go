package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/caresched/hospital-appointments/internal/appointment"
	"github.com/caresched/hospital-appointments/internal/doctor"
	"github.com/caresched/hospital-appointments/internal/timeslot"
)

// Request/response DTOs and their mapping functions. This file is the only
// serialization boundary; domain types never reach the wire directly.

type CreateAppointmentRequest struct {
	PatientID string             `json:"patient_id"`
	DoctorID  string             `json:"doctor_id"`
	Date      timeslot.Date      `json:"date"`
	Time      timeslot.TimeOfDay `json:"time"`
	Reason    string             `json:"reason"`
}

type UpdateAppointmentRequest struct {
	Date   timeslot.Date      `json:"date"`
	Time   timeslot.TimeOfDay `json:"time"`
	Status string             `json:"status"`
	Reason string             `json:"reason"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason"`
}

type AppointmentResponse struct {
	ID           uuid.UUID          `json:"id"`
	PatientID    uuid.UUID          `json:"patient_id"`
	DoctorID     uuid.UUID          `json:"doctor_id"`
	Date         timeslot.Date      `json:"date"`
	Time         timeslot.TimeOfDay `json:"time"`
	Status       string             `json:"status"`
	Reason       string             `json:"reason"`
	CancelReason *string            `json:"cancel_reason,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

type PatientResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email *string   `json:"email,omitempty"`
}

type DoctorResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Specialty string    `json:"specialty"`
}

type AppointmentDetailResponse struct {
	AppointmentResponse
	Patient *PatientResponse `json:"patient,omitempty"`
	Doctor  *DoctorResponse  `json:"doctor,omitempty"`
}

type AvailabilityResponse struct {
	DoctorID  uuid.UUID          `json:"doctor_id"`
	Date      timeslot.Date      `json:"date"`
	Time      timeslot.TimeOfDay `json:"time"`
	Available bool               `json:"available"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:           a.ID,
		PatientID:    a.PatientID,
		DoctorID:     a.DoctorID,
		Date:         a.Date,
		Time:         a.Time,
		Status:       string(a.Status),
		Reason:       a.Reason,
		CancelReason: a.CancelReason,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func toDetailResponse(d *appointment.AppointmentDetail) AppointmentDetailResponse {
	resp := AppointmentDetailResponse{
		AppointmentResponse: toAppointmentResponse(&d.Appointment),
	}
	if d.Patient != nil {
		resp.Patient = &PatientResponse{
			ID:    d.Patient.ID,
			Name:  d.Patient.Name,
			Email: d.Patient.Email,
		}
	}
	if d.Doctor != nil {
		resp.Doctor = &DoctorResponse{
			ID:        d.Doctor.ID,
			Name:      d.Doctor.Name,
			Specialty: d.Doctor.Specialty,
		}
	}
	return resp
}

func toDetailResponses(details []appointment.AppointmentDetail) []AppointmentDetailResponse {
	out := make([]AppointmentDetailResponse, 0, len(details))
	for i := range details {
		out = append(out, toDetailResponse(&details[i]))
	}
	return out
}

func toDoctorResponse(d *doctor.Doctor) DoctorResponse {
	return DoctorResponse{
		ID:        d.ID,
		Name:      d.Name,
		Specialty: d.Specialty,
	}
}

func toDoctorResponses(doctors []doctor.Doctor) []DoctorResponse {
	out := make([]DoctorResponse, 0, len(doctors))
	for i := range doctors {
		out = append(out, toDoctorResponse(&doctors[i]))
	}
	return out
}
