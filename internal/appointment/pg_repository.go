package appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caresched/hospital-appointments/internal/timeslot"
)

// slotIndexName is the partial unique index over non-cancelled rows.
// A 23505 on this index is the storage-level double-booking backstop.
const slotIndexName = "appointments_doctor_slot_active"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const appointmentColumns = `id, patient_id, doctor_id, date, slot_time, status, reason, cancel_reason, created_at, updated_at`

// Helpers

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.DoctorID,
		&a.Date,
		&a.Time,
		&a.Status,
		&a.Reason,
		&a.CancelReason,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

func scanDetail(row pgx.Row) (*AppointmentDetail, error) {
	var d AppointmentDetail
	var (
		patientID    *uuid.UUID
		patientName  *string
		patientEmail *string
		doctorID     *uuid.UUID
		doctorName   *string
		doctorSpec   *string
	)

	err := row.Scan(
		&d.ID,
		&d.PatientID,
		&d.DoctorID,
		&d.Date,
		&d.Time,
		&d.Status,
		&d.Reason,
		&d.CancelReason,
		&d.CreatedAt,
		&d.UpdatedAt,
		&patientID,
		&patientName,
		&patientEmail,
		&doctorID,
		&doctorName,
		&doctorSpec,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	// Relations stay nil when the referenced row is absent; presentation
	// decides how to render that, not the store.
	if patientID != nil && patientName != nil {
		d.Patient = &Patient{ID: *patientID, Name: *patientName, Email: patientEmail}
	}
	if doctorID != nil && doctorName != nil {
		info := &DoctorInfo{ID: *doctorID, Name: *doctorName}
		if doctorSpec != nil {
			info.Specialty = *doctorSpec
		}
		d.Doctor = info
	}

	return &d, nil
}

func isSlotConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == slotIndexName
}

const detailQuery = `
	SELECT a.id, a.patient_id, a.doctor_id, a.date, a.slot_time, a.status, a.reason, a.cancel_reason, a.created_at, a.updated_at,
	       p.id, p.name, p.email,
	       d.id, d.name, d.specialty
	FROM appointments a
	LEFT JOIN patients p ON p.id = a.patient_id
	LEFT JOIN doctors d ON d.id = a.doctor_id
`

// Interface methods

func (r *PgRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	var p Patient
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, email, created_at, updated_at
		FROM patients
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Email, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PgRepository) DoctorExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM doctors WHERE id = $1)
	`, id).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PgRepository) HasActiveAppointment(ctx context.Context, doctorID uuid.UUID, date timeslot.Date, t timeslot.TimeOfDay) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1 AND date = $2 AND slot_time = $3 AND status <> 'cancelled'
		)
	`, doctorID, date, t).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) GetDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	row := r.pool.QueryRow(ctx, detailQuery+` WHERE a.id = $1`, id)
	return scanDetail(row)
}

func (r *PgRepository) Insert(ctx context.Context, appt *Appointment) (*Appointment, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, date, slot_time, status, reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 'scheduled', $6, now(), now())
		RETURNING `+appointmentColumns+`
	`, id, appt.PatientID, appt.DoctorID, appt.Date, appt.Time, appt.Reason)

	created, err := scanAppointment(row)
	if err != nil {
		if isSlotConflict(err) {
			return nil, ErrSlotTaken
		}
		return nil, err
	}
	return created, nil
}

func (r *PgRepository) Update(ctx context.Context, appt *Appointment) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET date = $2,
		    slot_time = $3,
		    status = $4,
		    reason = $5,
		    cancel_reason = $6,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns+`
	`, appt.ID, appt.Date, appt.Time, appt.Status, appt.Reason, appt.CancelReason)

	updated, err := scanAppointment(row)
	if err != nil {
		if isSlotConflict(err) {
			return nil, ErrSlotTaken
		}
		return nil, err
	}
	return updated, nil
}

func (r *PgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *PgRepository) ListAll(ctx context.Context) ([]AppointmentDetail, error) {
	return r.listDetails(ctx, detailQuery+` ORDER BY a.date, a.slot_time`)
}

func (r *PgRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]AppointmentDetail, error) {
	return r.listDetails(ctx, detailQuery+` WHERE a.patient_id = $1 ORDER BY a.date, a.slot_time`, patientID)
}

func (r *PgRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]AppointmentDetail, error) {
	return r.listDetails(ctx, detailQuery+` WHERE a.doctor_id = $1 ORDER BY a.date, a.slot_time`, doctorID)
}

func (r *PgRepository) ListByDateRange(ctx context.Context, start, end timeslot.Date) ([]AppointmentDetail, error) {
	return r.listDetails(ctx, detailQuery+` WHERE a.date >= $1 AND a.date <= $2 ORDER BY a.date, a.slot_time`, start, end)
}

func (r *PgRepository) listDetails(ctx context.Context, query string, args ...any) ([]AppointmentDetail, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AppointmentDetail
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
