package appointment

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/caresched/hospital-appointments/internal/config"
	redisclient "github.com/caresched/hospital-appointments/internal/redis"
	"github.com/caresched/hospital-appointments/internal/timeslot"
)

var (
	ErrSlotTaken        = errors.New("slot already has an active appointment")
	ErrSlotBeingBooked  = errors.New("slot is currently being booked, please retry")
	ErrAlreadyCancelled = errors.New("appointment is already cancelled")
	ErrFinalStatus      = errors.New("appointment is in a final status")
	ErrInvalidStatus    = errors.New("invalid appointment status")
)

// Notifier delivers booking/cancellation notifications. Delivery is
// best-effort: a notifier failure never fails the lifecycle operation.
type Notifier interface {
	NotifyBooked(ctx context.Context, appt *Appointment) error
	NotifyCancelled(ctx context.Context, appt *Appointment, reason string) error
}

type Service struct {
	repo     Repository
	locker   redisclient.Locker
	notifier Notifier
	cfg      config.Config
}

func NewService(repo Repository, locker redisclient.Locker, notifier Notifier, cfg config.Config) *Service {
	return &Service{
		repo:     repo,
		locker:   locker,
		notifier: notifier,
		cfg:      cfg,
	}
}

func slotKey(doctorID uuid.UUID, date timeslot.Date, t timeslot.TimeOfDay) string {
	return fmt.Sprintf("lock:slot:%s:%s:%s", doctorID, date, t)
}

// IsSlotAvailable reports whether the (doctor, date, time) slot is free of
// active appointments. It performs no doctor-existence check; Create does.
func (s *Service) IsSlotAvailable(ctx context.Context, doctorID uuid.UUID, date timeslot.Date, t timeslot.TimeOfDay) (bool, error) {
	taken, err := s.repo.HasActiveAppointment(ctx, doctorID, date, t)
	if err != nil {
		return false, fmt.Errorf("check slot: %w", err)
	}
	return !taken, nil
}

// Create books a slot for a patient. The distributed lock keeps concurrent
// requests for the same slot from both passing the availability check; the
// partial unique index in the store is the backstop if the lock is ever
// bypassed, surfacing as ErrSlotTaken from Insert.
func (s *Service) Create(ctx context.Context, appt *Appointment) (*Appointment, error) {
	if _, err := s.repo.GetPatientByID(ctx, appt.PatientID); err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}

	exists, err := s.repo.DoctorExists(ctx, appt.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("load doctor: %w", err)
	}
	if !exists {
		return nil, ErrDoctorNotFound
	}

	var created *Appointment

	err = s.locker.WithSlotLock(ctx, slotKey(appt.DoctorID, appt.Date, appt.Time), func(lockCtx context.Context) error {
		taken, err := s.repo.HasActiveAppointment(lockCtx, appt.DoctorID, appt.Date, appt.Time)
		if err != nil {
			return fmt.Errorf("check slot: %w", err)
		}
		if taken {
			return ErrSlotTaken
		}

		// Insert forces status=scheduled and store-side timestamps;
		// caller-supplied values for those fields are ignored.
		created, err = s.repo.Insert(lockCtx, appt)
		if err != nil {
			return fmt.Errorf("insert appointment: %w", err)
		}
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	s.notifyBooked(ctx, created)

	return created, nil
}

// Update applies the mutable fields (date, time, status, reason) of in to
// the persisted row. PatientID, DoctorID and CreatedAt always come from the
// persisted row; the input's values for them are ignored. A date/time change
// re-runs the availability check against the new slot.
func (s *Service) Update(ctx context.Context, in *Appointment) (*Appointment, error) {
	current, err := s.repo.GetByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	if !in.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	updated := *current
	updated.Date = in.Date
	updated.Time = in.Time
	updated.Status = in.Status
	updated.Reason = in.Reason

	slotChanged := !current.Date.Equal(in.Date) || !current.Time.Equal(in.Time)
	if !slotChanged {
		return s.repo.Update(ctx, &updated)
	}

	var persisted *Appointment
	err = s.locker.WithSlotLock(ctx, slotKey(current.DoctorID, in.Date, in.Time), func(lockCtx context.Context) error {
		taken, err := s.repo.HasActiveAppointment(lockCtx, current.DoctorID, in.Date, in.Time)
		if err != nil {
			return fmt.Errorf("check slot: %w", err)
		}
		if taken {
			return ErrSlotTaken
		}

		persisted, err = s.repo.Update(lockCtx, &updated)
		if err != nil {
			return fmt.Errorf("update appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	return persisted, nil
}

// UpdateStatus sets the status of an appointment. Transitions out of a
// final status (completed, cancelled) are administrative corrections and
// are rejected unless AllowStatusRevert is enabled.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status AppointmentStatus) (*Appointment, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if appt.Status.Final() && status != appt.Status && !s.cfg.AllowStatusRevert {
		return nil, fmt.Errorf("%w: %s", ErrFinalStatus, appt.Status)
	}

	prev := appt.Status
	appt.Status = status

	updated, err := s.repo.Update(ctx, appt)
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}

	if status == StatusCancelled && prev != StatusCancelled {
		s.notifyCancelled(ctx, updated, "cancelled via status update")
	}

	return updated, nil
}

// Cancel marks an appointment cancelled and records the reason. The slot
// becomes bookable again; the row persists for history.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason string) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if appt.Status == StatusCancelled {
		return nil, ErrAlreadyCancelled
	}

	appt.Status = StatusCancelled
	appt.CancelReason = &reason

	updated, err := s.repo.Update(ctx, appt)
	if err != nil {
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}

	s.notifyCancelled(ctx, updated, reason)

	return updated, nil
}

// Delete hard-deletes the row. Administrative override, no state-machine
// constraint.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	return s.repo.GetDetail(ctx, id)
}

func (s *Service) ListAll(ctx context.Context) ([]AppointmentDetail, error) {
	list, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return list, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]AppointmentDetail, error) {
	list, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list appointments by patient: %w", err)
	}
	return list, nil
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]AppointmentDetail, error) {
	list, err := s.repo.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list appointments by doctor: %w", err)
	}
	return list, nil
}

func (s *Service) ListByDateRange(ctx context.Context, start, end timeslot.Date) ([]AppointmentDetail, error) {
	list, err := s.repo.ListByDateRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("list appointments by date range: %w", err)
	}
	return list, nil
}

func (s *Service) notifyBooked(ctx context.Context, appt *Appointment) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyBooked(ctx, appt); err != nil {
		log.Printf("failed to send booked notification for appointment %s: %v", appt.ID, err)
	}
}

func (s *Service) notifyCancelled(ctx context.Context, appt *Appointment, reason string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyCancelled(ctx, appt, reason); err != nil {
		log.Printf("failed to send cancelled notification for appointment %s: %v", appt.ID, err)
	}
}
