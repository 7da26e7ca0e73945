package doctor

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/caresched/hospital-appointments/internal/timeslot"
)

// AvailabilityChecker is the booking-conflict side of availability,
// implemented by the appointment service.
type AvailabilityChecker interface {
	IsSlotAvailable(ctx context.Context, doctorID uuid.UUID, date timeslot.Date, t timeslot.TimeOfDay) (bool, error)
}

type Service struct {
	repo    Repository
	checker AvailabilityChecker
}

func NewService(repo Repository, checker AvailabilityChecker) *Service {
	return &Service{
		repo:    repo,
		checker: checker,
	}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListAll(ctx context.Context) ([]Doctor, error) {
	doctors, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return doctors, nil
}

// GetAvailableDoctors returns every doctor who is both free of active
// appointments at (date, time) and nominally on duty per their weekly
// schedule. Result order carries no meaning.
func (s *Service) GetAvailableDoctors(ctx context.Context, date timeslot.Date, t timeslot.TimeOfDay) ([]Doctor, error) {
	doctors, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}

	var available []Doctor
	for i := range doctors {
		d := &doctors[i]
		if !d.OnDuty(date, t) {
			continue
		}
		free, err := s.checker.IsSlotAvailable(ctx, d.ID, date, t)
		if err != nil {
			return nil, fmt.Errorf("check slot for doctor %s: %w", d.ID, err)
		}
		if free {
			available = append(available, *d)
		}
	}

	return available, nil
}
