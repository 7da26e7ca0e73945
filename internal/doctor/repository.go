package doctor

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrDoctorNotFound = errors.New("doctor not found")

// Repository provides the doctor roster with weekly schedules.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	ListAll(ctx context.Context) ([]Doctor, error)
}
