package doctor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	var d Doctor
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, specialty, phone, created_at, updated_at
		FROM doctors
		WHERE id = $1
	`, id).Scan(&d.ID, &d.Name, &d.Specialty, &d.Phone, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	schedules, err := r.loadSchedules(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Schedule = schedules[id]

	return &d, nil
}

func (r *PgRepository) ListAll(ctx context.Context) ([]Doctor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, specialty, phone, created_at, updated_at
		FROM doctors
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var doctors []Doctor
	for rows.Next() {
		var d Doctor
		if err := rows.Scan(&d.ID, &d.Name, &d.Specialty, &d.Phone, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		doctors = append(doctors, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	schedules, err := r.loadSchedules(ctx)
	if err != nil {
		return nil, err
	}
	for i := range doctors {
		doctors[i].Schedule = schedules[doctors[i].ID]
	}

	return doctors, nil
}

// loadSchedules fetches weekly schedule entries grouped by doctor. With no
// ids it loads the whole table.
func (r *PgRepository) loadSchedules(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID][]ScheduleEntry, error) {
	query := `
		SELECT doctor_id, weekday, start_time, end_time, is_available
		FROM doctor_schedules
	`
	var args []any
	if len(ids) > 0 {
		query += ` WHERE doctor_id = ANY($1)`
		args = append(args, ids)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load schedules: %w", err)
	}
	defer rows.Close()

	result := make(map[uuid.UUID][]ScheduleEntry)
	for rows.Next() {
		var doctorID uuid.UUID
		var weekday int
		var entry ScheduleEntry
		if err := rows.Scan(&doctorID, &weekday, &entry.StartTime, &entry.EndTime, &entry.Available); err != nil {
			return nil, err
		}
		entry.Weekday = time.Weekday(weekday)
		result[doctorID] = append(result[doctorID], entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
