package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caresched/hospital-appointments/internal/api"
	"github.com/caresched/hospital-appointments/internal/appointment"
	"github.com/caresched/hospital-appointments/internal/config"
	"github.com/caresched/hospital-appointments/internal/doctor"
	"github.com/caresched/hospital-appointments/internal/notify"
	"github.com/caresched/hospital-appointments/internal/timeslot"
)

// memStore is a minimal in-memory appointment.Repository for handler tests.
type memStore struct {
	patients map[uuid.UUID]*appointment.Patient
	doctors  map[uuid.UUID]bool
	appts    map[uuid.UUID]*appointment.Appointment
}

func newMemStore() *memStore {
	return &memStore{
		patients: make(map[uuid.UUID]*appointment.Patient),
		doctors:  make(map[uuid.UUID]bool),
		appts:    make(map[uuid.UUID]*appointment.Appointment),
	}
}

func (s *memStore) GetPatientByID(ctx context.Context, id uuid.UUID) (*appointment.Patient, error) {
	p, ok := s.patients[id]
	if !ok {
		return nil, appointment.ErrPatientNotFound
	}
	return p, nil
}

func (s *memStore) DoctorExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.doctors[id], nil
}

func (s *memStore) HasActiveAppointment(ctx context.Context, doctorID uuid.UUID, date timeslot.Date, t timeslot.TimeOfDay) (bool, error) {
	for _, a := range s.appts {
		if a.Status != appointment.StatusCancelled && a.DoctorID == doctorID && a.Date.Equal(date) && a.Time.Equal(t) {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) GetByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	a, ok := s.appts[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *memStore) GetDetail(ctx context.Context, id uuid.UUID) (*appointment.AppointmentDetail, error) {
	a, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	d := &appointment.AppointmentDetail{Appointment: *a}
	if p, ok := s.patients[a.PatientID]; ok {
		d.Patient = p
	}
	return d, nil
}

func (s *memStore) Insert(ctx context.Context, appt *appointment.Appointment) (*appointment.Appointment, error) {
	if taken, _ := s.HasActiveAppointment(ctx, appt.DoctorID, appt.Date, appt.Time); taken {
		return nil, appointment.ErrSlotTaken
	}
	created := *appt
	created.ID = uuid.New()
	created.Status = appointment.StatusScheduled
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	s.appts[created.ID] = &created
	cp := created
	return &cp, nil
}

func (s *memStore) Update(ctx context.Context, appt *appointment.Appointment) (*appointment.Appointment, error) {
	current, ok := s.appts[appt.ID]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	updated := *current
	updated.Date = appt.Date
	updated.Time = appt.Time
	updated.Status = appt.Status
	updated.Reason = appt.Reason
	updated.CancelReason = appt.CancelReason
	updated.UpdatedAt = time.Now()
	s.appts[updated.ID] = &updated
	cp := updated
	return &cp, nil
}

func (s *memStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := s.appts[id]; !ok {
		return appointment.ErrAppointmentNotFound
	}
	delete(s.appts, id)
	return nil
}

func (s *memStore) ListAll(ctx context.Context) ([]appointment.AppointmentDetail, error) {
	out := make([]appointment.AppointmentDetail, 0, len(s.appts))
	for id := range s.appts {
		d, _ := s.GetDetail(ctx, id)
		out = append(out, *d)
	}
	return out, nil
}

func (s *memStore) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]appointment.AppointmentDetail, error) {
	all, _ := s.ListAll(ctx)
	var out []appointment.AppointmentDetail
	for _, d := range all {
		if d.PatientID == patientID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *memStore) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]appointment.AppointmentDetail, error) {
	all, _ := s.ListAll(ctx)
	var out []appointment.AppointmentDetail
	for _, d := range all {
		if d.DoctorID == doctorID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *memStore) ListByDateRange(ctx context.Context, start, end timeslot.Date) ([]appointment.AppointmentDetail, error) {
	return s.ListAll(ctx)
}

type passLocker struct{}

func (passLocker) WithSlotLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type staticRoster struct {
	doctors []doctor.Doctor
}

func (r *staticRoster) GetByID(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	for i := range r.doctors {
		if r.doctors[i].ID == id {
			return &r.doctors[i], nil
		}
	}
	return nil, doctor.ErrDoctorNotFound
}

func (r *staticRoster) ListAll(ctx context.Context) ([]doctor.Doctor, error) {
	return r.doctors, nil
}

type testEnv struct {
	store   *memStore
	roster  *staticRoster
	handler http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := newMemStore()
	roster := &staticRoster{}

	apptSvc := appointment.NewService(store, passLocker{}, notify.NoopNotifier{}, config.Config{})
	doctorSvc := doctor.NewService(roster, apptSvc)

	handler := api.NewRouter(api.RouterConfig{
		Appointments: apptSvc,
		Doctors:      doctorSvc,
		Env:          "test",
		Version:      "test",
	})

	return &testEnv{store: store, roster: roster, handler: handler}
}

func (e *testEnv) addPatient() uuid.UUID {
	id := uuid.New()
	e.store.patients[id] = &appointment.Patient{ID: id, Name: "Pat Doe"}
	return id
}

func (e *testEnv) addDoctor(schedule ...doctor.ScheduleEntry) uuid.UUID {
	id := uuid.New()
	e.store.doctors[id] = true
	e.roster.doctors = append(e.roster.doctors, doctor.Doctor{
		ID:       id,
		Name:     "Dr. Doe",
		Schedule: schedule,
	})
	return id
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func TestCreateAppointmentEndpoint(t *testing.T) {
	env := newTestEnv(t)
	patientID := env.addPatient()
	doctorID := env.addDoctor()

	body := api.CreateAppointmentRequest{
		PatientID: patientID.String(),
		DoctorID:  doctorID.String(),
		Reason:    "checkup",
	}
	require.NoError(t, json.Unmarshal([]byte(`"2025-06-01"`), &body.Date))
	require.NoError(t, json.Unmarshal([]byte(`"09:00:00"`), &body.Time))

	rec := env.do(t, http.MethodPost, "/appointments", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp api.AppointmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "scheduled", resp.Status)
	assert.Equal(t, patientID, resp.PatientID)

	// Same slot again conflicts.
	rec = env.do(t, http.MethodPost, "/appointments", body)
	require.Equal(t, http.StatusConflict, rec.Code)

	var errResp api.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "slot_taken", errResp.Error)
}

func TestCreateAppointmentEndpoint_BadIDs(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/appointments", map[string]string{
		"patient_id": "not-a-uuid",
		"doctor_id":  uuid.NewString(),
		"date":       "2025-06-01",
		"time":       "09:00",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAvailabilityEndpoint(t *testing.T) {
	env := newTestEnv(t)
	patientID := env.addPatient()
	doctorID := env.addDoctor()

	path := fmt.Sprintf("/appointments/availability?doctor_id=%s&date=2025-06-01&time=09:00", doctorID)

	rec := env.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.AvailabilityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Available)

	body := api.CreateAppointmentRequest{
		PatientID: patientID.String(),
		DoctorID:  doctorID.String(),
	}
	require.NoError(t, json.Unmarshal([]byte(`"2025-06-01"`), &body.Date))
	require.NoError(t, json.Unmarshal([]byte(`"09:00:00"`), &body.Time))
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/appointments", body).Code)

	rec = env.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Available)
}

func TestCancelEndpoint(t *testing.T) {
	env := newTestEnv(t)
	patientID := env.addPatient()
	doctorID := env.addDoctor()

	body := api.CreateAppointmentRequest{
		PatientID: patientID.String(),
		DoctorID:  doctorID.String(),
	}
	require.NoError(t, json.Unmarshal([]byte(`"2025-06-01"`), &body.Date))
	require.NoError(t, json.Unmarshal([]byte(`"09:00:00"`), &body.Time))

	rec := env.do(t, http.MethodPost, "/appointments", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created api.AppointmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = env.do(t, http.MethodPost, "/appointments/"+created.ID.String()+"/cancel",
		api.CancelAppointmentRequest{Reason: "patient request"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var cancelled api.AppointmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cancelled))
	assert.Equal(t, "cancelled", cancelled.Status)
	require.NotNil(t, cancelled.CancelReason)
	assert.Equal(t, "patient request", *cancelled.CancelReason)

	// Second cancel is rejected.
	rec = env.do(t, http.MethodPost, "/appointments/"+created.ID.String()+"/cancel",
		api.CancelAppointmentRequest{Reason: "again"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestStatusEndpoint_NotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPut, "/appointments/"+uuid.NewString()+"/status",
		api.UpdateStatusRequest{Status: "completed"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAvailableDoctorsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	start, err := timeslot.ParseTimeOfDay("09:00")
	require.NoError(t, err)
	end, err := timeslot.ParseTimeOfDay("17:00")
	require.NoError(t, err)

	onDuty := env.addDoctor(doctor.ScheduleEntry{
		Weekday: time.Monday, StartTime: start, EndTime: end, Available: true,
	})
	env.addDoctor(doctor.ScheduleEntry{
		Weekday: time.Monday, StartTime: start, EndTime: end, Available: false,
	})

	// 2025-06-02 is a Monday.
	rec := env.do(t, http.MethodGet, "/doctors/available?date=2025-06-02&time=10:00", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var doctors []api.DoctorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doctors))
	require.Len(t, doctors, 1)
	assert.Equal(t, onDuty, doctors[0].ID)
}
