// simulate fires N concurrent booking requests at the same (doctor, date,
// time) slot and reports the outcome split. Against a correct deployment
// exactly one request succeeds and the rest are rejected as conflicts.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caresched/hospital-appointments/internal/db"
)

type createRequest struct {
	PatientID string `json:"patient_id"`
	DoctorID  string `json:"doctor_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Reason    string `json:"reason"`
}

type outcome struct {
	status int
	body   string
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	baseURL := getEnv("API_BASE_URL", "http://127.0.0.1:8080")
	workers := getInt("SIM_WORKERS", 50)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	doctorID, err := pickDoctor(ctx, pool)
	if err != nil {
		log.Fatalf("pick doctor: %v", err)
	}
	patients, err := pickPatients(ctx, pool, workers)
	if err != nil {
		log.Fatalf("pick patients: %v", err)
	}
	if len(patients) < workers {
		log.Fatalf("need %d patients, found %d (run cmd/seed first)", workers, len(patients))
	}

	date := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	slotTime := "09:00:00"

	log.Printf("firing %d concurrent bookings at doctor=%s date=%s time=%s", workers, doctorID, date, slotTime)

	client := &http.Client{Timeout: 10 * time.Second}
	outcomes := make([]outcome, workers)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			outcomes[i] = book(client, baseURL, createRequest{
				PatientID: patients[i].String(),
				DoctorID:  doctorID.String(),
				Date:      date,
				Time:      slotTime,
				Reason:    "simulated booking",
			})
		}(i)
	}
	close(start)
	wg.Wait()

	var success, conflict, other int
	for _, o := range outcomes {
		switch {
		case o.status == http.StatusCreated:
			success++
		case o.status == http.StatusConflict:
			conflict++
		default:
			other++
			log.Printf("unexpected outcome status=%d body=%s", o.status, o.body)
		}
	}

	fmt.Printf("workers=%d success=%d conflict=%d other=%d\n", workers, success, conflict, other)

	if success != 1 {
		log.Fatalf("expected exactly 1 success, got %d", success)
	}
	log.Println("slot invariant held")
}

func book(client *http.Client, baseURL string, req createRequest) outcome {
	payload, err := json.Marshal(req)
	if err != nil {
		return outcome{status: -1, body: err.Error()}
	}

	resp, err := client.Post(baseURL+"/appointments", "application/json", bytes.NewReader(payload))
	if err != nil {
		return outcome{status: -1, body: err.Error()}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return outcome{status: resp.StatusCode, body: string(body)}
}

func pickDoctor(ctx context.Context, pool *pgxpool.Pool) (uuid.UUID, error) {
	var id uuid.UUID
	err := pool.QueryRow(ctx, `SELECT id FROM doctors ORDER BY random() LIMIT 1`).Scan(&id)
	return id, err
}

func pickPatients(ctx context.Context, pool *pgxpool.Pool, limit int) ([]uuid.UUID, error) {
	rows, err := pool.Query(ctx, `SELECT id FROM patients ORDER BY random() LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
