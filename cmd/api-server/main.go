package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/caresched/hospital-appointments/internal/api"
	"github.com/caresched/hospital-appointments/internal/appointment"
	"github.com/caresched/hospital-appointments/internal/config"
	"github.com/caresched/hospital-appointments/internal/db"
	"github.com/caresched/hospital-appointments/internal/doctor"
	"github.com/caresched/hospital-appointments/internal/notify"
	redisclient "github.com/caresched/hospital-appointments/internal/redis"
)

const version = "0.3.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running in env=%s http_port=%s", cfg.Env, cfg.HTTPPort)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatalf("postgres connection error: %v", err)
	}
	defer pgPool.Close()
	log.Println("connected to Postgres")

	// Connect Redis
	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connection error: %v", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Printf("error closing redis: %v", err)
		}
	}()
	log.Println("connected to Redis")

	// Notification publisher; without AMQP_URL the service runs with
	// notifications disabled.
	var notifier appointment.Notifier = notify.NoopNotifier{}
	if cfg.AmqpURL != "" {
		amqpNotifier, err := notify.NewAMQPNotifier(cfg.AmqpURL)
		if err != nil {
			log.Fatalf("amqp connection error: %v", err)
		}
		defer func() {
			if err := amqpNotifier.Close(); err != nil {
				log.Printf("error closing amqp: %v", err)
			}
		}()
		notifier = amqpNotifier
	} else {
		log.Println("AMQP_URL not set, notifications disabled")
	}

	apptRepo := appointment.NewPgRepository(pgPool)
	locker := redisclient.NewRedisSlotLocker(rdb, cfg.LockTTL)
	apptSvc := appointment.NewService(apptRepo, locker, notifier, cfg)

	doctorRepo := doctor.NewPgRepository(pgPool)
	doctorSvc := doctor.NewService(doctorRepo, apptSvc)

	router := api.NewRouter(api.RouterConfig{
		Appointments: apptSvc,
		Doctors:      doctorSvc,
		PgPool:       pgPool,
		Redis:        rdb,
		Env:          cfg.Env,
		Version:      version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-rootCtx.Done()
	log.Println("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
