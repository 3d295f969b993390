package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/carebridge/telehealth-scheduling/internal/config"
	"github.com/carebridge/telehealth-scheduling/internal/db"
	"github.com/carebridge/telehealth-scheduling/internal/schedule"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	doctorIDs, err := seedDoctors(context.Background(), pool, 20)
	if err != nil {
		log.Fatalf("seed doctors: %v", err)
	}
	if err := seedPatients(context.Background(), pool, 500); err != nil {
		log.Fatalf("seed patients: %v", err)
	}
	if err := seedSchedules(context.Background(), pool, doctorIDs); err != nil {
		log.Fatalf("seed schedules: %v", err)
	}

	log.Println("seed complete")
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d doctors", count)

	specialties := []string{
		"Dermatology",
		"Cardiology",
		"General Practice",
		"Orthopedics",
		"Endocrinology",
		"Neurology",
		"Pediatrics",
		"Psychiatry",
		"Ophthalmology",
		"ENT",
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		specialty := specialties[i%len(specialties)]

		_, err := tx.Exec(ctx, `
			INSERT INTO doctors (id, name, specialty, created_at, updated_at)
			VALUES ($1, $2, $3, now(), now())
		`, id, "Dr. "+gofakeit.Name(), specialty)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ids, nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d patients", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		email := gofakeit.Email()
		_, err := tx.Exec(ctx, `
			INSERT INTO patients (id, name, email, created_at, updated_at)
			VALUES ($1, $2, $3, now(), now())
		`, uuid.New(), gofakeit.Name(), email)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// seedSchedules gives every doctor a Monday-Friday 09:00-17:00 weekly
// schedule with a lunch break, going through the real service so slots get
// materialized exactly as in production.
func seedSchedules(ctx context.Context, pool *pgxpool.Pool, doctorIDs []uuid.UUID) error {
	log.Printf("seeding %d schedules", len(doctorIDs))

	repo := schedule.NewPgRepository(pool)
	svc := schedule.NewService(repo, schedule.Defaults{
		ConsultationDuration:  config.DefaultConsultationDuration,
		BufferTime:            config.DefaultBufferTime,
		MaxAppointmentsPerDay: config.DefaultMaxAppointmentsPerDay,
		HolidayRecurrence:     schedule.RecurrenceAnnual,
	}, zap.NewNop())

	var weekly schedule.WeeklySchedule
	for d := time.Monday; d <= time.Friday; d++ {
		weekly[d] = schedule.DaySchedule{
			IsAvailable: true,
			StartTime:   "09:00",
			EndTime:     "17:00",
			Breaks: []schedule.TimeWindow{
				{StartTime: "12:00", EndTime: "13:00"},
			},
		}
	}

	for _, doctorID := range doctorIDs {
		principal := schedule.Principal{ID: doctorID, Role: schedule.RoleDoctor}
		_, err := svc.CreateSchedule(ctx, principal, schedule.CreateScheduleInput{
			Type:            schedule.TypeWeekly,
			Weekly:          &weekly,
			ConsultationFee: float64(gofakeit.Number(20, 150)),
		})
		if err != nil {
			return err
		}
	}
	return nil
}
