package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carebridge/telehealth-scheduling/internal/db"
)

// simulate fires concurrent slot requests at the API to demonstrate that a
// contended slot is only ever won once. It reads patients and free slots
// straight from the database, then hammers POST /slot-requests and issues
// doctor decisions for a fraction of the created requests.

type simConfig struct {
	APIBaseURL  string
	Duration    time.Duration
	Workers     int
	PostgresDSN string
}

type slotTarget struct {
	ScheduleID uuid.UUID
	SlotID     uuid.UUID
	DoctorID   uuid.UUID
}

type dataPool struct {
	patients []uuid.UUID
	slots    []slotTarget

	mu       sync.Mutex
	requests []createdRequest
}

type createdRequest struct {
	ID       uuid.UUID
	DoctorID uuid.UUID
}

func (dp *dataPool) addRequest(r createdRequest) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.requests = append(dp.requests, r)
}

func (dp *dataPool) randomRequest() (createdRequest, bool) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	if len(dp.requests) == 0 {
		return createdRequest{}, false
	}
	return dp.requests[rand.Intn(len(dp.requests))], true
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := simConfig{
		APIBaseURL:  envOr("SIM_API_URL", "http://127.0.0.1:8080"),
		Duration:    durationOr("SIM_DURATION", 30*time.Second),
		Workers:     intOr("SIM_WORKERS", 16),
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
	}
	if cfg.PostgresDSN == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	cancel()
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}

	dp, err := loadPool(context.Background(), pool)
	pool.Close()
	if err != nil {
		log.Fatalf("load data pool: %v", err)
	}
	log.Printf("loaded %d patients and %d free slots", len(dp.patients), len(dp.slots))
	if len(dp.patients) == 0 || len(dp.slots) == 0 {
		log.Fatal("run cmd/seed first")
	}

	var requested, won, lost, decided, failed atomic.Int64

	runCtx, stop := context.WithTimeout(context.Background(), cfg.Duration)
	defer stop()

	client := &http.Client{Timeout: 5 * time.Second}
	var wg sync.WaitGroup

	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for runCtx.Err() == nil {
				// Mostly book; sometimes decide an open request.
				if rand.Float64() < 0.8 {
					target := dp.slots[rand.Intn(len(dp.slots))]
					patient := dp.patients[rand.Intn(len(dp.patients))]
					requested.Add(1)
					req, status, err := postSlotRequest(runCtx, client, cfg.APIBaseURL, target, patient)
					switch {
					case err != nil:
						failed.Add(1)
					case status == http.StatusCreated:
						won.Add(1)
						dp.addRequest(createdRequest{ID: req, DoctorID: target.DoctorID})
					case status == http.StatusConflict:
						lost.Add(1)
					default:
						failed.Add(1)
					}
				} else if open, ok := dp.randomRequest(); ok {
					if err := patchDecision(runCtx, client, cfg.APIBaseURL, open); err == nil {
						decided.Add(1)
					}
				}
			}
		}()
	}

	wg.Wait()

	fmt.Println("--- simulation summary ---")
	fmt.Printf("requests sent:      %d\n", requested.Load())
	fmt.Printf("reservations won:   %d\n", won.Load())
	fmt.Printf("conflicts (lost):   %d\n", lost.Load())
	fmt.Printf("decisions applied:  %d\n", decided.Load())
	fmt.Printf("failures:           %d\n", failed.Load())
}

func loadPool(ctx context.Context, pool *pgxpool.Pool) (*dataPool, error) {
	dp := &dataPool{}

	rows, err := pool.Query(ctx, `SELECT id FROM patients LIMIT 500`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		dp.patients = append(dp.patients, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	slotRows, err := pool.Query(ctx, `
		SELECT sl.schedule_id, sl.id, s.doctor_id
		FROM schedule_slots sl
		JOIN schedules s ON s.id = sl.schedule_id
		WHERE sl.is_booked = false AND sl.request_id IS NULL
		LIMIT 2000
	`)
	if err != nil {
		return nil, err
	}
	defer slotRows.Close()
	for slotRows.Next() {
		var t slotTarget
		if err := slotRows.Scan(&t.ScheduleID, &t.SlotID, &t.DoctorID); err != nil {
			return nil, err
		}
		dp.slots = append(dp.slots, t)
	}
	return dp, slotRows.Err()
}

func postSlotRequest(ctx context.Context, client *http.Client, base string, target slotTarget, patientID uuid.UUID) (uuid.UUID, int, error) {
	body, _ := json.Marshal(map[string]string{
		"schedule_id": target.ScheduleID.String(),
		"slot_id":     target.SlotID.String(),
	})

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/slot-requests", bytes.NewReader(body))
	if err != nil {
		return uuid.Nil, 0, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-User-ID", patientID.String())
	httpReq.Header.Set("X-User-Role", "client")

	resp, err := client.Do(httpReq)
	if err != nil {
		return uuid.Nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		_, _ = io.Copy(io.Discard, resp.Body)
		return uuid.Nil, resp.StatusCode, nil
	}

	var created struct {
		ID uuid.UUID `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return uuid.Nil, resp.StatusCode, err
	}
	return created.ID, resp.StatusCode, nil
}

func patchDecision(ctx context.Context, client *http.Client, base string, open createdRequest) error {
	decision := "accepted"
	if rand.Float64() < 0.3 {
		decision = "rejected"
	}
	body, _ := json.Marshal(map[string]string{"decision": decision})

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPatch, base+"/slot-requests/"+open.ID.String(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-User-ID", open.DoctorID.String())
	httpReq.Header.Set("X-User-Role", "doctor")

	resp, err := client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func durationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
