package cron

import (
	"context"
	"fmt"
	"log"
	"time"

	"medisched/config"
	"medisched/services/scheduling"

	"github.com/hibiken/asynq"
)

const TypeNoShowSweep = "appointment:no_show_sweep"

// InitNoShowWorker runs the async worker and its periodic scheduler in the
// background. The sweep marks elapsed appointments as no-show; the core
// treats duplicate triggers as no-ops, so overlapping sweeps are harmless.
func InitNoShowWorker(svc scheduling.Service) {
	interval := config.AppConfig.NoShowSweepIntervalMin
	if interval <= 0 {
		log.Println("[NoShowWorker] sweeper disabled by configuration")
		return
	}

	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeNoShowSweep, handleNoShowSweep(svc))

	scheduler := asynq.NewScheduler(redisOpts, nil)
	spec := fmt.Sprintf("@every %dm", interval)
	if _, err := scheduler.Register(spec, asynq.NewTask(TypeNoShowSweep, nil)); err != nil {
		log.Printf("[NoShowWorker] failed to register sweep schedule: %v", err)
		return
	}

	// Start async worker with retry logic.
	go func() {
		log.Println("[NoShowWorker] starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[NoShowWorker] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[NoShowWorker] max retry attempts reached, exiting")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()

	go func() {
		if err := scheduler.Run(); err != nil {
			log.Printf("[NoShowWorker] scheduler stopped: %v", err)
		}
	}()
}

func handleNoShowSweep(svc scheduling.Service) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		marked, err := svc.SweepNoShows(ctx)
		if err != nil {
			log.Printf("[NoShowSweep] sweep failed: %v", err)
			return err
		}
		if marked > 0 {
			log.Printf("[NoShowSweep] marked %d appointments as no-show", marked)
		}
		return nil
	}
}
