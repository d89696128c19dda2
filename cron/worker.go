package cron

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"slotify/config"
	"slotify/services/booking"
	"slotify/services/tasks"
	"slotify/utils"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
)

// InitLifecycleWorkers runs the asynq consumer and the periodic scheduler in
// the background. The consumer handles the three lifecycle sweeps plus
// queued notification delivery; the scheduler enqueues one sweep task per
// configured interval. Every sweep is a conditional update underneath, so
// overlapping runs and extra replicas are harmless.
func InitLifecycleWorkers(machine booking.Service) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeExpireHolds, handleExpireHolds(machine))
	mux.HandleFunc(tasks.TypeDispatchReminders, handleDispatchReminders(machine))
	mux.HandleFunc(tasks.TypeReconcilePayments, handleReconcilePayments(machine))
	mux.HandleFunc(tasks.TypeNotifySend, handleNotifySend)

	// Start Redis health monitor
	go monitorRedisConnection()

	// Start async worker with retry logic
	go func() {
		log.Println("[LifecycleWorker] 🚀 Starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[LifecycleWorker] ❌ Attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[LifecycleWorker] ❗ Max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second) // Exponential backoff
			} else {
				break
			}
		}
	}()

	go runScheduler(redisOpts)
}

// runSweep wraps one lifecycle sweep with timing and row metrics.
func runSweep(ctx context.Context, name string, fn func(context.Context) (int, error)) error {
	start := time.Now()
	handled, err := fn(ctx)
	utils.WorkerSweepDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		log.Printf("[LifecycleWorker] ❌ %s sweep failed: %v", name, err)
		return err
	}
	if handled > 0 {
		utils.WorkerSweepRows.WithLabelValues(name).Add(float64(handled))
		log.Printf("[LifecycleWorker] %s sweep handled %d bookings", name, handled)
	}
	return nil
}

func handleExpireHolds(machine booking.Service) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		return runSweep(ctx, "expire_holds", func(ctx context.Context) (int, error) {
			return machine.ExpireDueHolds(ctx, config.AppConfig.WorkerBatchSize)
		})
	}
}

func handleDispatchReminders(machine booking.Service) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		return runSweep(ctx, "dispatch_reminders", func(ctx context.Context) (int, error) {
			return machine.DispatchDueReminders(ctx, config.AppConfig.WorkerBatchSize)
		})
	}
}

func handleReconcilePayments(machine booking.Service) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		return runSweep(ctx, "reconcile_payments", func(ctx context.Context) (int, error) {
			grace := time.Duration(config.AppConfig.PaymentReconcileSeconds) * time.Second
			return machine.ReconcilePendingPayments(ctx, grace, config.AppConfig.WorkerBatchSize)
		})
	}
}

// handleNotifySend delivers one queued notification. Delivery here is the
// channel hand-off point; the broker already deduplicated on the task id.
func handleNotifySend(ctx context.Context, task *asynq.Task) error {
	var p tasks.NotifySendPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		log.Printf("[NotifyHandler] 🔴 Invalid payload: %v", err)
		return err
	}

	log.Printf("[NotifyHandler] ⏰ Delivering %s to %s (key %s)", p.TemplateID, p.Audience, p.IdempotencyKey)
	return nil
}

// monitorRedisConnection pings Redis periodically to detect failures at runtime.
func monitorRedisConnection() {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})

	ctx := context.Background()

	for {
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("[LifecycleWorker] ⚠️ Redis connection lost: %v", err)
		}
		time.Sleep(10 * time.Second)
	}
}
