package cron

import (
	"fmt"
	"log"
	"time"

	"slotify/config"
	"slotify/services/tasks"

	"github.com/hibiken/asynq"
)

// runScheduler enqueues the periodic sweep tasks at the configured cadence.
func runScheduler(redisOpts asynq.RedisClientOpt) {
	scheduler := asynq.NewScheduler(redisOpts, &asynq.SchedulerOpts{Location: time.UTC})

	entries := []struct {
		everySeconds int
		task         *asynq.Task
	}{
		{config.AppConfig.HoldExpirerSeconds, tasks.NewLifecycleTask(tasks.TypeExpireHolds)},
		{config.AppConfig.ReminderDispatchSeconds, tasks.NewLifecycleTask(tasks.TypeDispatchReminders)},
		{config.AppConfig.PaymentReconcileSeconds, tasks.NewLifecycleTask(tasks.TypeReconcilePayments)},
	}
	for _, e := range entries {
		spec := fmt.Sprintf("@every %ds", e.everySeconds)
		if _, err := scheduler.Register(spec, e.task); err != nil {
			log.Printf("[LifecycleWorker] ❌ Failed to register %s: %v", e.task.Type(), err)
		}
	}

	log.Println("[LifecycleWorker] 🚀 Starting sweep scheduler...")
	if err := scheduler.Run(); err != nil {
		log.Printf("[LifecycleWorker] ❌ Scheduler stopped: %v", err)
	}
}
