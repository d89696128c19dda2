package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// Task type names routed by the worker mux.
const (
	TypeExpireHolds       = "lifecycle:expire_holds"
	TypeDispatchReminders = "lifecycle:dispatch_reminders"
	TypeReconcilePayments = "lifecycle:reconcile_payments"
	TypeNotifySend        = "notify:send"
)

// NotifySendPayload carries one notification through the queue. The
// idempotency key doubles as the asynq task id, so a duplicate enqueue is
// rejected by the broker instead of reaching the audience twice.
type NotifySendPayload struct {
	Audience       string            `json:"audience"`
	TemplateID     string            `json:"template_id"`
	Context        map[string]string `json:"context,omitempty"`
	IdempotencyKey string            `json:"idempotency_key"`
}

func NewNotifySendTask(payload NotifySendPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeNotifySend, b)
	opts := []asynq.Option{
		asynq.TaskID(payload.IdempotencyKey),
		asynq.MaxRetry(5),
		asynq.Timeout(30 * time.Second),
		// Keep the completed task around so the id keeps deduplicating.
		asynq.Retention(24 * time.Hour),
	}
	return task, opts, nil
}

// NewLifecycleTask builds one of the periodic sweep tasks; they carry no
// payload, the handler reads everything from the store.
func NewLifecycleTask(taskType string) *asynq.Task {
	return asynq.NewTask(taskType, nil)
}
