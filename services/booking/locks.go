package booking

import (
	"context"
	"fmt"
	"time"

	"slotify/models"
	"slotify/utils"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// releaseScript deletes a lock key only when the caller still owns it.
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`

// Locker serializes writers racing for the same staff calendar region. The
// returned release function is safe to call exactly once, deferred.
type Locker interface {
	Acquire(ctx context.Context, staffID string, span models.TimeRange) (func(), error)
}

// SlotLocker implements the advisory slot lock over Redis. One key per
// (staff, hour bucket); an interval locks every bucket it touches, in
// ascending order, so two writers whose intervals could overlap always
// contend on at least one shared key and never deadlock.
type SlotLocker struct {
	Client *redis.Client
}

// bucketKeys lists the lock keys for every hour bucket the span touches.
func bucketKeys(staffID string, span models.TimeRange) []string {
	first := span.Start.UTC().Truncate(time.Hour)
	last := span.End.UTC().Add(-time.Nanosecond).Truncate(time.Hour)

	var keys []string
	for b := first; !b.After(last); b = b.Add(time.Hour) {
		keys = append(keys, fmt.Sprintf("%s%s:%d", utils.SlotLockPrefix, staffID, b.Unix()))
	}
	return keys
}

// Acquire takes every bucket lock for the span, waiting briefly on
// contention. The returned release function is safe to defer; it frees the
// keys in reverse order and only those this caller still owns.
func (l *SlotLocker) Acquire(ctx context.Context, staffID string, span models.TimeRange) (func(), error) {
	keys := bucketKeys(staffID, span)
	token := uuid.New().String()
	acquired := make([]string, 0, len(keys))

	release := func() {
		// Release against a fresh context: the request context may already
		// be done by the time the deferred release runs.
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		for i := len(acquired) - 1; i >= 0; i-- {
			if err := l.Client.Eval(rctx, releaseScript, []string{acquired[i]}, token).Err(); err != nil && err != redis.Nil {
				utils.GetLogger().Warn("slot lock release failed; key expires by TTL",
					zap.String("key", acquired[i]), zap.Error(err))
			}
		}
	}

	deadline := time.Now().Add(utils.SlotLockMaxWait)
	for _, key := range keys {
		for {
			ok, err := l.Client.SetNX(ctx, key, token, utils.SlotLockTTL).Result()
			if err != nil {
				release()
				return nil, fmt.Errorf("slot lock %s: %w", key, err)
			}
			if ok {
				acquired = append(acquired, key)
				break
			}

			utils.SlotLockWaits.Inc()
			if time.Now().After(deadline) {
				release()
				return nil, models.NewBookingError(models.CodeTimeout,
					"another booking for this staff and time is in flight, try again")
			}
			select {
			case <-ctx.Done():
				release()
				return nil, models.NewBookingError(models.CodeTimeout, "request cancelled while waiting for the slot lock")
			case <-time.After(utils.SlotLockRetryDelay):
			}
		}
	}
	return release, nil
}
