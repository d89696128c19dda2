// File: utils/constants.go
package utils

import "time"

// SlotLockPrefix is the prefix used for Redis slot-lock keys.
const SlotLockPrefix = "slotlock:"

// SlotLockTTL bounds how long a slot lock may outlive its holder; locks are
// released explicitly when the transaction finishes.
const SlotLockTTL = 20 * time.Second

// SlotLockRetryDelay is the pause between acquisition attempts on a
// contended lock key.
const SlotLockRetryDelay = 25 * time.Millisecond

// SlotLockMaxWait bounds how long a writer queues on a contended bucket
// before giving up with a timeout.
const SlotLockMaxWait = 5 * time.Second
