package queue

import "errors"

// ErrDeadlock is returned internally by the path builder when it detects
// an ownership cycle; it never escapes EnqueueCritical as a conventional
// error (see DeadlockCallout).
var ErrDeadlock = errors.New("queue: ownership cycle detected")
