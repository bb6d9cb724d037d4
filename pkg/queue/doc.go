// Package queue implements the thread-queue enqueue/extract core: the
// subsystem that blocks, wakes, and transfers ownership of threads on
// synchronization objects (mutexes, semaphores, message queues, condition
// variables), including SMP-safe cycle detection across nested
// acquisitions so the core never deadlocks inside its own lock hierarchy.
//
// The core does not implement queue disciplines (FIFO, priority,
// priority-inheritance) itself; see pkg/queue/fifo for reference
// implementations of the Operations contract this package requires.
package queue
