package notifier

import (
	"runtime/debug"
	"sync"

	"go.uber.org/zap"
)

// TaskQueue runs fire-and-forget work on background goroutines with panic
// recovery. Wait flushes all submitted tasks, used on shutdown and in tests.
type TaskQueue struct {
	wg sync.WaitGroup
}

// NewTaskQueue creates an empty queue
func NewTaskQueue() *TaskQueue {
	return &TaskQueue{}
}

// Submit schedules the task on its own goroutine. A panicking task is logged
// and never takes the process down.
func (q *TaskQueue) Submit(task func()) {
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				zap.S().Errorw("background task panic", "panic", r, "stack", string(debug.Stack()))
			}
		}()
		task()
	}()
}

// Wait blocks until every submitted task has finished
func (q *TaskQueue) Wait() {
	q.wg.Wait()
}
