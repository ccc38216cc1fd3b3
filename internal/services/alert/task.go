package alert

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Task is a handle on one background side effect.
type Task struct {
	name     string
	done     chan struct{}
	err      error
	started  time.Time
	finished time.Time
}

func (t *Task) Name() string {
	return t.name
}

// Done is closed when the task has returned.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err returns the task's error. Only meaningful after Done is closed.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

func (t *Task) StartedAt() time.Time {
	return t.started
}

// FinishedAt returns the completion time, zero while the task is running.
func (t *Task) FinishedAt() time.Time {
	select {
	case <-t.done:
		return t.finished
	default:
		return time.Time{}
	}
}

// Tasks tracks every launched task so shutdown can join them.
type Tasks struct {
	mu    sync.Mutex
	wg    sync.WaitGroup
	tasks []*Task
}

func NewTasks() *Tasks {
	return &Tasks{}
}

// Go runs fn on its own goroutine and returns immediately. A panic inside fn
// is recovered and reported as the task's error.
func (ts *Tasks) Go(name string, fn func() error) *Task {
	task := &Task{
		name:    name,
		done:    make(chan struct{}),
		started: time.Now(),
	}

	ts.mu.Lock()
	ts.tasks = append(ts.tasks, task)
	ts.mu.Unlock()

	ts.wg.Add(1)
	go func() {
		defer ts.wg.Done()
		defer close(task.done)
		defer func() {
			if r := recover(); r != nil {
				task.err = fmt.Errorf("task %s panicked: %v", name, r)
			}
			task.finished = time.Now()
		}()

		task.err = fn()
	}()

	return task
}

// Launched returns a snapshot of every task started so far.
func (ts *Tasks) Launched() []*Task {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	out := make([]*Task, len(ts.tasks))
	copy(out, ts.tasks)
	return out
}

// Wait blocks until all tasks have finished or ctx is done.
func (ts *Tasks) Wait(ctx context.Context) error {
	finished := make(chan struct{})
	go func() {
		ts.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for alert tasks: %w", ctx.Err())
	}
}
