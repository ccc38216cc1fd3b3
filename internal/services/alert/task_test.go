package alert

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestTasks_HandleReportsResult(t *testing.T) {
	ts := NewTasks()
	want := errors.New("smtp: connection refused")

	task := ts.Go("email", func() error { return want })

	select {
	case <-task.Done():
	case <-time.After(time.Second):
		t.Fatal("Task did not finish")
	}

	if task.Name() != "email" {
		t.Errorf("Expected name 'email', got %q", task.Name())
	}
	if !errors.Is(task.Err(), want) {
		t.Errorf("Expected %v, got %v", want, task.Err())
	}
	if task.FinishedAt().Before(task.StartedAt()) {
		t.Error("Finish time should not precede start time")
	}
}

func TestTasks_ErrNilWhileRunning(t *testing.T) {
	ts := NewTasks()
	release := make(chan struct{})

	task := ts.Go("alarm", func() error {
		<-release
		return errors.New("late")
	})

	if task.Err() != nil {
		t.Error("Err should be nil while the task runs")
	}
	if !task.FinishedAt().IsZero() {
		t.Error("FinishedAt should be zero while the task runs")
	}

	close(release)
	<-task.Done()
	if task.Err() == nil {
		t.Error("Expected error after completion")
	}
}

func TestTasks_RecoversPanic(t *testing.T) {
	ts := NewTasks()

	task := ts.Go("alarm", func() error { panic("boom") })
	<-task.Done()

	if task.Err() == nil || !strings.Contains(task.Err().Error(), "boom") {
		t.Errorf("Expected panic to be reported, got %v", task.Err())
	}
}

func TestTasks_WaitTimesOut(t *testing.T) {
	ts := NewTasks()
	release := make(chan struct{})
	defer close(release)

	ts.Go("alarm", func() error {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := ts.Wait(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}

func TestTasks_WaitJoinsAll(t *testing.T) {
	ts := NewTasks()
	for i := 0; i < 5; i++ {
		ts.Go("job", func() error {
			time.Sleep(5 * time.Millisecond)
			return nil
		})
	}

	if err := ts.Wait(context.Background()); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	for _, task := range ts.Launched() {
		select {
		case <-task.Done():
		default:
			t.Errorf("Task %s still running after Wait", task.Name())
		}
	}
}
