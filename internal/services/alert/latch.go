package alert

import (
	"context"
	"time"

	"facealarm/internal/logger"
	"facealarm/internal/models"
)

// Action is a one-shot side effect fired when the latch trips.
type Action interface {
	Name() string
	Run(ctx context.Context) error
}

// Event describes the detection that tripped the latch.
type Event struct {
	Camera     string
	Detections []models.Detection
	At         time.Time
}

// Result is reported to observers when an action returns.
type Result struct {
	Action     string
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// Observer is notified when the latch trips and when each action finishes.
// AlertTripped is called on the detection loop before any action starts, so
// implementations must not block.
type Observer interface {
	AlertTripped(ev Event)
	ActionFinished(res Result)
}

// Latch turns the first detection of the process lifetime into one launch of
// every configured action.
type Latch struct {
	state     *State
	tasks     *Tasks
	actions   []Action
	observers []Observer
	logger    *logger.Logger
}

func NewLatch(state *State, tasks *Tasks, logger *logger.Logger, actions ...Action) *Latch {
	return &Latch{
		state:   state,
		tasks:   tasks,
		actions: actions,
		logger:  logger,
	}
}

// AddObserver registers o. Must be called before the loop starts.
func (l *Latch) AddObserver(o Observer) {
	l.observers = append(l.observers, o)
}

// OnDetection launches every action if this call is the one that trips the
// latch and reports whether it did. Later calls are no-ops. The actions run
// detached from ctx cancellation so shutting the loop down does not abort an
// alarm or an email already in flight.
func (l *Latch) OnDetection(ctx context.Context, ev Event) bool {
	if !l.state.Trigger() {
		return false
	}

	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	l.logger.Info("🚨 Alert triggered on camera %s: %d face(s)", ev.Camera, len(ev.Detections))

	for _, o := range l.observers {
		o.AlertTripped(ev)
	}

	taskCtx := context.WithoutCancel(ctx)
	for _, action := range l.actions {
		l.launch(taskCtx, action)
	}
	return true
}

// Triggered reports whether the latch has already tripped.
func (l *Latch) Triggered() bool {
	return l.state.Triggered()
}

// Tasks returns the tracker holding the launched actions.
func (l *Latch) Tasks() *Tasks {
	return l.tasks
}

func (l *Latch) launch(ctx context.Context, action Action) {
	name := action.Name()
	l.tasks.Go(name, func() error {
		started := time.Now()
		err := runAction(ctx, action)
		res := Result{
			Action:     name,
			Err:        err,
			StartedAt:  started,
			FinishedAt: time.Now(),
		}

		if err != nil {
			l.logger.Error("Alert action %s failed: %v", name, err)
		} else {
			l.logger.Info("Alert action %s finished in %s", name, res.FinishedAt.Sub(started).Round(time.Millisecond))
		}

		for _, o := range l.observers {
			o.ActionFinished(res)
		}
		return err
	})
}

// runAction converts a panic in the action into an error so observers still
// hear about it.
func runAction(ctx context.Context, action Action) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Action: action.Name(), Value: r}
		}
	}()
	return action.Run(ctx)
}
