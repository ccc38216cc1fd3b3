package journal

import (
	"context"
	"sync"

	"facealarm/internal/logger"
	"facealarm/internal/models"
	"facealarm/internal/repository"
	"facealarm/internal/services/alert"
)

const queueSize = 16

type entry struct {
	event  *alert.Event
	result *alert.Result
}

// Journal persists alerts and their action outcomes. It implements
// alert.Observer; writes happen on the Run goroutine so the detection loop
// never waits on the database.
type Journal struct {
	runID      string
	alerts     repository.AlertRepository
	detections repository.DetectionRepository
	actions    repository.ActionRepository
	logger     *logger.Logger

	queue chan entry
	wg    sync.WaitGroup

	alertID int64
}

func New(runID string, alerts repository.AlertRepository, detections repository.DetectionRepository, actions repository.ActionRepository, logger *logger.Logger) *Journal {
	return &Journal{
		runID:      runID,
		alerts:     alerts,
		detections: detections,
		actions:    actions,
		logger:     logger,
		queue:      make(chan entry, queueSize),
	}
}

// AlertTripped queues the alert for writing.
func (j *Journal) AlertTripped(ev alert.Event) {
	j.enqueue(entry{event: &ev})
}

// ActionFinished queues an action outcome for writing.
func (j *Journal) ActionFinished(res alert.Result) {
	j.enqueue(entry{result: &res})
}

func (j *Journal) enqueue(e entry) {
	j.wg.Add(1)
	select {
	case j.queue <- e:
	default:
		j.wg.Done()
		j.logger.Warning("⚠️  Journal queue full - dropping entry")
	}
}

// Run writes queued entries until ctx is done, then drains what is left.
func (j *Journal) Run(ctx context.Context) {
	for {
		select {
		case e := <-j.queue:
			j.write(e)
		case <-ctx.Done():
			for {
				select {
				case e := <-j.queue:
					j.write(e)
				default:
					return
				}
			}
		}
	}
}

// Wait blocks until every queued entry has been written. Run must be running.
func (j *Journal) Wait() {
	j.wg.Wait()
}

func (j *Journal) write(e entry) {
	defer j.wg.Done()

	switch {
	case e.event != nil:
		j.writeAlert(*e.event)
	case e.result != nil:
		j.writeResult(*e.result)
	}
}

// Entries arrive in order: the alert is queued before any action starts, so
// alertID is set by the time results are written.
func (j *Journal) writeAlert(ev alert.Event) {
	a := &models.Alert{
		RunID:       j.runID,
		Camera:      ev.Camera,
		TriggeredAt: ev.At,
		FaceCount:   len(ev.Detections),
	}

	id, err := j.alerts.Insert(a)
	if err != nil {
		j.logger.Error("Failed to journal alert: %v", err)
		return
	}
	j.alertID = id

	if err := j.detections.InsertBatch(id, ev.Detections); err != nil {
		j.logger.Error("Failed to journal detections for alert %d: %v", id, err)
	}
	j.logger.Info("Alert %d journaled", id)
}

func (j *Journal) writeResult(res alert.Result) {
	if j.alertID == 0 {
		j.logger.Warning("Dropping result of %s: alert was not journaled", res.Action)
		return
	}

	rec := &models.ActionResult{
		AlertID:    j.alertID,
		Action:     res.Action,
		Status:     models.StatusOK,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
	}
	if res.Err != nil {
		rec.Status = models.StatusFailed
		rec.Error = res.Err.Error()
	}

	if _, err := j.actions.Record(rec); err != nil {
		j.logger.Error("Failed to journal result of %s: %v", res.Action, err)
	}
}
