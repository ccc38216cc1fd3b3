package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"facealarm/internal/logger"
	"facealarm/internal/models"
	"facealarm/internal/services/alert"
)

func newTestHub() *HubService {
	return NewHubService(logger.NewWriter(io.Discard))
}

func readMessage(t *testing.T, h *HubService) Message {
	t.Helper()

	select {
	case data := <-h.broadcast:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("Invalid JSON %q: %v", data, err)
		}
		return msg
	default:
		t.Fatal("Expected a queued message")
		return Message{}
	}
}

func TestHub_BroadcastDropsWhenFull(t *testing.T) {
	h := newTestHub()

	for i := 0; i < cap(h.broadcast); i++ {
		if !h.Broadcast([]byte("x")) {
			t.Fatalf("Message %d should have been queued", i)
		}
	}
	if h.Broadcast([]byte("overflow")) {
		t.Error("Expected message to be dropped on a full queue")
	}
}

func TestHub_AlertTripped(t *testing.T) {
	h := newTestHub()
	at := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)

	h.AlertTripped(alert.Event{
		Camera:     "0",
		At:         at,
		Detections: []models.Detection{{X: 10, Y: 20, Width: 30, Height: 30}},
	})

	msg := readMessage(t, h)
	if msg.Type != TypeAlert || msg.Camera != "0" || !msg.Time.Equal(at) {
		t.Errorf("Unexpected message %+v", msg)
	}
	if len(msg.Detections) != 1 || msg.Detections[0].Width != 30 {
		t.Errorf("Unexpected detections %+v", msg.Detections)
	}
}

func TestHub_ActionFinished(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus string
		wantError  string
	}{
		{"success", nil, models.StatusOK, ""},
		{"failure", errors.New("connection refused"), models.StatusFailed, "connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHub()
			h.ActionFinished(alert.Result{Action: "send-alert-email", Err: tt.err, FinishedAt: time.Now()})

			msg := readMessage(t, h)
			if msg.Type != TypeAction || msg.Action != "send-alert-email" {
				t.Errorf("Unexpected message %+v", msg)
			}
			if msg.Status != tt.wantStatus || msg.Error != tt.wantError {
				t.Errorf("Expected %s/%q, got %s/%q", tt.wantStatus, tt.wantError, msg.Status, msg.Error)
			}
		})
	}
}

func TestHub_UnregisterAfterStop(t *testing.T) {
	h := newTestHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	done := make(chan struct{})
	go func() {
		h.Unregister(nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Unregister blocked after the hub stopped")
	}
}
