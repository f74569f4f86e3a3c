package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type fakeWriter struct {
	msgs  []kafka.Message
	err   error
	calls int
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, time.Second, zap.NewNop())

	e := Event{
		ID:            uuid.New(),
		Type:          AppointmentApproved,
		AppointmentID: uuid.New(),
		Status:        "approved",
		OccurredAt:    time.Now().UTC(),
	}
	if err := p.Publish(context.Background(), e); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if len(w.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(w.msgs))
	}
	msg := w.msgs[0]
	if string(msg.Key) != e.AppointmentID.String() {
		t.Errorf("key = %s", msg.Key)
	}
	if len(msg.Headers) != 1 || string(msg.Headers[0].Value) != string(AppointmentApproved) {
		t.Errorf("headers = %+v", msg.Headers)
	}

	var decoded Event
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.AppointmentID != e.AppointmentID || decoded.Type != e.Type {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestKafkaPublisher_BreakerOpens(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := newKafkaPublisher(w, time.Second, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := p.Publish(ctx, Event{Type: AppointmentBooked}); err == nil || errors.Is(err, ErrUnavailable) {
			t.Fatalf("attempt %d: expected write error, got %v", i, err)
		}
	}

	if err := p.Publish(ctx, Event{Type: AppointmentBooked}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable once open, got %v", err)
	}
	if w.calls != 5 {
		t.Errorf("writer called %d times, want 5", w.calls)
	}
}
