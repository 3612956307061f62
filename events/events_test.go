package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"eduscan-api/services"
)

type recorder struct {
	mu     sync.Mutex
	got    []Event
	err    error
	closed bool
}

func (r *recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, e)
	return r.err
}

func (r *recorder) Close() error {
	r.closed = true
	return nil
}

func TestMultiPublishesToAll(t *testing.T) {
	a, b := &recorder{}, &recorder{err: errors.New("broker down")}
	m := Multi{a, b}

	err := m.Publish(context.Background(), New(TypePredictionSaved, map[string]string{"id": "1"}))
	if err == nil {
		t.Fatal("expected joined error from failing publisher")
	}
	if len(a.got) != 1 || len(b.got) != 1 {
		t.Errorf("got %d and %d events, want 1 each", len(a.got), len(b.got))
	}

	if err := m.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if !a.closed || !b.closed {
		t.Error("expected every publisher closed")
	}
}

func TestRedisPublisherWithoutRedisIsNoop(t *testing.T) {
	p := NewRedisPublisher(services.NewCacheServiceWithClient(nil))
	if err := p.Publish(context.Background(), New(TypeObservationSaved, nil)); err != nil {
		t.Errorf("Publish() = %v, want nil", err)
	}
}

func TestRedisPublisherSubscribeWithoutRedis(t *testing.T) {
	p := NewRedisPublisher(services.NewCacheServiceWithClient(nil))
	if _, err := p.Subscribe(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Subscribe() error = %v, want ErrUnavailable", err)
	}
}

func TestHubDeliversToSubscribers(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := hub.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe() error: %v", err)
	}

	if err := hub.Publish(context.Background(), New(TypePredictionSaved, map[string]string{"id": "abc"})); err != nil {
		t.Fatalf("Publish() error: %v", err)
	}

	select {
	case raw := <-ch:
		var e struct {
			Type string            `json:"type"`
			Data map[string]string `json:"data"`
		}
		if err := json.Unmarshal(raw, &e); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if e.Type != TypePredictionSaved || e.Data["id"] != "abc" {
			t.Errorf("got %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}

	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected channel closed after cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}

	// Publishing with no subscribers left must not block or fail.
	if err := hub.Publish(context.Background(), New(TypePurgeCompleted, nil)); err != nil {
		t.Errorf("Publish() error: %v", err)
	}
}
