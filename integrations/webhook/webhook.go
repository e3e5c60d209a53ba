package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"progresskit/core"
	"progresskit/engine"
)

// Sink posts notifications and domain events to configured HTTP endpoints
// as JSON. Deliveries are synchronous and best-effort; the engine already
// treats sink failures as log-and-continue, so one slow endpoint never
// blocks an activity for long.
type Sink struct {
	client    *http.Client
	endpoints []string
}

// Option configures a Sink.
type Option func(*Sink)

// WithClient overrides the HTTP client (defaults to 2s timeout).
func WithClient(c *http.Client) Option {
	return func(s *Sink) {
		if c != nil {
			s.client = c
		}
	}
}

// New creates a webhook sink.
func New(endpoints []string, opts ...Option) *Sink {
	s := &Sink{
		client: &http.Client{Timeout: 2 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.endpoints = append([]string{}, endpoints...)
	return s
}

type payload struct {
	Kind         string             `json:"kind"`
	User         *engine.User       `json:"user,omitempty"`
	Notification *core.Notification `json:"notification,omitempty"`
	Event        *core.Event        `json:"event,omitempty"`
}

// Deliver implements engine.NotificationSink. The first endpoint error is
// returned so callers can log it; remaining endpoints are still attempted.
func (s *Sink) Deliver(ctx context.Context, user engine.User, n core.Notification) error {
	return s.post(ctx, payload{Kind: "notification", User: &user, Notification: &n})
}

// OnEvent posts a domain event to all endpoints. Errors are dropped; wire
// this to an async bus subscription.
func (s *Sink) OnEvent(ctx context.Context, ev core.Event) {
	_ = s.post(ctx, payload{Kind: "event", Event: &ev})
}

// SubscribeTo forwards every bus event to the endpoints. Returns the
// unsubscribe func.
func (s *Sink) SubscribeTo(bus *engine.EventBus) func() {
	return bus.SubscribeAll(s.OnEvent)
}

func (s *Sink) post(ctx context.Context, p payload) error {
	if len(s.endpoints) == 0 {
		return nil
	}
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}
	var firstErr error
	for _, ep := range s.endpoints {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep, bytes.NewReader(body))
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := s.client.Do(req)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		resp.Body.Close()
		if resp.StatusCode >= 400 && firstErr == nil {
			firstErr = fmt.Errorf("webhook %s: status %d", ep, resp.StatusCode)
		}
	}
	return firstErr
}

var _ engine.NotificationSink = (*Sink)(nil)
