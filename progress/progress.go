// Package progress is the batteries-included entry point: it assembles the
// engine, storage, identity resolution, and realtime plumbing behind a small
// functional-options builder so library consumers get a working service in
// one call.
package progress

import (
	"log/slog"
	"time"

	mem "progresskit/adapters/memory"
	"progresskit/engine"
	"progresskit/realtime"
)

// Option configures the service builder.
type Option func(*config)

type config struct {
	storage  engine.Storage
	resolver engine.UserResolver
	notifier engine.NotificationSink
	mode     engine.DispatchMode
	hub      *realtime.Hub
	clock    func() time.Time
	logger   *slog.Logger
}

// WithStorage sets the persistence adapter.
func WithStorage(s engine.Storage) Option { return func(c *config) { c.storage = s } }

// WithResolver sets the user resolver.
func WithResolver(r engine.UserResolver) Option { return func(c *config) { c.resolver = r } }

// WithNotifier sets the notification sink.
func WithNotifier(n engine.NotificationSink) Option { return func(c *config) { c.notifier = n } }

// WithDispatchMode selects sync or async event dispatch.
func WithDispatchMode(m engine.DispatchMode) Option { return func(c *config) { c.mode = m } }

// WithRealtime wires a realtime hub to receive all engine events.
func WithRealtime(h *realtime.Hub) Option { return func(c *config) { c.hub = h } }

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option { return func(c *config) { c.clock = clock } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(c *config) { c.logger = l } }

// New builds a configured Service. Defaults when not overridden:
//   - storage: in-memory
//   - resolver: open in-memory directory (unknown ids materialize)
//   - dispatch: async
func New(opts ...Option) *engine.Service {
	cfg := &config{mode: engine.DispatchAsync}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.storage == nil {
		cfg.storage = mem.New()
	}
	if cfg.resolver == nil {
		cfg.resolver = mem.NewOpenDirectory()
	}

	bus := engine.NewEventBus(cfg.mode)
	var svcOpts []engine.ServiceOption
	if cfg.notifier != nil {
		svcOpts = append(svcOpts, engine.WithNotifier(cfg.notifier))
	}
	if cfg.clock != nil {
		svcOpts = append(svcOpts, engine.WithClock(cfg.clock))
	}
	if cfg.logger != nil {
		svcOpts = append(svcOpts, engine.WithLogger(cfg.logger))
	}
	svc := engine.NewService(cfg.storage, cfg.resolver, bus, svcOpts...)
	if cfg.hub != nil {
		realtime.Bridge(bus, cfg.hub)
	}
	return svc
}
