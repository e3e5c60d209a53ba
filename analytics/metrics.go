package analytics

import (
	"context"

	"progresskit/core"
	"progresskit/engine"
)

// BridgeHook bridges an event source to multiple hooks.
type BridgeHook struct{ hooks []Hook }

func NewBridge(hooks ...Hook) *BridgeHook { return &BridgeHook{hooks: hooks} }

func (b *BridgeHook) OnEvent(e core.Event) {
	for _, h := range b.hooks {
		h.OnEvent(e)
	}
}

// Bind subscribes a hook to every event on the bus and returns the
// unsubscribe func.
func Bind(bus *engine.EventBus, hook Hook) func() {
	return bus.SubscribeAll(func(_ context.Context, e core.Event) {
		hook.OnEvent(e)
	})
}
