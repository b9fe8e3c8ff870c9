package mqtt

import (
	"context"

	"github.com/gridwatt/evrouter/core/events"
	"github.com/gridwatt/evrouter/core/logger"
	"github.com/gridwatt/evrouter/internal/eventbus"
)

// StartTelemetry forwards substation events from the bus to the
// publisher until the context is canceled. Publish failures are logged
// and never interrupt the loop.
func StartTelemetry(ctx context.Context, bus eventbus.EventBus, pub TelemetryPublisher, log logger.Logger) {
	if bus == nil || pub == nil {
		return
	}
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				var err error
				switch e := ev.(type) {
				case events.StatusEvent:
					err = pub.PublishStatus(e)
				case events.SessionEvent:
					err = pub.PublishSession(e)
				}
				if err != nil && log != nil {
					log.Warnf("telemetry publish: %v", err)
				}
			}
		}
	}()
}
