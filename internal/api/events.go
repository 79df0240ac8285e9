package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/doorlight/internal/events"
)

// registerSSERoutes registers the native Huma SSE endpoint.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time stream of door, connectivity, provisioning and indicator events",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"door-state-changed":   events.DoorStateChangedEvent{},
		"connectivity-changed": events.ConnectivityChangedEvent{},
		"provisioning-changed": events.ProvisioningStateChangedEvent{},
		"indicator-action":     events.IndicatorActionEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 16)
		unsubscribe := events.SubscribeAll(s.eventBus, eventCh)
		defer unsubscribe()

		// New clients learn the current door position without waiting for a change.
		if s.options.Door != nil {
			if open, known := s.options.Door.State(); known {
				if err := send.Data(events.DoorStateChangedEvent{
					Open:      open,
					Pin:       s.options.DoorPin,
					Timestamp: time.Now().Format(time.RFC3339),
				}); err != nil {
					return
				}
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
