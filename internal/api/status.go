package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/doorlight/internal/api/models"
	"github.com/smazurov/doorlight/internal/events"
	"github.com/smazurov/doorlight/internal/led"
)

// provisioningStatus maps reported provisioning states to status keys.
var provisioningStatus = map[string]string{
	events.ProvisioningStarted: led.StatusProvisioning,
	events.ProvisioningFailed:  led.StatusProvisioningFailed,
	events.ProvisioningDone:    led.StatusProvisioned,
}

func (s *Server) registerStatusRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/api/status",
		Summary:     "Get Status",
		Description: "Get the last status shown on the indicator, the door state and the indicator snapshot",
		Tags:        []string{"status"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.StatusResponse, error) {
		resp := &models.StatusResponse{}
		if s.options.Status != nil {
			resp.Body.LastStatus = s.options.Status.LastStatus()
		}
		if s.options.Door != nil {
			open, known := s.options.Door.State()
			resp.Body.Door = &models.DoorData{Known: known, Open: open, Pin: s.options.DoorPin}
		}
		if snap, err := s.indicatorState(); err == nil {
			resp.Body.Indicator = &snap
		}
		return resp, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID:   "report-connectivity",
		Method:        http.MethodPost,
		Path:          "/api/status/connectivity",
		Summary:       "Report Connectivity",
		Description:   "Report the uplink going up or down; the indicator shows the matching pattern",
		Tags:          []string{"status"},
		Security:      withAuth(),
		DefaultStatus: http.StatusAccepted,
		Errors:        []int{400, 401},
	}, func(_ context.Context, input *models.ConnectivityRequest) (*models.StatusAcceptedResponse, error) {
		s.eventBus.Publish(events.ConnectivityChangedEvent{
			Connected: input.Body.Connected,
			Timestamp: time.Now().Format(time.RFC3339),
		})

		status := led.StatusDisconnected
		if input.Body.Connected {
			status = led.StatusConnected
		}
		return &models.StatusAcceptedResponse{Body: models.StatusAcceptedData{Status: status}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID:   "report-provisioning",
		Method:        http.MethodPost,
		Path:          "/api/status/provisioning",
		Summary:       "Report Provisioning",
		Description:   "Report provisioning progress (started, failed, done); the indicator shows the matching pattern",
		Tags:          []string{"status"},
		Security:      withAuth(),
		DefaultStatus: http.StatusAccepted,
		Errors:        []int{400, 401},
	}, func(_ context.Context, input *models.ProvisioningRequest) (*models.StatusAcceptedResponse, error) {
		status, ok := provisioningStatus[input.Body.State]
		if !ok {
			return nil, huma.Error400BadRequest("State must be one of started, failed, done")
		}

		s.eventBus.Publish(events.ProvisioningStateChangedEvent{
			State:     input.Body.State,
			Timestamp: time.Now().Format(time.RFC3339),
		})
		return &models.StatusAcceptedResponse{Body: models.StatusAcceptedData{Status: status}}, nil
	})
}
