package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/doorlight/internal/api/models"
	"github.com/smazurov/doorlight/internal/events"
	"github.com/smazurov/doorlight/internal/led"
)

var errIndicatorGone = errors.New("indicator handle is no longer valid")

func (s *Server) registerIndicatorRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-indicator",
		Method:      http.MethodGet,
		Path:        "/api/indicator",
		Summary:     "Get Indicator",
		Description: "Get the queue and playback state of the status indicator",
		Tags:        []string{"indicator"},
		Security:    withAuth(),
		Errors:      []int{401, 404},
	}, func(_ context.Context, _ *struct{}) (*models.IndicatorResponse, error) {
		snap, err := s.indicatorState()
		if err != nil {
			return nil, err
		}
		return &models.IndicatorResponse{Body: snap}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "list-indicator-actions",
		Method:      http.MethodGet,
		Path:        "/api/indicator/actions",
		Summary:     "List Indicator Actions",
		Description: "List the actions the indicator can play with their timings, plus the status pattern table",
		Tags:        []string{"indicator"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.ActionsResponse, error) {
		cfg := s.options.IndicatorConfig
		resp := &models.ActionsResponse{
			Body: models.ActionsData{
				Actions:     actionInfos(cfg.Timings),
				Capacity:    cfg.Capacity,
				TickMs:      cfg.TickQuantum.Milliseconds(),
				Forever:     led.Forever,
				Patterns:    led.DefaultPatterns(),
				StatusNames: led.Statuses(),
			},
		}
		if s.options.Status != nil {
			resp.Body.Patterns = s.options.Status.Patterns()
			resp.Body.LastStatus = s.options.Status.LastStatus()
		}
		return resp, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID:   "push-indicator-action",
		Method:        http.MethodPost,
		Path:          "/api/indicator/actions",
		Summary:       "Push Indicator Action",
		Description:   "Queue an action on the indicator. A full queue evicts its oldest entry.",
		Tags:          []string{"indicator"},
		Security:      withAuth(),
		DefaultStatus: http.StatusAccepted,
		Errors:        []int{400, 401, 404},
	}, func(_ context.Context, input *models.PushActionRequest) (*models.PushActionResponse, error) {
		action, err := led.ParseAction(input.Body.Action)
		if err != nil {
			return nil, huma.Error400BadRequest("Unknown action", err)
		}
		if input.Body.Repeats < led.Forever {
			return nil, huma.Error400BadRequest("Repeats must be -1 (forever) or a non-negative count")
		}
		if _, err := s.indicatorState(); err != nil {
			return nil, err
		}

		s.options.Indicator.Push(action, input.Body.Repeats)
		s.eventBus.Publish(events.IndicatorActionEvent{
			Action:    action.String(),
			Repeats:   input.Body.Repeats,
			Source:    "api",
			Timestamp: time.Now().Format(time.RFC3339),
		})

		queued := 0
		if snap, ok := s.options.Indicator.State(); ok {
			queued = snap.Queued
		}
		s.logger.Info("Indicator action queued", "action", action, "repeats", input.Body.Repeats, "queued", queued)

		return &models.PushActionResponse{
			Body: models.PushActionData{
				Action:  action.String(),
				Repeats: input.Body.Repeats,
				Queued:  queued,
			},
		}, nil
	})
}

// indicatorState returns the current snapshot or a 404.
func (s *Server) indicatorState() (led.Snapshot, error) {
	if s.options.Indicator == nil {
		return led.Snapshot{}, huma.Error404NotFound("Indicator is not running")
	}
	snap, ok := s.options.Indicator.State()
	if !ok {
		return led.Snapshot{}, huma.Error404NotFound("Indicator is not running", errIndicatorGone)
	}
	return snap, nil
}

func actionInfos(t led.Timings) []models.ActionInfo {
	infos := make([]models.ActionInfo, 0, len(led.Actions()))
	for _, a := range led.Actions() {
		on, off := t.Phases(a)
		infos = append(infos, models.ActionInfo{
			Name:     a.String(),
			Blinks:   a.Blinks(),
			OnMs:     on.Milliseconds(),
			OffMs:    off.Milliseconds(),
			CycleMs:  (on + off).Milliseconds(),
			IsStatic: !a.Blinks(),
		})
	}
	return infos
}
