package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/doorlight/internal/api/models"
	"github.com/smazurov/doorlight/internal/logging"
)

var levelRank = map[string]int{
	"debug": 0,
	"info":  1,
	"warn":  2,
	"error": 3,
}

func (s *Server) registerLogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-logs",
		Method:      http.MethodGet,
		Path:        "/api/logs",
		Summary:     "Recent Logs",
		Description: "Get recent log entries kept in memory, optionally filtered by module and minimum level",
		Tags:        []string{"logs"},
		Security:    withAuth(),
		Errors:      []int{400, 401},
	}, func(_ context.Context, input *models.LogsRequest) (*models.LogsResponse, error) {
		minRank := 0
		if input.Level != "" {
			rank, ok := levelRank[input.Level]
			if !ok {
				return nil, huma.Error400BadRequest("Level must be one of debug, info, warn, error")
			}
			minRank = rank
		}

		entries := s.options.History.Recent(input.Limit, func(e logging.Entry) bool {
			if input.Module != "" && e.Module != input.Module {
				return false
			}
			return levelRank[e.Level] >= minRank
		})
		return &models.LogsResponse{Body: models.LogsData{Entries: entries}}, nil
	})
}
