package models

import (
	"github.com/smazurov/doorlight/internal/led"
	"github.com/smazurov/doorlight/internal/logging"
)

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"dev" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc1234" doc:"Git commit SHA"`
	BuildDate string `json:"build_date" example:"2024-12-15 14:30" doc:"Build timestamp"`
	BuildID   string `json:"build_id" example:"a1b2c3d4" doc:"Unique build identifier"`
	GoVersion string `json:"go_version" example:"go1.25.7" doc:"Go compiler version"`
	Compiler  string `json:"compiler" example:"gc" doc:"Compiler used"`
	Platform  string `json:"platform" example:"linux/arm64" doc:"Platform"`
}

type VersionResponse struct {
	Body VersionData
}

// Indicator models

// IndicatorResponse wraps the current indicator snapshot.
type IndicatorResponse struct {
	Body led.Snapshot
}

// ActionInfo describes one action the indicator can play.
type ActionInfo struct {
	Name     string `json:"name" example:"blink-slow" doc:"Action name accepted by the push endpoint"`
	Blinks   bool   `json:"blinks" doc:"Whether the action alternates on and off"`
	OnMs     int64  `json:"on_ms,omitempty" example:"100" doc:"On interval in milliseconds"`
	OffMs    int64  `json:"off_ms,omitempty" example:"1900" doc:"Off interval in milliseconds"`
	CycleMs  int64  `json:"cycle_ms,omitempty" example:"2000" doc:"Length of one blink cycle in milliseconds"`
	IsStatic bool   `json:"static" doc:"Whether the action holds one level"`
}

type ActionsData struct {
	Actions     []ActionInfo `json:"actions" doc:"Available actions"`
	Capacity    int          `json:"capacity" example:"8" doc:"Queue capacity"`
	TickMs      int64        `json:"tick_ms" example:"10" doc:"Scheduler tick in milliseconds"`
	Forever     int          `json:"forever" example:"-1" doc:"Repeat value meaning forever"`
	Patterns    led.Patterns `json:"patterns" doc:"Status patterns currently in effect"`
	LastStatus  string       `json:"last_status,omitempty" example:"door_open" doc:"Last status shown"`
	StatusNames []string     `json:"statuses" doc:"Status keys understood by the pattern table"`
}

type ActionsResponse struct {
	Body ActionsData
}

// PushActionRequest queues an action on the indicator.
type PushActionRequest struct {
	Body struct {
		Action  string `json:"action" example:"blink-angry" doc:"Action name (off, blink-slow, blink-angry, blink-once, on)"`
		Repeats int    `json:"repeats" example:"2" doc:"Extra blink cycles after the first, -1 for forever"`
	}
}

type PushActionData struct {
	Action  string `json:"action" example:"blink-angry" doc:"Queued action"`
	Repeats int    `json:"repeats" example:"2" doc:"Queued repeat count"`
	Queued  int    `json:"queued" example:"1" doc:"Queue length after the push"`
}

type PushActionResponse struct {
	Body PushActionData
}

// Status models

type ConnectivityRequest struct {
	Body struct {
		Connected bool `json:"connected" doc:"Whether the uplink is connected"`
	}
}

type ProvisioningRequest struct {
	Body struct {
		State string `json:"state" example:"started" doc:"Provisioning state (started, failed, done)"`
	}
}

type StatusAcceptedData struct {
	Status string `json:"status" example:"connected" doc:"Status key the report maps to"`
}

type StatusAcceptedResponse struct {
	Body StatusAcceptedData
}

type DoorData struct {
	Known bool   `json:"known" doc:"Whether the door sensor has been read"`
	Open  bool   `json:"open" doc:"Whether the door is open"`
	Pin   string `json:"pin,omitempty" example:"GPIO20" doc:"Relay input pin"`
}

type StatusData struct {
	LastStatus string        `json:"last_status,omitempty" example:"door_open" doc:"Last status shown on the indicator"`
	Door       *DoorData     `json:"door,omitempty" doc:"Door sensor state, absent when the relay monitor is disabled"`
	Indicator  *led.Snapshot `json:"indicator,omitempty" doc:"Indicator snapshot, absent when the indicator is not running"`
}

type StatusResponse struct {
	Body StatusData
}

// Log models

type LogsRequest struct {
	Module string `query:"module" example:"relay" doc:"Only entries from this module"`
	Level  string `query:"level" example:"warn" doc:"Minimum level (debug, info, warn, error)"`
	Limit  int    `query:"limit" default:"100" minimum:"0" maximum:"500" doc:"Newest entries to return, 0 for all"`
}

type LogsData struct {
	Entries []logging.Entry `json:"entries" doc:"Log entries, oldest first"`
}

type LogsResponse struct {
	Body LogsData
}
