package events

import (
	"encoding/json"
	"time"
)

// EventData is the interface that all event data types must implement
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// RunStatusData describes a report run transition.
type RunStatusData struct {
	RunID     string   `json:"run_id"`
	TradeDate string   `json:"trade_date"`
	Status    string   `json:"status"` // "started", "completed", "failed", "skipped"
	Dev       bool     `json:"dev"`
	Dir       string   `json:"dir,omitempty"`
	Files     []string `json:"files,omitempty"`
	Stage     string   `json:"stage,omitempty"` // failing stage
	Error     string   `json:"error,omitempty"`
	Reason    string   `json:"reason,omitempty"`
	Duration  float64  `json:"duration,omitempty"` // seconds
}

// EventType is determined by the Status field
func (d *RunStatusData) EventType() EventType {
	switch d.Status {
	case "completed":
		return RunCompleted
	case "failed":
		return RunFailed
	case "skipped":
		return RunSkipped
	default:
		return RunStarted
	}
}

// StageStatusData describes a pipeline stage transition.
type StageStatusData struct {
	RunID    string  `json:"run_id"`
	Stage    string  `json:"stage"`
	Status   string  `json:"status"` // "started", "completed", "failed"
	Error    string  `json:"error,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}

// EventType is determined by the Status field
func (d *StageStatusData) EventType() EventType {
	switch d.Status {
	case "completed":
		return StageCompleted
	case "failed":
		return StageFailed
	default:
		return StageStarted
	}
}

// PublishedData lists the objects uploaded for a run.
type PublishedData struct {
	RunID  string   `json:"run_id"`
	Bucket string   `json:"bucket"`
	Keys   []string `json:"keys"`
}

// EventType returns the event type for PublishedData
func (d *PublishedData) EventType() EventType {
	return ReportPublished
}

// JobStatusData contains data for job lifecycle events
type JobStatusData struct {
	JobName   string    `json:"job_name"`
	Status    string    `json:"status"` // "started", "completed", "failed"
	Error     string    `json:"error,omitempty"`
	Duration  float64   `json:"duration,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// EventType is determined by the Status field
func (d *JobStatusData) EventType() EventType {
	switch d.Status {
	case "completed":
		return JobCompleted
	case "failed":
		return JobFailed
	default:
		return JobStarted
	}
}

// ErrorEventData contains data for ErrorOccurred events
type ErrorEventData struct {
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// EventType returns the event type for ErrorEventData
func (d *ErrorEventData) EventType() EventType {
	return ErrorOccurred
}

// GenericEventData is a fallback for events that don't have a specific type
type GenericEventData struct {
	Type EventType              `json:"-"`
	Data map[string]interface{} `json:"-"`
}

// EventType returns the event type for GenericEventData
func (d *GenericEventData) EventType() EventType {
	return d.Type
}

// MarshalJSON customizes JSON serialization for GenericEventData
func (d *GenericEventData) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Data)
}

// UnmarshalJSON customizes JSON deserialization for GenericEventData
func (d *GenericEventData) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &d.Data)
}
