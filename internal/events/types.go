// Package events provides the in-process event bus used to report run
// progress to the scheduler, the HTTP API and websocket clients.
package events

import (
	"encoding/json"
	"time"
)

// EventType represents different event types
type EventType string

const (
	// Report run lifecycle
	RunStarted   EventType = "REPORT_RUN_STARTED"
	RunCompleted EventType = "REPORT_RUN_COMPLETED"
	RunFailed    EventType = "REPORT_RUN_FAILED"
	RunSkipped   EventType = "REPORT_RUN_SKIPPED"

	// Pipeline stages
	StageStarted   EventType = "REPORT_STAGE_STARTED"
	StageCompleted EventType = "REPORT_STAGE_COMPLETED"
	StageFailed    EventType = "REPORT_STAGE_FAILED"

	ReportPublished EventType = "REPORT_PUBLISHED"

	// Scheduled jobs
	JobStarted   EventType = "JOB_STARTED"
	JobCompleted EventType = "JOB_COMPLETED"
	JobFailed    EventType = "JOB_FAILED"

	ErrorOccurred EventType = "ERROR_OCCURRED"
)

// AllTypes lists every event type, for subscribers that want everything.
var AllTypes = []EventType{
	RunStarted,
	RunCompleted,
	RunFailed,
	RunSkipped,
	StageStarted,
	StageCompleted,
	StageFailed,
	ReportPublished,
	JobStarted,
	JobCompleted,
	JobFailed,
	ErrorOccurred,
}

// Event represents a system event
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Module    string    `json:"module"`
	Data      EventData `json:"data,omitempty"`
}

// UnmarshalJSON decodes Data into the concrete type registered for Type.
func (e *Event) UnmarshalJSON(b []byte) error {
	var aux struct {
		Type      EventType       `json:"type"`
		Timestamp time.Time       `json:"timestamp"`
		Module    string          `json:"module"`
		Data      json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	e.Type = aux.Type
	e.Timestamp = aux.Timestamp
	e.Module = aux.Module
	e.Data = nil

	if len(aux.Data) == 0 || string(aux.Data) == "null" {
		return nil
	}

	var data EventData
	switch aux.Type {
	case RunStarted, RunCompleted, RunFailed, RunSkipped:
		data = &RunStatusData{}
	case StageStarted, StageCompleted, StageFailed:
		data = &StageStatusData{}
	case ReportPublished:
		data = &PublishedData{}
	case JobStarted, JobCompleted, JobFailed:
		data = &JobStatusData{}
	case ErrorOccurred:
		data = &ErrorEventData{}
	default:
		var raw map[string]interface{}
		if err := json.Unmarshal(aux.Data, &raw); err != nil {
			return err
		}
		e.Data = &GenericEventData{Type: aux.Type, Data: raw}
		return nil
	}

	if err := json.Unmarshal(aux.Data, data); err != nil {
		return err
	}
	e.Data = data
	return nil
}
