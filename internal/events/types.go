// Package events provides event management functionality.
package events

import (
	"encoding/json"
	"time"
)

// EventType represents different event types
type EventType string

const (
	// Plan lifecycle events
	PlanCreated     EventType = "PLAN_CREATED"
	PlanUpdated     EventType = "PLAN_UPDATED"
	PlanDeactivated EventType = "PLAN_DEACTIVATED"
	PlanValidated   EventType = "PLAN_VALIDATED"

	// Analysis events
	AllocationOptimized  EventType = "ALLOCATION_OPTIMIZED"
	RecommendationsReady EventType = "RECOMMENDATIONS_READY"
	SimulationCompleted  EventType = "SIMULATION_COMPLETED"

	// Trading events
	TradeRecorded EventType = "TRADE_RECORDED"

	// System events
	SettingsChanged EventType = "SETTINGS_CHANGED"
	ErrorOccurred   EventType = "ERROR_OCCURRED"

	// Job lifecycle events
	JobStarted   EventType = "JOB_STARTED"
	JobProgress  EventType = "JOB_PROGRESS"
	JobCompleted EventType = "JOB_COMPLETED"
	JobFailed    EventType = "JOB_FAILED"
)

// AllTypes returns every known event type. The event stream subscribes
// to all of them when the client does not request a filtered subset.
func AllTypes() []EventType {
	return []EventType{
		PlanCreated,
		PlanUpdated,
		PlanDeactivated,
		PlanValidated,
		AllocationOptimized,
		RecommendationsReady,
		SimulationCompleted,
		TradeRecorded,
		SettingsChanged,
		ErrorOccurred,
		JobStarted,
		JobProgress,
		JobCompleted,
		JobFailed,
	}
}

// Event represents a system event
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
	Module    string                 `json:"module"`
}

// GetTypedData attempts to convert the Data map to typed EventData
// Returns the typed data if conversion is successful, nil otherwise
func (e *Event) GetTypedData() EventData {
	if e.Data == nil {
		return nil
	}

	switch e.Type {
	case PlanCreated:
		var data PlanCreatedData
		if err := convertMapToStruct(e.Data, &data); err == nil {
			return &data
		}
	case PlanUpdated:
		var data PlanUpdatedData
		if err := convertMapToStruct(e.Data, &data); err == nil {
			return &data
		}
	case PlanDeactivated:
		var data PlanDeactivatedData
		if err := convertMapToStruct(e.Data, &data); err == nil {
			return &data
		}
	case PlanValidated:
		var data PlanValidatedData
		if err := convertMapToStruct(e.Data, &data); err == nil {
			return &data
		}
	case AllocationOptimized:
		var data AllocationOptimizedData
		if err := convertMapToStruct(e.Data, &data); err == nil {
			return &data
		}
	case RecommendationsReady:
		var data RecommendationsReadyData
		if err := convertMapToStruct(e.Data, &data); err == nil {
			return &data
		}
	case SimulationCompleted:
		var data SimulationCompletedData
		if err := convertMapToStruct(e.Data, &data); err == nil {
			return &data
		}
	case TradeRecorded:
		var data TradeRecordedData
		if err := convertMapToStruct(e.Data, &data); err == nil {
			return &data
		}
	case SettingsChanged:
		var data SettingsChangedData
		if err := convertMapToStruct(e.Data, &data); err == nil {
			return &data
		}
	case ErrorOccurred:
		var data ErrorEventData
		if err := convertMapToStruct(e.Data, &data); err == nil {
			return &data
		}
	case JobStarted, JobProgress, JobCompleted, JobFailed:
		var data JobStatusData
		if err := convertMapToStruct(e.Data, &data); err == nil {
			return &data
		}
	}

	return nil
}

// convertMapToStruct converts a map[string]interface{} to a struct
func convertMapToStruct(m map[string]interface{}, v interface{}) error {
	jsonBytes, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(jsonBytes, v)
}
