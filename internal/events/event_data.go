package events

import "time"

// EventData is the interface that all event data types must implement
// This allows for type-safe event data while maintaining flexibility
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// PlanCreatedData contains data for PlanCreated events
type PlanCreatedData struct {
	PlanID    string `json:"plan_id"`
	Name      string `json:"name"`
	RiskLevel string `json:"risk_level"`
}

// EventType returns the event type for PlanCreatedData
func (d *PlanCreatedData) EventType() EventType {
	return PlanCreated
}

// PlanUpdatedData contains data for PlanUpdated events
type PlanUpdatedData struct {
	PlanID        string   `json:"plan_id"`
	Name          string   `json:"name"`
	RiskLevel     string   `json:"risk_level"`
	UpdatedFields []string `json:"updated_fields,omitempty"`
}

// EventType returns the event type for PlanUpdatedData
func (d *PlanUpdatedData) EventType() EventType {
	return PlanUpdated
}

// PlanDeactivatedData contains data for PlanDeactivated events
type PlanDeactivatedData struct {
	PlanID string `json:"plan_id"`
}

// EventType returns the event type for PlanDeactivatedData
func (d *PlanDeactivatedData) EventType() EventType {
	return PlanDeactivated
}

// PlanValidatedData contains data for PlanValidated events
type PlanValidatedData struct {
	PlanID       string `json:"plan_id,omitempty"`
	Name         string `json:"name,omitempty"`
	IsValid      bool   `json:"is_valid"`
	ErrorCount   int    `json:"error_count"`
	WarningCount int    `json:"warning_count"`
}

// EventType returns the event type for PlanValidatedData
func (d *PlanValidatedData) EventType() EventType {
	return PlanValidated
}

// AllocationOptimizedData contains data for AllocationOptimized events
type AllocationOptimizedData struct {
	PlanID   string `json:"plan_id,omitempty"`
	Name     string `json:"name,omitempty"`
	Strategy string `json:"strategy"`
}

// EventType returns the event type for AllocationOptimizedData
func (d *AllocationOptimizedData) EventType() EventType {
	return AllocationOptimized
}

// RecommendationsReadyData contains data for RecommendationsReady events
type RecommendationsReadyData struct {
	PlanID string `json:"plan_id,omitempty"`
	Count  int    `json:"count"`
}

// EventType returns the event type for RecommendationsReadyData
func (d *RecommendationsReadyData) EventType() EventType {
	return RecommendationsReady
}

// SimulationCompletedData contains data for SimulationCompleted events
type SimulationCompletedData struct {
	PlanID             string  `json:"plan_id,omitempty"`
	Trials             int     `json:"trials"`
	MeanFinalValue     float64 `json:"mean_final_value"`
	SuccessProbability float64 `json:"success_probability"`
	Cached             bool    `json:"cached,omitempty"`
}

// EventType returns the event type for SimulationCompletedData
func (d *SimulationCompletedData) EventType() EventType {
	return SimulationCompleted
}

// TradeRecordedData contains data for TradeRecorded events
type TradeRecordedData struct {
	OrderID  string  `json:"order_id"`
	Asset    string  `json:"asset"`
	Side     string  `json:"side"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
	Source   string  `json:"source,omitempty"`
}

// EventType returns the event type for TradeRecordedData
func (d *TradeRecordedData) EventType() EventType {
	return TradeRecorded
}

// SettingsChangedData contains data for SettingsChanged events
type SettingsChangedData struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// EventType returns the event type for SettingsChangedData
func (d *SettingsChangedData) EventType() EventType {
	return SettingsChanged
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

// JobProgressInfo contains progress information for a job
type JobProgressInfo struct {
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Message string `json:"message,omitempty"`
}

// JobStatusData contains data for job lifecycle events
type JobStatusData struct {
	JobID       string           `json:"job_id"`
	JobType     string           `json:"job_type"`
	Status      string           `json:"status"` // "started", "progress", "completed", "failed"
	Description string           `json:"description,omitempty"`
	Progress    *JobProgressInfo `json:"progress,omitempty"`
	Error       string           `json:"error,omitempty"`
	Duration    float64          `json:"duration,omitempty"`
	Timestamp   time.Time        `json:"timestamp"`
}

// EventType returns the event type for JobStatusData
// Note: The actual event type is determined by the Status field
func (d *JobStatusData) EventType() EventType {
	switch d.Status {
	case "started":
		return JobStarted
	case "progress":
		return JobProgress
	case "completed":
		return JobCompleted
	case "failed":
		return JobFailed
	default:
		return JobStarted
	}
}
