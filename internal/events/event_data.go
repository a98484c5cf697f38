package events

// EventData is the interface that all event data types must implement
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// ScanStartedData contains data for ScanStarted events
type ScanStartedData struct {
	RunID   string `json:"run_id"`
	Items   int    `json:"items"`
	Workers int    `json:"workers"`
}

// EventType returns the event type for ScanStartedData
func (d *ScanStartedData) EventType() EventType {
	return ScanStarted
}

// ItemCompletedData contains data for ItemCompleted events.
// It never carries the plaintext assessment.
type ItemCompletedData struct {
	RunID        string  `json:"run_id"`
	Index        int     `json:"index"`
	Path         string  `json:"path"`
	EntropyScore float64 `json:"entropy_score"`
}

// EventType returns the event type for ItemCompletedData
func (d *ItemCompletedData) EventType() EventType {
	return ItemCompleted
}

// ItemFailedData contains data for ItemFailed events
type ItemFailedData struct {
	RunID string `json:"run_id"`
	Index int    `json:"index"`
	Path  string `json:"path"`
	Stage string `json:"stage"`
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// EventType returns the event type for ItemFailedData
func (d *ItemFailedData) EventType() EventType {
	return ItemFailed
}

// ScanCompletedData contains data for ScanCompleted events
type ScanCompletedData struct {
	RunID      string `json:"run_id"`
	Succeeded  int    `json:"succeeded"`
	Failed     int    `json:"failed"`
	DurationMS int64  `json:"duration_ms"`
}

// EventType returns the event type for ScanCompletedData
func (d *ScanCompletedData) EventType() EventType {
	return ScanCompleted
}

// BackupCompletedData contains data for BackupCompleted events
type BackupCompletedData struct {
	Key       string `json:"key"`
	SizeBytes int64  `json:"size_bytes"`
}

// EventType returns the event type for BackupCompletedData
func (d *BackupCompletedData) EventType() EventType {
	return BackupCompleted
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
