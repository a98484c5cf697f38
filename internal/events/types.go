// Package events provides in-process publish/subscribe for scan progress.
package events

import "time"

// EventType represents different event types
type EventType string

const (
	ScanStarted     EventType = "SCAN_STARTED"
	ItemCompleted   EventType = "ITEM_COMPLETED"
	ItemFailed      EventType = "ITEM_FAILED"
	ScanCompleted   EventType = "SCAN_COMPLETED"
	BackupCompleted EventType = "BACKUP_COMPLETED"
	ErrorOccurred   EventType = "ERROR_OCCURRED"
)

// AllTypes lists every event type the system emits
var AllTypes = []EventType{
	ScanStarted,
	ItemCompleted,
	ItemFailed,
	ScanCompleted,
	BackupCompleted,
	ErrorOccurred,
}

// Event represents a system event
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Module    string    `json:"module"`
	Data      EventData `json:"data"`
}
