// Package models provides domain types and constants for the class census
// service.
//
// This file consolidates the repository status constants used throughout the
// application. Import these constants instead of defining local ones.
package models

// AnalysisStatus represents the persisted lifecycle status of a repository.
type AnalysisStatus string

const (
	StatusPending    AnalysisStatus = "pending"
	StatusProcessing AnalysisStatus = "processing"
	StatusCompleted  AnalysisStatus = "completed"
	StatusIneligible AnalysisStatus = "ineligible"
	StatusFailed     AnalysisStatus = "failed"
)

// ValidStatuses returns all valid repository status values.
func ValidStatuses() []AnalysisStatus {
	return []AnalysisStatus{
		StatusPending,
		StatusProcessing,
		StatusCompleted,
		StatusIneligible,
		StatusFailed,
	}
}

// IsValidStatus checks if a status value is valid.
func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses() {
		if string(s) == status {
			return true
		}
	}
	return false
}

// IsTerminalStatus reports whether a status ends an analysis cycle. A record
// in a terminal status holds no processing lease and may be re-analyzed.
func IsTerminalStatus(status string) bool {
	switch AnalysisStatus(status) {
	case StatusCompleted, StatusIneligible, StatusFailed:
		return true
	default:
		return false
	}
}
