package models

import "testing"

func TestIsValidStatus(t *testing.T) {
	for _, s := range ValidStatuses() {
		if !IsValidStatus(string(s)) {
			t.Errorf("IsValidStatus(%q) = false, want true", s)
		}
	}

	for _, s := range []string{"", "done", "PENDING", "in-progress"} {
		if IsValidStatus(s) {
			t.Errorf("IsValidStatus(%q) = true, want false", s)
		}
	}
}

func TestIsTerminalStatus(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{string(StatusPending), false},
		{string(StatusProcessing), false},
		{string(StatusCompleted), true},
		{string(StatusIneligible), true},
		{string(StatusFailed), true},
		{"unknown", false},
	}

	for _, tt := range tests {
		if got := IsTerminalStatus(tt.status); got != tt.want {
			t.Errorf("IsTerminalStatus(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}
