package models

import "time"

// SandboxAnalysis is the result of analyzing a composited sandbox image.
type SandboxAnalysis struct {
	ID        int64        `json:"id,omitempty"`
	UserID    string       `json:"user_id,omitempty"`
	Caption   string       `json:"caption"`
	Analysis  string       `json:"analysis"`
	Items     []PlacedItem `json:"placed_items,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

type AnalysisFilter struct {
	UserID string
	Limit  int
}
