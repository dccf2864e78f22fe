package models

import "time"

// WindowSummary is the per-window outcome reported to operators.
type WindowSummary struct {
	WindowLabel string `json:"window_label"`
	PostsFound  int64  `json:"posts_found"`
	MinID       int64  `json:"min_id"`
	MaxID       int64  `json:"max_id"`
	Identities  int    `json:"identities"`
	Failures    int    `json:"failures"`
}

// RunReport summarizes one scheduler run across all windows it completed.
type RunReport struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Gallery     string          `json:"gallery"`
	Windows     []WindowSummary `json:"windows"`
}

// AbortAlert is sent when the integrity gate trips and the run stops.
type AbortAlert struct {
	WindowLabel string    `json:"window_label"`
	Failures    int       `json:"failures"`
	Threshold   int       `json:"threshold"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}
