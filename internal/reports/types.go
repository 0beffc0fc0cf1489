// Package reports computes completion statistics per category.
package reports

import "time"

// Report is the analysis of one or more categories.
type Report struct {
	Categories  []CategoryReport `json:"categories"`
	Total       CategoryReport   `json:"total"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// CategoryReport contains task statistics for a category.
type CategoryReport struct {
	Name           string     `json:"name"`
	Total          int        `json:"total"`
	Completed      int        `json:"completed"`
	Pending        int        `json:"pending"`
	CompletionRate float64    `json:"completion_rate"` // percent, 0 when empty
	ByDay          []DayCount `json:"by_day"`          // newest first
}

// DayCount represents completions on a specific day.
type DayCount struct {
	Date      string `json:"date"` // YYYY-MM-DD
	Completed int    `json:"completed"`
}
