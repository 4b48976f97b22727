package model

import "time"

// Redesign is an archived, finished redesign saved by an instructor.
type Redesign struct {
	ID             int64              `json:"id"`
	UserID         int64              `json:"user_id"`
	Title          string             `json:"title"`
	AssignmentText string             `json:"assignment_text"`
	NumStudents    int                `json:"num_students"`
	Skills         []Skill            `json:"skills"`
	Strategies     []AssessmentMethod `json:"strategies"`
	Sections       []TaskSection      `json:"sections"`
	PracticalTips  string             `json:"practical_tips"`
	Rubric         []RubricRow        `json:"rubric,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
}

// RedesignExport is the top-level JSON structure for archive export.
type RedesignExport struct {
	ExportedAt time.Time        `json:"exported_at"`
	Language   string           `json:"language"`
	Count      int              `json:"count"`
	Redesigns  []RedesignRecord `json:"redesigns"`
}

// RedesignRecord holds one archived redesign together with its author.
type RedesignRecord struct {
	Instructor string `json:"instructor"`
	Redesign
}

// AICall is one logged model invocation.
type AICall struct {
	ID        int64     `json:"id"`
	Kind      string    `json:"kind"`
	Model     string    `json:"model"`
	LatencyMs int64     `json:"latency_ms"`
	Success   bool      `json:"success"`
	ErrorKind string    `json:"error_kind,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AICallStats aggregates logged calls per request kind.
type AICallStats struct {
	Kind         string
	Total        int
	Failed       int
	AvgLatencyMs float64
}
