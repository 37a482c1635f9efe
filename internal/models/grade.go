package models

import "time"

// Score bounds and the approval threshold on the 20 point scale.
const (
	MinScore          = 1
	MaxScore          = 20
	ApprovalThreshold = 10
)

// Grade is a student's score on one assignment.
type Grade struct {
	ID           string    `db:"id" json:"id"`
	StudentID    string    `db:"student_id" json:"student_id"`
	AssignmentID string    `db:"assignment_id" json:"assignment_id"`
	Score        float64   `db:"score" json:"score"`
	Note         *string   `db:"note" json:"note,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// WeightedScore is the score of one graded assignment together with its weight.
type WeightedScore struct {
	Score  float64 `db:"score"`
	Weight float64 `db:"weight"`
}

// LapseResult is the computed score of one lapse.
type LapseResult struct {
	LapseID   string  `json:"lapse_id"`
	LapseName string  `json:"lapse_name"`
	Score     float64 `json:"score"`
}

// CourseScore is the per-lapse breakdown and final result of one course.
type CourseScore struct {
	StudentID  string        `json:"student_id"`
	CourseID   string        `json:"course_id"`
	CourseName string        `json:"course_name,omitempty"`
	PeriodID   string        `json:"academic_period_id"`
	Lapses     []LapseResult `json:"lapses"`
	FinalScore int           `json:"final_score"`
	Approved   bool          `json:"approved"`
}

// ReportCard lists every course of the study year a student is enrolled in for a period.
type ReportCard struct {
	StudentID string        `json:"student_id"`
	PeriodID  string        `json:"academic_period_id"`
	StudyYear StudyYear     `json:"study_year"`
	Courses   []CourseScore `json:"courses"`
	Approved  bool          `json:"approved"`
}
