package models

// ProgressionReason explains how a study year was resolved.
type ProgressionReason string

const (
	ProgressionNoEnrollments  ProgressionReason = "NO_ENROLLMENTS"
	ProgressionNoClosedPeriod ProgressionReason = "NO_CLOSED_PERIOD"
	ProgressionApproved       ProgressionReason = "APPROVED"
	ProgressionNotApproved    ProgressionReason = "NOT_APPROVED"
)

// CourseOutcome is the final result of one reference course.
type CourseOutcome struct {
	CourseID   string `json:"course_id"`
	CourseName string `json:"course_name"`
	FinalScore int    `json:"final_score"`
	Approved   bool   `json:"approved"`
}

// ProgressionDecision is the full trace of a progression evaluation.
// StudyYear is nil when no study years exist.
type ProgressionDecision struct {
	StudentID string             `json:"student_id"`
	Reason    ProgressionReason  `json:"reason"`
	Reference *StudentEnrollment `json:"reference,omitempty"`
	Courses   []CourseOutcome    `json:"courses,omitempty"`
	Approved  bool               `json:"approved"`
	StudyYear *StudyYear         `json:"study_year"`
}
