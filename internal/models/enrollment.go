package models

import "time"

// Enrollment places a student in a study year for an academic period.
type Enrollment struct {
	ID               string    `db:"id" json:"id"`
	StudentID        string    `db:"student_id" json:"student_id"`
	StudyYearID      string    `db:"study_year_id" json:"study_year_id"`
	AcademicPeriodID string    `db:"academic_period_id" json:"academic_period_id"`
	SectionID        *string   `db:"section_id" json:"section_id,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// StudentEnrollment is the projection of an enrollment used by progression.
type StudentEnrollment struct {
	StudyYearID      string `db:"study_year_id" json:"study_year_id"`
	StudyYearOrdinal int    `db:"study_year_ordinal" json:"study_year_ordinal"`
	AcademicPeriodID string `db:"academic_period_id" json:"academic_period_id"`
}
