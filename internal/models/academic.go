package models

import "time"

// Lapse is a grading sub-period (trimester) inside an academic period.
type Lapse struct {
	ID           string `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	DisplayOrder int    `db:"display_order" json:"display_order"`
}

// StudyYear is an ordinal grade level. Year starts at 1.
type StudyYear struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	Year int    `db:"year" json:"year"`
}

// Course belongs to exactly one study year.
type Course struct {
	ID          string `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	StudyYearID string `db:"study_year_id" json:"study_year_id"`
}

// AcademicPeriod is a school year bounded by its start and end dates.
type AcademicPeriod struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
}

// Contains reports whether t falls inside the inclusive [start, end] range.
func (p AcademicPeriod) Contains(t time.Time) bool {
	return !t.Before(p.StartDate) && !t.After(p.EndDate)
}

// Section groups students of one study year within an academic period.
type Section struct {
	ID               string `db:"id" json:"id"`
	Name             string `db:"name" json:"name"`
	StudyYearID      string `db:"study_year_id" json:"study_year_id"`
	AcademicPeriodID string `db:"academic_period_id" json:"academic_period_id"`
}

// AcademicLoad assigns a teacher to a course for an academic period.
type AcademicLoad struct {
	ID               string  `db:"id" json:"id"`
	TeacherID        string  `db:"teacher_id" json:"teacher_id"`
	CourseID         string  `db:"course_id" json:"course_id"`
	AcademicPeriodID string  `db:"academic_period_id" json:"academic_period_id"`
	SectionID        *string `db:"section_id" json:"section_id,omitempty"`
}
