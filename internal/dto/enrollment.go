package dto

// EnrollStudentRequest payload for POST /enrollments. An empty StudyYearID asks the server to resolve it.
type EnrollStudentRequest struct {
	StudentID        string  `json:"student_id" validate:"required"`
	AcademicPeriodID string  `json:"academic_period_id" validate:"required"`
	StudyYearID      string  `json:"study_year_id,omitempty"`
	SectionID        *string `json:"section_id,omitempty" validate:"omitempty,min=1"`
}
