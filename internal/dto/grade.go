package dto

// UpsertGradeRequest payload for PUT /assignments/:id/grades/:studentId.
type UpsertGradeRequest struct {
	Score float64 `json:"score" validate:"required,gte=1,lte=20"`
	Note  *string `json:"note,omitempty" validate:"omitempty,max=500"`
}

// BulkGradeItem is one row of a bulk grade upsert.
type BulkGradeItem struct {
	StudentID string  `json:"student_id" validate:"required"`
	Score     float64 `json:"score" validate:"required,gte=1,lte=20"`
	Note      *string `json:"note,omitempty" validate:"omitempty,max=500"`
}

// BulkGradeRequest payload for POST /assignments/:id/grades.
type BulkGradeRequest struct {
	Grades []BulkGradeItem `json:"grades" validate:"required,min=1,dive"`
}
