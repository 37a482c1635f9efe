package dto

// CreateAssignmentRequest payload for POST /assignments.
type CreateAssignmentRequest struct {
	AcademicLoadID string `json:"academic_load_id" validate:"required"`
	LapseID        string `json:"lapse_id" validate:"required"`
	Description    string `json:"description" validate:"required,max=255"`
	Weight         int    `json:"weight" validate:"required,min=1,max=100"`
}

// UpdateAssignmentRequest payload for PUT /assignments/:id.
type UpdateAssignmentRequest struct {
	Description string `json:"description" validate:"required,max=255"`
	Weight      int    `json:"weight" validate:"required,min=1,max=100"`
}
