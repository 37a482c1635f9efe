package models

import "time"

// Assignment weight bounds. Weights of one lapse in one academic load add up to at most MaxWeight.
const (
	MinWeight = 1
	MaxWeight = 100
)

// Assignment is gradable work scoped to one academic load and lapse.
type Assignment struct {
	ID             string    `db:"id" json:"id"`
	AcademicLoadID string    `db:"academic_load_id" json:"academic_load_id"`
	LapseID        string    `db:"lapse_id" json:"lapse_id"`
	Description    string    `db:"description" json:"description"`
	Weight         int       `db:"weight" json:"weight"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// AssignmentFilter scopes assignment listings.
type AssignmentFilter struct {
	AcademicLoadID string
	LapseID        string
}
