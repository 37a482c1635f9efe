package models

// Student is a person enrolled in the school. UserID links the login account when present.
type Student struct {
	ID       string  `db:"id" json:"id"`
	UserID   *string `db:"user_id" json:"user_id,omitempty"`
	FullName string  `db:"full_name" json:"full_name"`
	Active   bool    `db:"active" json:"active"`
}

// Teacher owns academic loads.
type Teacher struct {
	ID       string  `db:"id" json:"id"`
	UserID   *string `db:"user_id" json:"user_id,omitempty"`
	FullName string  `db:"full_name" json:"full_name"`
}
