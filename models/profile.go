package models

import "time"

// UserProfile holds the editable demographic/bio fields of a user account,
// owned by the auth microservice and independent of any test data.
type UserProfile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	BirthDate string    `json:"birth_date,omitempty"` // YYYY-MM-DD
	Gender    string    `json:"gender,omitempty"`
	Education string    `json:"education,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProfileUpdate is the PATCH payload for profile edits. Pointer fields
// distinguish "leave unchanged" from "clear".
type ProfileUpdate struct {
	FullName  *string `json:"full_name,omitempty"`
	BirthDate *string `json:"birth_date,omitempty"`
	Gender    *string `json:"gender,omitempty"`
	Education *string `json:"education,omitempty"`
	Bio       *string `json:"bio,omitempty"`
}

// PasswordChangeRequest is the payload for a password change against the auth service.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}
