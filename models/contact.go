package models

import "time"

// ContactStatus tracks the handling state of a contact message in the admin dashboard.
type ContactStatus string

const (
	ContactStatusNew      ContactStatus = "new"
	ContactStatusRead     ContactStatus = "read"
	ContactStatusResolved ContactStatus = "resolved"
)

// ContactMessage is a message submitted through the contact form,
// owned by the contact microservice.
type ContactMessage struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Subject   string        `json:"subject"`
	Message   string        `json:"message"`
	Status    ContactStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// ContactCreateRequest is the public contact-form payload.
type ContactCreateRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Subject string `json:"subject" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// ContactStatusPatch is the admin payload for updating a message's status.
type ContactStatusPatch struct {
	Status ContactStatus `json:"status" binding:"required"`
}
