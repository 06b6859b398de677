package services

import (
	"context"
	"fmt"
	"log"
	"net/url"

	"careercompass/clients"
	"careercompass/models"
)

// ContactService wraps the contact microservice: the public contact form plus
// the admin-side message management. Contact data is not cached; the admin
// dashboard always wants the live list.
type ContactService interface {
	Submit(ctx context.Context, req models.ContactCreateRequest) (*models.ContactMessage, error)
	List(ctx context.Context) ([]models.ContactMessage, error)
	UpdateStatus(ctx context.Context, id string, patch models.ContactStatusPatch) (*models.ContactMessage, error)
	Delete(ctx context.Context, id string) error
}

type contactService struct {
	rest *clients.REST
}

// NewContactService creates a ContactService over the contact microservice.
func NewContactService(rest *clients.REST) ContactService {
	return &contactService{rest: rest}
}

func (s *contactService) Submit(ctx context.Context, req models.ContactCreateRequest) (*models.ContactMessage, error) {
	var msg models.ContactMessage
	if err := s.rest.PostJSON(ctx, "/api/v1/contact_service/contacts", req, &msg); err != nil {
		log.Printf("ERROR: [ContactService] Failed to submit contact message from '%s': %v", req.Email, err)
		return nil, fmt.Errorf("submit contact message: %w", err)
	}
	log.Printf("INFO: [ContactService] Contact message %s submitted by '%s'.", msg.ID, req.Email)
	return &msg, nil
}

func (s *contactService) List(ctx context.Context) ([]models.ContactMessage, error) {
	var msgs []models.ContactMessage
	if err := s.rest.GetJSON(ctx, "/api/v1/contact_service/contacts", &msgs); err != nil {
		log.Printf("ERROR: [ContactService] Failed to list contact messages: %v", err)
		return nil, fmt.Errorf("list contact messages: %w", err)
	}
	return msgs, nil
}

func (s *contactService) UpdateStatus(ctx context.Context, id string, patch models.ContactStatusPatch) (*models.ContactMessage, error) {
	var msg models.ContactMessage
	path := fmt.Sprintf("/api/v1/contact_service/contacts/%s", url.PathEscape(id))
	if err := s.rest.PatchJSON(ctx, path, patch, &msg); err != nil {
		return nil, fmt.Errorf("update contact message %s: %w", id, err)
	}
	log.Printf("INFO: [ContactService] Contact message %s marked '%s'.", id, patch.Status)
	return &msg, nil
}

func (s *contactService) Delete(ctx context.Context, id string) error {
	path := fmt.Sprintf("/api/v1/contact_service/contacts/%s", url.PathEscape(id))
	if err := s.rest.DeleteJSON(ctx, path, nil); err != nil {
		return fmt.Errorf("delete contact message %s: %w", id, err)
	}
	log.Printf("INFO: [ContactService] Contact message %s deleted.", id)
	return nil
}
