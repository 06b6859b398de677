package services

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"careercompass/cache"
	"careercompass/clients"
	"careercompass/models"
)

// ProfileService wraps the auth microservice's profile surface: fetching and
// patching the user's demographic/bio fields and changing the password.
type ProfileService interface {
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, userID string, update models.ProfileUpdate) (*models.UserProfile, error)
	ChangePassword(ctx context.Context, userID string, req models.PasswordChangeRequest) error
	// ListUsers and DeleteUser serve the admin dashboard; neither is cached.
	ListUsers(ctx context.Context) ([]models.UserProfile, error)
	DeleteUser(ctx context.Context, userID string) error
	InvalidateUser(userID string)
}

type profileService struct {
	rest  *clients.REST
	cache *cache.TTLCache
}

// NewProfileService creates a ProfileService over the auth microservice.
func NewProfileService(rest *clients.REST, ttl time.Duration) ProfileService {
	return &profileService{
		rest:  rest,
		cache: cache.New("ProfileCache", ttl),
	}
}

func (s *profileService) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	if userID == "" {
		return nil, fmt.Errorf("userID cannot be empty")
	}
	v, err := s.cache.Get(ctx, userID, func(ctx context.Context) (interface{}, error) {
		var profile models.UserProfile
		path := fmt.Sprintf("/api/v1/auth_service/users/%s", url.PathEscape(userID))
		if err := s.rest.GetJSON(ctx, path, &profile); err != nil {
			log.Printf("ERROR: [ProfileService] Failed to fetch profile for userID %s: %v", userID, err)
			return nil, fmt.Errorf("fetch profile for user %s: %w", userID, err)
		}
		return &profile, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.UserProfile), nil
}

func (s *profileService) UpdateProfile(ctx context.Context, userID string, update models.ProfileUpdate) (*models.UserProfile, error) {
	if userID == "" {
		return nil, fmt.Errorf("userID cannot be empty")
	}
	var profile models.UserProfile
	path := fmt.Sprintf("/api/v1/auth_service/users/%s", url.PathEscape(userID))
	if err := s.rest.PatchJSON(ctx, path, update, &profile); err != nil {
		log.Printf("ERROR: [ProfileService] Failed to update profile for userID %s: %v", userID, err)
		return nil, fmt.Errorf("update profile for user %s: %w", userID, err)
	}
	// Mutation: the next read must be fresh.
	s.cache.Invalidate(userID)
	log.Printf("INFO: [ProfileService] Updated profile for userID %s.", userID)
	return &profile, nil
}

func (s *profileService) ChangePassword(ctx context.Context, userID string, req models.PasswordChangeRequest) error {
	if userID == "" {
		return fmt.Errorf("userID cannot be empty")
	}
	path := fmt.Sprintf("/api/v1/auth_service/users/%s/password", url.PathEscape(userID))
	if err := s.rest.PatchJSON(ctx, path, req, nil); err != nil {
		log.Printf("WARN: [ProfileService] Password change failed for userID %s: %v", userID, err)
		return fmt.Errorf("change password for user %s: %w", userID, err)
	}
	log.Printf("INFO: [ProfileService] Password changed for userID %s.", userID)
	return nil
}

func (s *profileService) ListUsers(ctx context.Context) ([]models.UserProfile, error) {
	var users []models.UserProfile
	if err := s.rest.GetJSON(ctx, "/api/v1/auth_service/users", &users); err != nil {
		log.Printf("ERROR: [ProfileService] Failed to list users: %v", err)
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *profileService) DeleteUser(ctx context.Context, userID string) error {
	path := fmt.Sprintf("/api/v1/auth_service/users/%s", url.PathEscape(userID))
	if err := s.rest.DeleteJSON(ctx, path, nil); err != nil {
		return fmt.Errorf("delete user %s: %w", userID, err)
	}
	s.cache.Invalidate(userID)
	log.Printf("INFO: [ProfileService] Deleted user %s.", userID)
	return nil
}

func (s *profileService) InvalidateUser(userID string) {
	s.cache.Invalidate(userID)
}
