// Package services – ProfileService
//
// This file implements profile reads and partial updates for the
// authenticated user. Updates are field-wise: omitted fields keep their
// stored value, and each present field is validated before anything is
// written.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/bazaargah/go-bazaar-backend/internal/domain"
)

const (
	fullNameMinLen = 3
	fullNameMaxLen = 100
)

// ProfileRepo defines the repository contract required by ProfileService.
type ProfileRepo interface {
	// GetProfile fetches one profile by user id.
	GetProfile(ctx context.Context, db *gorm.DB, id string) (*domain.Profile, error)

	// UpdateProfile applies a column patch to one profile.
	UpdateProfile(ctx context.Context, db *gorm.DB, id string, patch map[string]any) error
}

// ProfilePatch is a partial profile update. Nil fields are left untouched.
type ProfilePatch struct {
	// FullName replaces the display name when set.
	FullName *string
	// Phone replaces the contact number when set.
	Phone *string
	// City replaces the default city when set.
	City *string
}

// ProfileService serves the authenticated user's profile.
type ProfileService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the profile repository used by this service.
	Repo ProfileRepo
}

// NewProfileService constructs a ProfileService.
func NewProfileService(db *gorm.DB, r ProfileRepo) *ProfileService {
	return &ProfileService{DB: db, Repo: r}
}

// Get returns the caller's profile, or ErrProfileNotFound.
func (s *ProfileService) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	p, err := s.Repo.GetProfile(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return p, nil
}

// Update validates and applies the patch to the caller's profile, then
// returns the updated row. An all-nil patch is rejected rather than silently
// accepted.
func (s *ProfileService) Update(ctx context.Context, userID string, patch ProfilePatch) (*domain.Profile, error) {
	cols := map[string]any{}

	if patch.FullName != nil {
		name := strings.TrimSpace(*patch.FullName)
		if n := len([]rune(name)); n < fullNameMinLen || n > fullNameMaxLen {
			return nil, invalid("full_name", "must be between 3 and 100 characters")
		}
		cols["full_name"] = name
	}
	if patch.Phone != nil {
		phone := strings.TrimSpace(*patch.Phone)
		if phone != "" && !mobileRE.MatchString(phone) {
			return nil, invalid("phone", "must be a valid mobile number (09xxxxxxxxx)")
		}
		cols["phone"] = phone
	}
	if patch.City != nil {
		cols["city"] = strings.TrimSpace(*patch.City)
	}

	if len(cols) == 0 {
		return nil, invalid("body", "no updatable fields provided")
	}

	if err := s.Repo.UpdateProfile(ctx, s.DB, userID, cols); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return s.Get(ctx, userID)
}
