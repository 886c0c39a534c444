package accounts

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/morphlyhq/morphly/app/models"
	"github.com/morphlyhq/morphly/internal/pkg/blobstore"
	"github.com/morphlyhq/morphly/internal/pkg/ledger"
)

// Service applies identity-provider lifecycle events to the local user rows.
// It owns the deletion cascade: user and image rows go together in one
// store transaction, blob deletion afterwards is best effort because the
// sweeper reclaims anything left behind once it ages past the grace window.
type Service struct {
	repo   Repository
	ledger *ledger.Service
	blobs  blobstore.Provider
}

// NewService creates an accounts service from injected collaborators.
func NewService(repo Repository, ledgerSvc *ledger.Service, blobs blobstore.Provider) *Service {
	return &Service{repo: repo, ledger: ledgerSvc, blobs: blobs}
}

// NewServiceFromDB creates an accounts service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, blobs blobstore.Provider) *Service {
	return NewService(NewRepository(db), ledger.NewServiceFromDB(db), blobs)
}

// CreateUserInput carries the profile fields of a user.created event.
type CreateUserInput struct {
	ClerkID   string
	Email     string
	Username  string
	FirstName string
	LastName  string
	PhotoURL  string
}

// UpdateUserInput carries the mutable profile fields of a user.updated event.
type UpdateUserInput struct {
	Username  string
	FirstName string
	LastName  string
	PhotoURL  string
}

// HandleUserCreated creates the local user row with its signup credit grant.
// Replayed events return the already-stored row without a second grant.
func (s *Service) HandleUserCreated(ctx context.Context, in CreateUserInput) (*models.User, error) {
	_ = ctx
	if strings.TrimSpace(in.ClerkID) == "" {
		return nil, errors.New("clerk_id is required")
	}

	user := &models.User{
		ClerkID:   strings.TrimSpace(in.ClerkID),
		Email:     strings.TrimSpace(in.Email),
		Username:  strings.TrimSpace(in.Username),
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		PhotoURL:  strings.TrimSpace(in.PhotoURL),
	}
	s.ledger.GrantSignupCredits(user)

	if err := user.Validate(); err != nil {
		return nil, err
	}

	created, stored, err := s.repo.CreateUserIfNotExists(user)
	if err != nil {
		return nil, err
	}
	if !created {
		log.Infof("[Accounts] Duplicate user.created for %s, keeping existing user %d", user.ClerkID, stored.ID)
		return stored, nil
	}

	log.Infof("[Accounts] Created user %d for subject %s with %d signup credits", stored.ID, stored.ClerkID, stored.CreditBalance)
	return stored, nil
}

// HandleUserUpdated applies profile changes from a user.updated event.
func (s *Service) HandleUserUpdated(ctx context.Context, clerkID string, in UpdateUserInput) (*models.User, error) {
	_ = ctx
	user, err := s.repo.GetUserByClerkID(clerkID)
	if err != nil {
		return nil, err
	}

	user.Username = strings.TrimSpace(in.Username)
	user.FirstName = strings.TrimSpace(in.FirstName)
	user.LastName = strings.TrimSpace(in.LastName)
	user.PhotoURL = strings.TrimSpace(in.PhotoURL)

	if err := s.repo.UpdateUser(user); err != nil {
		return nil, err
	}
	return user, nil
}

// HandleUserDeleted removes the user and all owned images transactionally,
// then tries to remove the blobs. A blob deletion failure is logged and left
// to the reconciliation sweeper.
func (s *Service) HandleUserDeleted(ctx context.Context, clerkID string) (*models.User, error) {
	user, publicIDs, err := s.repo.DeleteUserCascade(clerkID)
	if err != nil {
		return nil, err
	}

	log.Infof("[Accounts] Deleted user %d and %d owned images", user.ID, len(publicIDs))

	if s.blobs != nil && len(publicIDs) > 0 {
		if err := s.blobs.BulkDelete(ctx, publicIDs); err != nil {
			log.Errorf("[Accounts] Could not delete %d blobs for user %d, sweeper will reclaim them: %v",
				len(publicIDs), user.ID, err)
		}
	}

	return user, nil
}
