package accounts

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/morphlyhq/morphly/app/models"
	"github.com/morphlyhq/morphly/internal/pkg/apperrors"
)

// Repository provides DB operations used by the accounts service.
type Repository interface {
	// CreateUserIfNotExists inserts the user keyed by the identity
	// provider's subject id. Returns created=false and the stored row when
	// the subject id is already known (replayed user.created event).
	CreateUserIfNotExists(user *models.User) (bool, *models.User, error)
	GetUserByClerkID(clerkID string) (*models.User, error)
	UpdateUser(user *models.User) error
	// DeleteUserCascade removes the user and all owned images inside one
	// database transaction and returns the deleted user together with the
	// publicIds of the removed images. Either both deletions commit or
	// neither does.
	DeleteUserCascade(clerkID string) (*models.User, []string, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates an accounts repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreateUserIfNotExists(user *models.User) (bool, *models.User, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "clerk_id"}},
		DoNothing: true,
	}).Create(user)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.User
	if err := r.db.Where("clerk_id = ?", user.ClerkID).First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) GetUserByClerkID(clerkID string) (*models.User, error) {
	user, err := models.FindUserByClerkID(r.db, clerkID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user")
		}
		return nil, err
	}
	return user, nil
}

// UpdateUser writes only the profile columns. The credit balance is owned by
// the ledger's atomic increment; writing the whole row here would race a
// concurrent debit or credit and persist a stale balance.
func (r *gormRepository) UpdateUser(user *models.User) error {
	return r.db.Model(user).
		Select("username", "first_name", "last_name", "photo_url").
		Updates(user).Error
}

func (r *gormRepository) DeleteUserCascade(clerkID string) (*models.User, []string, error) {
	var deleted *models.User
	var publicIDs []string

	err := r.db.Transaction(func(tx *gorm.DB) error {
		user, err := models.FindUserByClerkID(tx, clerkID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("user")
			}
			return err
		}

		if err := tx.Model(&models.Image{}).
			Where("author_id = ?", user.ID).
			Pluck("public_id", &publicIDs).Error; err != nil {
			return err
		}

		if err := tx.Where("author_id = ?", user.ID).Delete(&models.Image{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(user).Error; err != nil {
			return err
		}

		deleted = user
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return deleted, publicIDs, nil
}
