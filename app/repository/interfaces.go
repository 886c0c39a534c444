package repository

import (
	"github.com/morphlyhq/morphly/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByClerkID(clerkID string) (*models.User, error)
	Update(user *models.User) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
}

// ImageRepository defines the interface for image-related database operations
type ImageRepository interface {
	Create(image *models.Image) error
	GetByID(id uint) (*models.Image, error)
	GetByPublicID(publicID string) (*models.Image, error)
	GetByAuthorID(authorID uint, offset, limit int) ([]models.Image, error)
	Update(image *models.Image) error
	Delete(id uint) error
	ListPublicIDs() ([]string, error)
	Count() (int64, error)
	CountByAuthorID(authorID uint) (int64, error)
}

// TransactionRepository defines the interface for purchase-ledger rows.
// Transactions are append-only; inserts go through the ledger service so the
// idempotency guard stays in one place.
type TransactionRepository interface {
	GetByBuyerID(buyerID uint, offset, limit int) ([]models.Transaction, error)
	CountByBuyerID(buyerID uint) (int64, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User        UserRepository
	Image       ImageRepository
	Transaction TransactionRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:        NewUserRepository(db),
		Image:       NewImageRepository(db),
		Transaction: NewTransactionRepository(db),
	}
}
