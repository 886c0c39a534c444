package ledger

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/morphlyhq/morphly/app/models"
	"github.com/morphlyhq/morphly/internal/pkg/apperrors"
)

// Repository provides DB operations used by the ledger service.
type Repository interface {
	// IncrementCreditBalance applies a signed delta to a user's balance as a
	// single in-place update (never read-modify-write) and returns the
	// resulting balance. Returns apperrors.ErrNotFound when no such user
	// exists.
	IncrementCreditBalance(userID uint, delta int) (int, error)
	GetCreditBalance(userID uint) (int, error)
	// CreateTransactionIfNotExists inserts the transaction keyed by its
	// unique payment id. Returns created=false and the stored row when a
	// transaction with the same payment id already exists.
	CreateTransactionIfNotExists(trx *models.Transaction) (bool, *models.Transaction, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a ledger repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) IncrementCreditBalance(userID uint, delta int) (int, error) {
	res := r.db.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("credit_balance", gorm.Expr("credit_balance + ?", delta))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, apperrors.NotFound("user")
	}
	return r.GetCreditBalance(userID)
}

func (r *gormRepository) GetCreditBalance(userID uint) (int, error) {
	var balance int
	err := r.db.Model(&models.User{}).
		Select("credit_balance").
		Where("id = ?", userID).
		Take(&balance).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperrors.NotFound("user")
		}
		return 0, err
	}
	return balance, nil
}

func (r *gormRepository) CreateTransactionIfNotExists(trx *models.Transaction) (bool, *models.Transaction, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stripe_id"}},
		DoNothing: true,
	}).Create(trx)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.Transaction
	if err := r.db.Where("stripe_id = ?", trx.StripeID).First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}
