package repository

import (
	"github.com/morphlyhq/morphly/app/models"
	"gorm.io/gorm"
)

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a transaction repository backed by GORM.
// Inserts go through the ledger service so the idempotency guard stays in
// one place; this repository is read-only.
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) GetByBuyerID(buyerID uint, offset, limit int) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := r.db.Where("buyer_id = ?", buyerID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&txs).Error
	return txs, err
}

func (r *transactionRepository) CountByBuyerID(buyerID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Transaction{}).Where("buyer_id = ?", buyerID).Count(&count).Error
	return count, err
}
