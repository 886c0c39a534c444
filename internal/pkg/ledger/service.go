package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/morphlyhq/morphly/app/models"
	"github.com/morphlyhq/morphly/internal/pkg/apperrors"
)

// TransformationFee is the number of credits debited per applied
// transformation, independent of the transformation type.
const TransformationFee = 1

// Service serializes all balance-affecting events for a user into a single
// integer balance. Purchase crediting and transformation-fee debiting are the
// two event kinds; both go through the atomic increment in the repository.
type Service struct {
	repo Repository
}

// NewService creates a ledger service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NewServiceFromDB creates a ledger service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// PurchaseInput is the normalized payload of a confirmed checkout event.
type PurchaseInput struct {
	StripeID string
	Amount   int64
	Plan     string
	Credits  int
	BuyerID  uint
}

// GrantSignupCredits sets the initial balance on a not-yet-persisted user.
// Invoked exactly once, when the identity provider reports account creation.
func (s *Service) GrantSignupCredits(user *models.User) {
	user.CreditBalance = models.SignupCreditGrant
}

// ChargeFee applies a signed credit delta to the user's balance and returns
// the new balance. The fee is negative for a transformation charge, positive
// for corrective credits.
func (s *Service) ChargeFee(ctx context.Context, userID uint, fee int) (int, error) {
	_ = ctx
	if userID == 0 {
		return 0, errors.New("user_id is required")
	}
	balance, err := s.repo.IncrementCreditBalance(userID, fee)
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// GetBalance returns the current credit balance for a user.
func (s *Service) GetBalance(ctx context.Context, userID uint) (int, error) {
	_ = ctx
	if userID == 0 {
		return 0, errors.New("user_id is required")
	}
	return s.repo.GetCreditBalance(userID)
}

// RecordPurchase persists a confirmed purchase and credits the buyer exactly
// once per unique payment id. Replayed deliveries of the same payment id
// return the stored row with created=false and apply no credit.
//
// When the buyer no longer exists the transaction row is still kept as the
// durable payment record; the returned error wraps apperrors.ErrNotFound and
// the caller must surface it for manual reconciliation.
func (s *Service) RecordPurchase(ctx context.Context, in PurchaseInput) (*models.Transaction, bool, error) {
	_ = ctx
	stripeID := strings.TrimSpace(in.StripeID)
	if stripeID == "" {
		return nil, false, errors.New("payment id is required")
	}
	if in.BuyerID == 0 {
		return nil, false, errors.New("buyer_id is required")
	}

	trx := &models.Transaction{
		StripeID: stripeID,
		Amount:   in.Amount,
		Plan:     strings.TrimSpace(in.Plan),
		Credits:  in.Credits,
		BuyerID:  in.BuyerID,
	}
	created, stored, err := s.repo.CreateTransactionIfNotExists(trx)
	if err != nil {
		return nil, false, fmt.Errorf("record purchase %s: %w", stripeID, err)
	}
	if !created {
		log.Infof("[Ledger] Duplicate payment %s, already recorded as transaction %d", stripeID, stored.ID)
		return stored, false, nil
	}

	if _, err := s.repo.IncrementCreditBalance(in.BuyerID, in.Credits); err != nil {
		if apperrors.IsNotFound(err) {
			// Money received with no matching account. The transaction row
			// stays as the durable payment record; this needs an operator.
			log.Errorf("[Ledger] CREDIT FAILED for payment %s: buyer %d not found, needs manual reconciliation", stripeID, in.BuyerID)
		}
		return stored, true, fmt.Errorf("credit step failed for payment %s: %w", stripeID, err)
	}

	log.Infof("[Ledger] Credited %d credits to user %d for payment %s", in.Credits, in.BuyerID, stripeID)
	return stored, true, nil
}
