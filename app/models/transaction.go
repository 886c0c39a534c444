package models

import "time"

// Transaction is an append-only record of a completed credit purchase. The
// payment provider's session id is unique and doubles as the idempotency key
// for webhook redelivery: a second insert with the same StripeID is rejected
// by the index and treated as already processed.
type Transaction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StripeID  string    `gorm:"type:varchar(191);uniqueIndex;not null" json:"stripe_id"`
	Amount    int64     `gorm:"not null" json:"amount"`
	Plan      string    `gorm:"type:varchar(100)" json:"plan"`
	Credits   int       `gorm:"not null" json:"credits"`
	BuyerID   uint      `gorm:"index;not null" json:"buyer_id"`
	Buyer     User      `gorm:"foreignKey:BuyerID" json:"buyer,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
