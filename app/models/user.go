package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// SignupCreditGrant is the balance every new account starts with.
const SignupCreditGrant = 10

// User mirrors an account owned by the external identity provider. Rows are
// created, updated and deleted exclusively by identity webhook events; the
// credit balance is mutated exclusively by the ledger service.
type User struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	ClerkID       string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"clerk_id" validate:"required"`
	Email         string     `gorm:"uniqueIndex;type:varchar(200) CHARACTER SET utf8 COLLATE utf8_bin" json:"email" validate:"required,email,min=5,max=200"`
	Username      string     `gorm:"type:varchar(150)" json:"username" validate:"max=150"`
	FirstName     string     `gorm:"type:varchar(150);default:null" json:"first_name" validate:"max=150"`
	LastName      string     `gorm:"type:varchar(150);default:null" json:"last_name" validate:"max=150"`
	PhotoURL      string     `gorm:"type:varchar(255);default:null" json:"photo_url" validate:"max=255"`
	PlanID        int        `gorm:"default:1" json:"plan_id"`
	CreditBalance int        `gorm:"not null;default:10" json:"credit_balance"`
	LastSeenAt    *time.Time `gorm:"type:timestamp;default:null" json:"last_seen_at"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

// FindUserByClerkID finds a user by the external identity provider subject id
func FindUserByClerkID(db *gorm.DB, clerkID string) (*User, error) {
	var user User
	result := db.Where("clerk_id = ?", clerkID).First(&user)
	return &user, result.Error
}

// FindUserByID finds a user by primary key
func FindUserByID(db *gorm.DB, id uint) (*User, error) {
	var user User
	result := db.First(&user, id)
	return &user, result.Error
}
