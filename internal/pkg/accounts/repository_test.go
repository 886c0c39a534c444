package accounts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/utils/tests"

	"github.com/morphlyhq/morphly/app/models"
)

// TestUpdateUserTouchesOnlyProfileColumns pins the column set of the profile
// update. The credit balance is mutated exclusively through the ledger's
// atomic increment; if the profile update ever wrote it too, a user.updated
// event racing a debit or credit would persist a stale balance.
func TestUpdateUserTouchesOnlyProfileColumns(t *testing.T) {
	db, err := gorm.Open(tests.DummyDialector{}, &gorm.Config{
		DryRun:                 true,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	var captured string
	err = db.Callback().Update().After("gorm:update").Register("capture_update_sql", func(tx *gorm.DB) {
		captured = tx.Statement.SQL.String()
	})
	require.NoError(t, err)

	repo := NewRepository(db)
	user := &models.User{
		ID:            7,
		ClerkID:       "user_abc",
		Email:         "ada@example.com",
		Username:      "ada.l",
		FirstName:     "Ada",
		LastName:      "Lovelace",
		PhotoURL:      "https://img.example.com/ada.png",
		CreditBalance: 10,
	}
	require.NoError(t, repo.UpdateUser(user))

	require.NotEmpty(t, captured)
	assert.Contains(t, captured, "username")
	assert.Contains(t, captured, "first_name")
	assert.Contains(t, captured, "last_name")
	assert.Contains(t, captured, "photo_url")
	assert.NotContains(t, captured, "credit_balance")
	assert.NotContains(t, captured, "email")
	assert.NotContains(t, captured, "clerk_id")
	assert.NotContains(t, captured, "plan_id")
}
