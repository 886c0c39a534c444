package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserValidate(t *testing.T) {
	valid := User{
		ClerkID:  "user_2abcDEF",
		Email:    "ada@example.com",
		Username: "ada",
	}
	assert.NoError(t, valid.Validate())

	missingSubject := valid
	missingSubject.ClerkID = ""
	assert.Error(t, missingSubject.Validate())

	badEmail := valid
	badEmail.Email = "not-an-email"
	assert.Error(t, badEmail.Validate())

	missingEmail := valid
	missingEmail.Email = ""
	assert.Error(t, missingEmail.Validate())
}
