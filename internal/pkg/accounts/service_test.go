package accounts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morphlyhq/morphly/app/models"
	"github.com/morphlyhq/morphly/internal/pkg/apperrors"
	"github.com/morphlyhq/morphly/internal/pkg/blobstore"
	"github.com/morphlyhq/morphly/internal/pkg/ledger"
)

type fakeAccountsRepo struct {
	users      map[string]*models.User
	images     map[string][]string // clerkID -> owned publicIds
	nextID     uint
	cascadeErr error
}

func newFakeAccountsRepo() *fakeAccountsRepo {
	return &fakeAccountsRepo{
		users:  make(map[string]*models.User),
		images: make(map[string][]string),
	}
}

func (f *fakeAccountsRepo) CreateUserIfNotExists(user *models.User) (bool, *models.User, error) {
	if stored, ok := f.users[user.ClerkID]; ok {
		return false, stored, nil
	}
	f.nextID++
	stored := *user
	stored.ID = f.nextID
	f.users[user.ClerkID] = &stored
	return true, &stored, nil
}

func (f *fakeAccountsRepo) GetUserByClerkID(clerkID string) (*models.User, error) {
	if stored, ok := f.users[clerkID]; ok {
		return stored, nil
	}
	return nil, apperrors.NotFound("user")
}

func (f *fakeAccountsRepo) UpdateUser(user *models.User) error {
	f.users[user.ClerkID] = user
	return nil
}

func (f *fakeAccountsRepo) DeleteUserCascade(clerkID string) (*models.User, []string, error) {
	user, ok := f.users[clerkID]
	if !ok {
		return nil, nil, apperrors.NotFound("user")
	}
	if f.cascadeErr != nil {
		// Transaction rolled back: nothing changes.
		return nil, nil, f.cascadeErr
	}
	publicIDs := f.images[clerkID]
	delete(f.users, clerkID)
	delete(f.images, clerkID)
	return user, publicIDs, nil
}

type fakeBlobProvider struct {
	deleted   [][]string
	deleteErr error
}

func (f *fakeBlobProvider) Search(_ context.Context, _ time.Time) ([]blobstore.Object, error) {
	return nil, nil
}

func (f *fakeBlobProvider) BulkDelete(_ context.Context, publicIDs []string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, publicIDs)
	return nil
}

type noopLedgerRepo struct{}

func (noopLedgerRepo) IncrementCreditBalance(userID uint, delta int) (int, error) { return delta, nil }
func (noopLedgerRepo) GetCreditBalance(userID uint) (int, error)                  { return 0, nil }
func (noopLedgerRepo) CreateTransactionIfNotExists(trx *models.Transaction) (bool, *models.Transaction, error) {
	return true, trx, nil
}

func newTestService(repo Repository, blobs blobstore.Provider) *Service {
	return NewService(repo, ledger.NewService(noopLedgerRepo{}), blobs)
}

func TestHandleUserCreated_GrantsSignupCredits(t *testing.T) {
	repo := newFakeAccountsRepo()
	svc := newTestService(repo, nil)

	user, err := svc.HandleUserCreated(context.Background(), CreateUserInput{
		ClerkID:  "user_abc",
		Email:    "ada@example.com",
		Username: "ada",
	})

	require.NoError(t, err)
	assert.Equal(t, models.SignupCreditGrant, user.CreditBalance)
	assert.Equal(t, "user_abc", user.ClerkID)
}

func TestHandleUserCreated_ReplayKeepsExistingUser(t *testing.T) {
	repo := newFakeAccountsRepo()
	svc := newTestService(repo, nil)

	in := CreateUserInput{ClerkID: "user_abc", Email: "ada@example.com", Username: "ada"}

	first, err := svc.HandleUserCreated(context.Background(), in)
	require.NoError(t, err)

	// Simulate credits spent between the original event and its replay.
	repo.users["user_abc"].CreditBalance = 3

	replay, err := svc.HandleUserCreated(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, first.ID, replay.ID)
	assert.Equal(t, 3, replay.CreditBalance, "a replayed event must not grant credits again")
	assert.Len(t, repo.users, 1)
}

func TestHandleUserCreated_RejectsMissingSubject(t *testing.T) {
	svc := newTestService(newFakeAccountsRepo(), nil)

	_, err := svc.HandleUserCreated(context.Background(), CreateUserInput{Email: "x@example.com"})
	assert.Error(t, err)
}

func TestHandleUserUpdated(t *testing.T) {
	repo := newFakeAccountsRepo()
	svc := newTestService(repo, nil)

	_, err := svc.HandleUserCreated(context.Background(), CreateUserInput{
		ClerkID: "user_abc", Email: "ada@example.com", Username: "ada",
	})
	require.NoError(t, err)

	user, err := svc.HandleUserUpdated(context.Background(), "user_abc", UpdateUserInput{
		Username:  "ada.l",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})

	require.NoError(t, err)
	assert.Equal(t, "ada.l", user.Username)
	assert.Equal(t, "Ada", user.FirstName)
	assert.Equal(t, "ada@example.com", user.Email, "email is not touched by profile updates")
}

func TestHandleUserUpdated_UnknownUser(t *testing.T) {
	svc := newTestService(newFakeAccountsRepo(), nil)

	_, err := svc.HandleUserUpdated(context.Background(), "user_missing", UpdateUserInput{})

	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestHandleUserDeleted_RemovesUserImagesAndBlobs(t *testing.T) {
	repo := newFakeAccountsRepo()
	blobs := &fakeBlobProvider{}
	svc := newTestService(repo, blobs)

	_, err := svc.HandleUserCreated(context.Background(), CreateUserInput{
		ClerkID: "user_abc", Email: "ada@example.com", Username: "ada",
	})
	require.NoError(t, err)
	repo.images["user_abc"] = []string{"img-1", "img-2"}

	user, err := svc.HandleUserDeleted(context.Background(), "user_abc")

	require.NoError(t, err)
	assert.Equal(t, "user_abc", user.ClerkID)
	assert.Empty(t, repo.users)
	require.Len(t, blobs.deleted, 1)
	assert.ElementsMatch(t, []string{"img-1", "img-2"}, blobs.deleted[0])
}

func TestHandleUserDeleted_BlobFailureDoesNotFailDeletion(t *testing.T) {
	repo := newFakeAccountsRepo()
	blobs := &fakeBlobProvider{deleteErr: errors.New("timeout")}
	svc := newTestService(repo, blobs)

	_, err := svc.HandleUserCreated(context.Background(), CreateUserInput{
		ClerkID: "user_abc", Email: "ada@example.com", Username: "ada",
	})
	require.NoError(t, err)
	repo.images["user_abc"] = []string{"img-1"}

	// The rows are gone either way; the sweeper reclaims the blob later.
	user, err := svc.HandleUserDeleted(context.Background(), "user_abc")
	require.NoError(t, err)
	assert.NotNil(t, user)
	assert.Empty(t, repo.users)
}

func TestHandleUserDeleted_CascadeFailureLeavesEverything(t *testing.T) {
	repo := newFakeAccountsRepo()
	blobs := &fakeBlobProvider{}
	svc := newTestService(repo, blobs)

	_, err := svc.HandleUserCreated(context.Background(), CreateUserInput{
		ClerkID: "user_abc", Email: "ada@example.com", Username: "ada",
	})
	require.NoError(t, err)
	repo.images["user_abc"] = []string{"img-1"}
	repo.cascadeErr = errors.New("deadlock")

	_, err = svc.HandleUserDeleted(context.Background(), "user_abc")

	require.Error(t, err)
	assert.Len(t, repo.users, 1, "rolled-back cascade must leave the user row")
	assert.Len(t, repo.images["user_abc"], 1)
	assert.Empty(t, blobs.deleted, "no blob deletion without a committed cascade")
}

func TestHandleUserDeleted_UnknownUser(t *testing.T) {
	svc := newTestService(newFakeAccountsRepo(), nil)

	_, err := svc.HandleUserDeleted(context.Background(), "user_missing")

	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}
