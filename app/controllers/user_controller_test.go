package controllers

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/utils/tests"

	"github.com/morphlyhq/morphly/app/repository"
	"github.com/morphlyhq/morphly/internal/pkg/cache"
)

// setupDryRunFactory backs the global repositories with a dialector that
// builds SQL without executing it, so handler wiring can be exercised
// without a database.
func setupDryRunFactory(t *testing.T) {
	t.Helper()
	db, err := gorm.Open(tests.DummyDialector{}, &gorm.Config{DryRun: true})
	require.NoError(t, err)
	repository.InitializeFactory(db)
}

func requireTestRedis(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := cache.GetClient().Ping(ctx).Err(); err != nil {
		t.Skipf("redis not reachable: %v", err)
	}
}

func newUserTestApp() *fiber.App {
	app := fiber.New()
	app.Get("/api/users/:clerkId/balance", HandleGetUserBalance)
	app.Get("/api/users/:clerkId/transactions", HandleListUserTransactions)
	return app
}

func TestHandleListUserTransactions(t *testing.T) {
	setupDryRunFactory(t)
	app := newUserTestApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/api/users/user_abc/transactions", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), `"transactions"`)
	assert.Contains(t, string(raw), `"total"`)
	assert.Contains(t, string(raw), `"page":1`)
}

func TestHandleGetUserBalance_ServesFromCacheBeforeStore(t *testing.T) {
	setupDryRunFactory(t)
	requireTestRedis(t)
	app := newUserTestApp()

	clerkID := "user_balance_cache_test"
	require.NoError(t, cache.Set(userIDCacheKey(clerkID), 77, time.Minute))
	require.NoError(t, cache.Set(balanceCacheKey(77), 42, time.Minute))
	t.Cleanup(func() {
		_ = cache.Delete(userIDCacheKey(clerkID))
		_ = cache.Delete(balanceCacheKey(77))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/users/"+clerkID+"/balance", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// The backing store would report no such balance; 42 can only have come
	// from the cache, read before the store.
	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), `"credit_balance":42`)
	assert.Contains(t, string(raw), `"cached":true`)
}

func TestHandleGetUserBalance_CacheMissFallsThrough(t *testing.T) {
	setupDryRunFactory(t)
	requireTestRedis(t)
	app := newUserTestApp()

	clerkID := "user_balance_miss_test"
	_ = cache.Delete(userIDCacheKey(clerkID))
	t.Cleanup(func() {
		_ = cache.Delete(userIDCacheKey(clerkID))
		_ = cache.Delete(balanceCacheKey(0))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/users/"+clerkID+"/balance", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	raw, _ := io.ReadAll(resp.Body)
	assert.NotContains(t, string(raw), `"cached":true`)
}
