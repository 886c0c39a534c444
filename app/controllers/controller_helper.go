package controllers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/morphlyhq/morphly/internal/pkg/cache"
)

// balanceCacheTTL keeps gating reads cheap without letting a stale balance
// live long after a debit or credit.
const balanceCacheTTL = 30 * time.Second

// subjectCacheTTL covers the clerkId -> user id mapping, which is immutable
// for a live account.
const subjectCacheTTL = time.Hour

func balanceCacheKey(userID uint) string {
	return fmt.Sprintf("user_balance:%d", userID)
}

func userIDCacheKey(clerkID string) string {
	return fmt.Sprintf("user_id:clerk:%s", clerkID)
}

// invalidateBalanceCache drops the cached balance after a ledger write. Cache
// errors only cost freshness, never correctness, so they are just logged.
func invalidateBalanceCache(userID uint) {
	if err := cache.Delete(balanceCacheKey(userID)); err != nil {
		log.Debugf("[Cache] Could not invalidate balance for user %d: %v", userID, err)
	}
}
