package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/morphlyhq/morphly/app/repository"
	"github.com/morphlyhq/morphly/internal/pkg/cache"
)

// HandleGetUser returns the local account for an identity-provider subject.
func HandleGetUser(c *fiber.Ctx) error {
	clerkID := c.Params("clerkId")
	if clerkID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_clerk_id"})
	}

	user, err := repository.GetGlobalRepositories().User.GetByClerkID(clerkID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user_not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "user_lookup_failed"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"user": user})
}

// HandleGetUserBalance returns the credit balance used for gating paid
// transformations. Reads are cached briefly; ledger writes invalidate.
func HandleGetUserBalance(c *fiber.Ctx) error {
	clerkID := c.Params("clerkId")
	if clerkID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_clerk_id"})
	}

	// Serve from cache before paying for the DB read. The subject mapping
	// never changes; the balance key is invalidated on every ledger write.
	if id, err := cache.GetInt(userIDCacheKey(clerkID)); err == nil && id > 0 {
		if balance, err := cache.GetInt(balanceCacheKey(uint(id))); err == nil {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"user_id": uint(id), "credit_balance": balance, "cached": true})
		}
	}

	user, err := repository.GetGlobalRepositories().User.GetByClerkID(clerkID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user_not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "user_lookup_failed"})
	}

	_ = cache.Set(userIDCacheKey(clerkID), user.ID, subjectCacheTTL)
	_ = cache.Set(balanceCacheKey(user.ID), user.CreditBalance, balanceCacheTTL)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"user_id": user.ID, "credit_balance": user.CreditBalance})
}

// HandleListUserTransactions returns a user's purchase history, newest first.
// The rows are append-only; debits have no history entries.
func HandleListUserTransactions(c *fiber.Ctx) error {
	clerkID := c.Params("clerkId")
	if clerkID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_clerk_id"})
	}

	repos := repository.GetGlobalRepositories()
	user, err := repos.User.GetByClerkID(clerkID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user_not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "user_lookup_failed"})
	}

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	perPage := c.QueryInt("per_page", 20)
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	transactions, err := repos.Transaction.GetByBuyerID(user.ID, (page-1)*perPage, perPage)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "transaction_list_failed"})
	}
	total, err := repos.Transaction.CountByBuyerID(user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "transaction_count_failed"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"transactions": transactions,
		"page":         page,
		"total":        total,
	})
}
