package controllers

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/morphlyhq/morphly/internal/pkg/accounts"
	"github.com/morphlyhq/morphly/internal/pkg/apperrors"
	"github.com/morphlyhq/morphly/internal/pkg/blobstore"
	"github.com/morphlyhq/morphly/internal/pkg/database"
	"github.com/morphlyhq/morphly/internal/pkg/env"
	"github.com/morphlyhq/morphly/internal/pkg/webhook"
)

// identityEvent is the subset of the identity provider's user event payload
// the service consumes.
type identityEvent struct {
	Type string `json:"type"`
	Data struct {
		ID             string `json:"id"`
		Username       string `json:"username"`
		FirstName      string `json:"first_name"`
		LastName       string `json:"last_name"`
		ImageURL       string `json:"image_url"`
		EmailAddresses []struct {
			EmailAddress string `json:"email_address"`
		} `json:"email_addresses"`
	} `json:"data"`
}

// HandleIdentityWebhook applies user.created/updated/deleted events from the
// external identity provider to the local user rows.
func HandleIdentityWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	msgID := strings.TrimSpace(c.Get("svix-id"))
	timestamp := strings.TrimSpace(c.Get("svix-timestamp"))
	signature := strings.TrimSpace(c.Get("svix-signature"))
	secret := env.GetEnv("IDENTITY_WEBHOOK_SECRET", "")

	if !webhook.VerifyIdentitySignature(rawBody, msgID, timestamp, signature, secret, webhook.DefaultTolerance, time.Now()) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature"})
	}

	var event identityEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}

	svc := accounts.NewServiceFromDB(database.GetDB(), blobstore.GetProvider())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	switch event.Type {
	case "user.created":
		email := ""
		if len(event.Data.EmailAddresses) > 0 {
			email = event.Data.EmailAddresses[0].EmailAddress
		}
		user, err := svc.HandleUserCreated(ctx, accounts.CreateUserInput{
			ClerkID:   event.Data.ID,
			Email:     email,
			Username:  event.Data.Username,
			FirstName: event.Data.FirstName,
			LastName:  event.Data.LastName,
			PhotoURL:  event.Data.ImageURL,
		})
		if err != nil {
			log.Errorf("[IdentityWebhook] user.created failed for %s: %v", event.Data.ID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "user_create_failed"})
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "user_id": user.ID})

	case "user.updated":
		user, err := svc.HandleUserUpdated(ctx, event.Data.ID, accounts.UpdateUserInput{
			Username:  event.Data.Username,
			FirstName: event.Data.FirstName,
			LastName:  event.Data.LastName,
			PhotoURL:  event.Data.ImageURL,
		})
		if err != nil {
			if apperrors.IsNotFound(err) {
				// Non-2xx so the provider retries; the matching user.created
				// event may still be in flight.
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user_not_found"})
			}
			log.Errorf("[IdentityWebhook] user.updated failed for %s: %v", event.Data.ID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "user_update_failed"})
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "user_id": user.ID})

	case "user.deleted":
		user, err := svc.HandleUserDeleted(ctx, event.Data.ID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				// Replayed deletion of an already-removed account.
				return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "ignored": true})
			}
			log.Errorf("[IdentityWebhook] user.deleted failed for %s: %v", event.Data.ID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "user_delete_failed"})
		}
		invalidateBalanceCache(user.ID)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "user_id": user.ID})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "ignored": true})
}
