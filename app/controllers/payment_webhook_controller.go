package controllers

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/morphlyhq/morphly/internal/pkg/apperrors"
	"github.com/morphlyhq/morphly/internal/pkg/database"
	"github.com/morphlyhq/morphly/internal/pkg/env"
	"github.com/morphlyhq/morphly/internal/pkg/ledger"
	"github.com/morphlyhq/morphly/internal/pkg/webhook"
)

const checkoutCompletedEvent = "checkout.session.completed"

// paymentEvent is the subset of the provider's checkout event we consume.
// Metadata values arrive as strings, the way the checkout session was
// created by the frontend.
type paymentEvent struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID          string `json:"id"`
			AmountTotal int64  `json:"amount_total"`
			Metadata    struct {
				Plan    string `json:"plan"`
				Credits string `json:"credits"`
				BuyerID string `json:"buyerId"`
			} `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// HandlePaymentWebhook ingests signed checkout events. Delivery is
// at-least-once; the ledger's payment-id idempotency guard makes replays
// harmless, so a duplicate is answered 200 like the first delivery.
func HandlePaymentWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := strings.TrimSpace(c.Get("Stripe-Signature"))
	secret := env.GetEnv("PAYMENT_WEBHOOK_SECRET", "")

	if !webhook.VerifyPaymentSignature(rawBody, signature, secret, webhook.DefaultTolerance, time.Now()) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature"})
	}

	var event paymentEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}
	if event.Type != checkoutCompletedEvent {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "ignored": true})
	}

	paymentID := strings.TrimSpace(event.Data.Object.ID)
	if paymentID == "" {
		// Retrying a delivery without a payment id can never succeed.
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payment_id"})
	}
	buyerID, err := strconv.ParseUint(event.Data.Object.Metadata.BuyerID, 10, 32)
	if err != nil || buyerID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_buyer_id"})
	}
	credits, err := strconv.Atoi(event.Data.Object.Metadata.Credits)
	if err != nil || credits <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_credits"})
	}

	svc := ledger.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	trx, created, err := svc.RecordPurchase(ctx, ledger.PurchaseInput{
		StripeID: paymentID,
		Amount:   event.Data.Object.AmountTotal,
		Plan:     event.Data.Object.Metadata.Plan,
		Credits:  credits,
		BuyerID:  uint(buyerID),
	})
	if err != nil {
		if trx != nil && apperrors.IsNotFound(err) {
			// The payment record persisted but the buyer no longer exists.
			// Retrying the delivery cannot fix that; the ledger already
			// raised the incident, so acknowledge to stop the retry loop.
			return c.Status(fiber.StatusOK).JSON(fiber.Map{
				"ok":             true,
				"credit_failed":  true,
				"transaction_id": trx.ID,
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "purchase_record_failed"})
	}

	invalidateBalanceCache(uint(buyerID))

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"ok":             true,
		"duplicate":      !created,
		"transaction_id": trx.ID,
	})
}
