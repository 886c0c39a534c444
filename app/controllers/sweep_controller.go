package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/morphlyhq/morphly/internal/pkg/sweeper"
)

var sweepManager *sweeper.Manager

// SetSweepManager wires the sweep manager created at startup into the
// internal trigger endpoint.
func SetSweepManager(m *sweeper.Manager) {
	sweepManager = m
}

// HandleRunSweep runs one reconciliation sweep on demand. This is the
// endpoint an external scheduler hits; the in-process ticker covers
// deployments without one.
func HandleRunSweep(c *fiber.Ctx) error {
	if sweepManager == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "sweeper_disabled"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	result, err := sweepManager.RunSweepOnce(ctx)
	if err != nil {
		// The next scheduled tick retries; report the failure to the caller.
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "sweep_failed", "detail": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"ok":      true,
		"listed":  result.Listed,
		"deleted": result.Deleted,
	})
}
