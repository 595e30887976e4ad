package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/shadowshield/ShadowShield/internal/models"
)

// SecurityLogHandler pages through the security event log, most recent
// first, optionally filtered by severity.
func SecurityLogHandler(c *fiber.Ctx) error {
	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid limit"})
		}
		limit = n
	}

	severity := models.Severity(c.Query("severity"))
	switch severity {
	case "", models.SeverityInfo, models.SeverityWarning, models.SeverityCritical:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid severity"})
	}

	events, err := seclog.Query(c.Context(), limit, severity)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to query security log"})
	}
	return c.JSON(fiber.Map{"events": events})
}

// ClearSecurityLogHandler resets the log to the synthetic startup event.
// The reset itself is recorded, naming the administrator.
func ClearSecurityLogHandler(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)

	if err := seclog.Clear(c.Context(), userID); err != nil {
		return c.Status(statusForError(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Security log cleared"})
}

// StatsHandler returns the dashboard counters.
func StatsHandler(c *fiber.Ctx) error {
	snapshot, err := stats.Snapshot(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to collect stats"})
	}
	return c.JSON(snapshot)
}
