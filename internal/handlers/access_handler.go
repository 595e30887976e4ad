package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shadowshield/ShadowShield/internal/models"
)

// downloadLinkTTL bounds the content retrieval capability handed out on
// an Authorized decision.
const downloadLinkTTL = 10 * time.Minute

// AccessHandler is the presenter-facing endpoint: one credential
// presentation, one terminal decision. A log-write fault denies access
// (fail closed) rather than authorizing without an audit record.
func AccessHandler(c *fiber.Ctx) error {
	attempt := models.AccessAttempt{
		CredentialID: c.Params("id"),
		Claim:        c.Query("claim"),
		IP:           c.IP(),
		Location:     c.Get("X-Geo-Location"),
	}

	eval, err := evaluator.Evaluate(c.Context(), attempt)
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "access evaluation unavailable"})
	}

	switch eval.Decision {
	case models.DecisionAuthorized:
		downloadURL, err := objects.PresignedGet(c.Context(), eval.File.ObjectName, downloadLinkTTL)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to generate download link"})
		}
		return c.JSON(fiber.Map{
			"decision":     eval.Decision,
			"filename":     eval.File.Filename,
			"content_hash": eval.File.ContentHash,
			"download_url": downloadURL,
			"expires_in":   downloadLinkTTL.String(),
		})
	case models.DecisionExpired:
		return c.Status(fiber.StatusGone).JSON(fiber.Map{"decision": eval.Decision})
	case models.DecisionConsumed:
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"decision": eval.Decision})
	default:
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"decision": models.DecisionUnauthorized})
	}
}
