package handlers

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shadowshield/ShadowShield/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// policyFromForm builds the declared access policy from upload form
// fields. Absent fields fall back to an open policy.
func policyFromForm(c *fiber.Ctx) (*models.AccessPolicy, error) {
	policy := &models.AccessPolicy{}

	if v := c.FormValue("expires_in"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, err
		}
		deadline := time.Now().Add(d)
		policy.ExpiresAt = &deadline
	}
	if v := c.FormValue("allow_list"); v != "" {
		for _, entry := range strings.Split(v, ",") {
			if entry = strings.TrimSpace(entry); entry != "" {
				policy.AllowList = append(policy.AllowList, entry)
			}
		}
	}
	if v := c.FormValue("max_failed_attempts"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, err
		}
		policy.MaxFailedAttempts = n
	}
	policy.OneTimeUse = c.FormValue("one_time_use") == "true"
	policy.ManualKillSwitch = c.FormValue("manual_kill_switch") == "true"

	return policy, nil
}

// UploadFileHandler seals an uploaded file behind its declared policy.
func UploadFileHandler(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string) // Extract user ID from JWT middleware

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "failed to retrieve file"})
	}
	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "failed to open file"})
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "failed to read file"})
	}

	policy, err := policyFromForm(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid policy fields: " + err.Error()})
	}

	fileData, err := uploads.Seal(c.Context(), userID, fileHeader.Filename, fileHeader.Header.Get("Content-Type"), content, policy)
	if err != nil {
		return c.Status(statusForError(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"message": "File sealed successfully",
		"file":    fileData,
	})
}

type issueRequest struct {
	Count     int                  `json:"count"`
	SingleUse bool                 `json:"single_use"`
	Policy    *models.AccessPolicy `json:"policy,omitempty"`
}

// IssueCredentialsHandler mints access credentials for a file and returns
// the shareable links. The first issuance freezes the policy.
func IssueCredentialsHandler(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	fileID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid file ID"})
	}

	req := issueRequest{Count: 1}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
	}
	if req.Count == 0 {
		req.Count = 1
	}

	creds, err := issuer.Issue(c.Context(), fileID, userID, req.Policy, req.Count, req.SingleUse)
	if err != nil {
		return c.Status(statusForError(err)).JSON(fiber.Map{"error": err.Error()})
	}

	links := make([]string, len(creds))
	for i, cred := range creds {
		links[i] = issuer.ShareLink(cred)
	}

	return c.JSON(fiber.Map{
		"credentials": creds,
		"links":       links,
	})
}

// DestroyFileHandler is the owner's manual kill switch.
func DestroyFileHandler(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	fileID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid file ID"})
	}

	file, err := uploads.Get(c.Context(), fileID)
	if err != nil {
		return c.Status(statusForError(err)).JSON(fiber.Map{"error": err.Error()})
	}
	if file.Owner != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "unauthorized access"})
	}
	if file.Policy == nil || !file.Policy.ManualKillSwitch {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "manual kill switch is not enabled for this file"})
	}

	if err := destroyer.Destroy(c.Context(), fileID, models.ReasonManual); err != nil {
		return c.Status(statusForError(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"message": "File destroyed"})
}

// ListUserFilesHandler lists the owner's files with policy and
// destruction state.
func ListUserFilesHandler(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	files, err := uploads.ListByOwner(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"files": files})
}
