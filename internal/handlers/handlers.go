package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/shadowshield/ShadowShield/internal/services"
	"github.com/shadowshield/ShadowShield/internal/store"
)

// Handler-level service wiring, initialized once from main (or from a
// test harness with the in-memory store).
var (
	uploads   *services.UploadService
	issuer    *services.IssuerService
	evaluator *services.EvaluatorService
	destroyer *services.DestructionService
	seclog    *services.SecurityLog
	stats     *services.StatsService
	objects   services.ObjectStore
)

// Init wires the handler package to its services.
func Init(
	uploadSvc *services.UploadService,
	issuerSvc *services.IssuerService,
	evaluatorSvc *services.EvaluatorService,
	destroyerSvc *services.DestructionService,
	securityLog *services.SecurityLog,
	statsSvc *services.StatsService,
	objectStore services.ObjectStore,
) {
	uploads = uploadSvc
	issuer = issuerSvc
	evaluator = evaluatorSvc
	destroyer = destroyerSvc
	seclog = securityLog
	stats = statsSvc
	objects = objectStore
}

// statusForError maps engine errors onto HTTP status codes. Decision
// outcomes never come through here; they are values, not errors.
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidPolicy), errors.Is(err, services.ErrAlreadyAttached):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, store.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrPolicyFrozen), errors.Is(err, services.ErrPolicyFrozenConflict):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrFileDestroyed):
		return fiber.StatusGone
	case errors.Is(err, services.ErrLogWrite):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
