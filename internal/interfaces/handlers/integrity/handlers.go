package integrity

import (
	"strings"

	integritysvc "propertyops-backend/internal/application/integrity"
	"propertyops-backend/internal/middleware"
	"propertyops-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *integritysvc.Service
}

// Mismatches GET /api/v1/integrity/mismatches
func (h *Handlers) Mismatches(c *fiber.Ctx) error {
	rows, err := h.Service.Mismatches(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Mismatches fetched successfully", rows, fiber.Map{"count": len(rows)})
}

// Repair POST /api/v1/integrity/repair
func (h *Handlers) Repair(c *fiber.Ctx) error {
	res, err := h.Service.RepairUnitStatuses(c.UserContext(), middleware.ActorID(c), middleware.GetTraceID(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Unit statuses repaired", res, nil)
}

// Check POST /api/v1/integrity/check
// Send x-auto-fix: true (or ?auto_fix=true) to repair what was found.
func (h *Handlers) Check(c *fiber.Ctx) error {
	autoFix := strings.EqualFold(c.Get("x-auto-fix"), "true") || c.QueryBool("auto_fix")
	res, err := h.Service.Check(c.UserContext(), autoFix, middleware.ActorID(c), middleware.GetTraceID(c))
	if err != nil {
		return response.FromError(c, err)
	}
	msg := "No mismatches found"
	if res.IssuesFound > 0 {
		msg = "Mismatches found"
	}
	return response.Success(c, msg, res, nil)
}
