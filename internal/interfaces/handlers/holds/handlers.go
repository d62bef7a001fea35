package holds

import (
	holdsvc "propertyops-backend/internal/application/holds"
	"propertyops-backend/internal/interfaces/handlers/request"
	"propertyops-backend/internal/middleware"
	"propertyops-backend/internal/pkg/constants"
	"propertyops-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *holdsvc.Service
}

type placeHoldBody struct {
	UnitID  string `json:"unit_id" validate:"required,uuid"`
	Minutes int    `json:"minutes" validate:"omitempty,min=1,max=1440"`
}

// PlaceHold POST /api/v1/holds
func (h *Handlers) PlaceHold(c *fiber.Ctx) error {
	var body placeHoldBody
	if ok, err := request.Bind(c, &body); !ok {
		return err
	}
	res, err := h.Service.PlaceHold(c.UserContext(), holdsvc.PlaceHoldRequest{
		UnitID:        uuid.MustParse(body.UnitID),
		RequesterID:   middleware.ActorID(c),
		Minutes:       body.Minutes,
		CorrelationID: middleware.GetTraceID(c),
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Hold placed", res, nil)
}

// ReleaseHold DELETE /api/v1/holds/:id. Staff roles may pass ?force=true to
// release another requester's hold.
func (h *Handlers) ReleaseHold(c *fiber.Ctx) error {
	id, ok, err := request.UUIDParam(c, "id")
	if !ok {
		return err
	}
	role := middleware.Role(c)
	force := c.QueryBool("force") && (role == constants.Admin || role == constants.Ops)
	err = h.Service.ReleaseHold(c.UserContext(), holdsvc.ReleaseHoldRequest{
		HoldID:        id,
		RequesterID:   middleware.ActorID(c),
		Force:         force,
		CorrelationID: middleware.GetTraceID(c),
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Hold released", fiber.Map{"hold_id": id}, nil)
}

// ReleaseExpired POST /api/v1/holds/release-expired
func (h *Handlers) ReleaseExpired(c *fiber.Ctx) error {
	n, err := h.Service.ReleaseExpiredHolds(c.UserContext(), middleware.ActorID(c), middleware.GetTraceID(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Expired holds released", fiber.Map{"released": n}, nil)
}
