package properties

import (
	propsvc "propertyops-backend/internal/application/properties"
	"propertyops-backend/internal/domain"
	"propertyops-backend/internal/interfaces/handlers/request"
	"propertyops-backend/internal/middleware"
	"propertyops-backend/internal/pkg/constants"
	"propertyops-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type Handlers struct {
	Service *propsvc.Service
}

type propertyBody struct {
	OwnerID     string   `json:"owner_id" validate:"omitempty,max=64"`
	Address     string   `json:"address" validate:"required"`
	City        string   `json:"city" validate:"required"`
	State       string   `json:"state" validate:"required"`
	ZipCode     string   `json:"zip_code"`
	Type        string   `json:"type"`
	Description *string  `json:"description"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

// ownerScope is the owner id a caller is limited to; admins and ops see all.
func ownerScope(c *fiber.Ctx) string {
	if middleware.Role(c) == constants.Owner {
		return middleware.ActorID(c)
	}
	return ""
}

// CreateProperty POST /api/v1/properties
// Owners always create under their own id; admins may name an owner_id.
func (h *Handlers) CreateProperty(c *fiber.Ctx) error {
	var body propertyBody
	if ok, err := request.Bind(c, &body); !ok {
		return err
	}
	owner := middleware.ActorID(c)
	if middleware.Role(c) == constants.Admin && body.OwnerID != "" {
		owner = body.OwnerID
	}
	p, err := h.Service.CreateProperty(c.UserContext(), propsvc.CreatePropertyInput{
		OwnerID:       owner,
		Address:       body.Address,
		City:          body.City,
		State:         body.State,
		ZipCode:       body.ZipCode,
		Type:          domain.PropertyType(body.Type),
		Description:   body.Description,
		Latitude:      body.Latitude,
		Longitude:     body.Longitude,
		Actor:         middleware.ActorID(c),
		CorrelationID: middleware.GetTraceID(c),
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Property created", p, nil)
}

// ListProperties GET /api/v1/properties?owner_id=
func (h *Handlers) ListProperties(c *fiber.Ctx) error {
	owner := ownerScope(c)
	if owner == "" {
		owner = c.Query("owner_id")
	}
	rows, err := h.Service.ListProperties(c.UserContext(), owner)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Properties fetched successfully", rows, fiber.Map{"count": len(rows)})
}

// GetProperty GET /api/v1/properties/:id
func (h *Handlers) GetProperty(c *fiber.Ctx) error {
	id, ok, err := request.UUIDParam(c, "id")
	if !ok {
		return err
	}
	p, err := h.Service.GetProperty(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Property fetched successfully", p, nil)
}

// DeleteProperty DELETE /api/v1/properties/:id
// Removes the property with its units, leases, payments, holds and requests.
func (h *Handlers) DeleteProperty(c *fiber.Ctx) error {
	id, ok, err := request.UUIDParam(c, "id")
	if !ok {
		return err
	}
	if owner := ownerScope(c); owner != "" {
		p, err := h.Service.GetProperty(c.UserContext(), id)
		if err != nil {
			return response.FromError(c, err)
		}
		if p.OwnerID != owner {
			return response.Error(c, "Forbidden", fiber.StatusForbidden, nil)
		}
	}
	res, err := h.Service.DeleteProperty(c.UserContext(), id, middleware.ActorID(c), middleware.GetTraceID(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Property deleted", res, nil)
}

type unitBody struct {
	Name       string          `json:"name" validate:"required"`
	RentAmount decimal.Decimal `json:"rent_amount"`
	Bedrooms   int             `json:"bedrooms"`
	Bathrooms  float64         `json:"bathrooms"`
	SquareFeet *int            `json:"square_feet"`
}

// CreateUnit POST /api/v1/properties/:id/units
func (h *Handlers) CreateUnit(c *fiber.Ctx) error {
	propertyID, ok, err := request.UUIDParam(c, "id")
	if !ok {
		return err
	}
	var body unitBody
	if ok, err := request.Bind(c, &body); !ok {
		return err
	}
	u, err := h.Service.CreateUnit(c.UserContext(), propsvc.CreateUnitInput{
		PropertyID:    propertyID,
		Name:          body.Name,
		RentAmount:    body.RentAmount,
		Bedrooms:      body.Bedrooms,
		Bathrooms:     body.Bathrooms,
		SquareFeet:    body.SquareFeet,
		Actor:         middleware.ActorID(c),
		CorrelationID: middleware.GetTraceID(c),
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Unit created", u, nil)
}

// ListUnits GET /api/v1/units?property_id=&status=
func (h *Handlers) ListUnits(c *fiber.Ctx) error {
	propertyID, err := request.OptionalUUIDQuery(c, "property_id")
	if err != nil {
		return response.FromError(c, err)
	}
	units, err := h.Service.ListUnits(c.UserContext(), propsvc.UnitFilter{
		PropertyID: propertyID,
		Status:     domain.UnitStatus(c.Query("status")),
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Units fetched successfully", units, fiber.Map{"count": len(units)})
}

// DeactivateUnit POST /api/v1/units/:id/deactivate
func (h *Handlers) DeactivateUnit(c *fiber.Ctx) error {
	id, ok, err := request.UUIDParam(c, "id")
	if !ok {
		return err
	}
	u, err := h.Service.SetUnitInactive(c.UserContext(), id, middleware.ActorID(c), middleware.GetTraceID(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Unit deactivated", u, nil)
}

// ReactivateUnit POST /api/v1/units/:id/reactivate
func (h *Handlers) ReactivateUnit(c *fiber.Ctx) error {
	id, ok, err := request.UUIDParam(c, "id")
	if !ok {
		return err
	}
	u, err := h.Service.ReactivateUnit(c.UserContext(), id, middleware.ActorID(c), middleware.GetTraceID(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Unit reactivated", u, nil)
}
