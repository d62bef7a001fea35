package maintenance

import (
	maintsvc "propertyops-backend/internal/application/maintenance"
	"propertyops-backend/internal/domain"
	"propertyops-backend/internal/interfaces/handlers/request"
	"propertyops-backend/internal/middleware"
	"propertyops-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Handlers struct {
	Service *maintsvc.Service
}

type createBody struct {
	UnitID        string           `json:"unit_id" validate:"required,uuid"`
	TenantID      string           `json:"tenant_id" validate:"omitempty,uuid"`
	Category      string           `json:"category"`
	Priority      int              `json:"priority"`
	Description   string           `json:"description" validate:"required"`
	EstimatedCost *decimal.Decimal `json:"estimated_cost"`
}

type statusBody struct {
	Status     string           `json:"status" validate:"required"`
	AssignedTo *string          `json:"assigned_to"`
	ActualCost *decimal.Decimal `json:"actual_cost"`
}

// Create POST /api/v1/maintenance
func (h *Handlers) Create(c *fiber.Ctx) error {
	var body createBody
	if ok, err := request.Bind(c, &body); !ok {
		return err
	}
	in := maintsvc.CreateRequestInput{
		UnitID:        uuid.MustParse(body.UnitID),
		Category:      domain.MaintenanceCategory(body.Category),
		Priority:      body.Priority,
		Description:   body.Description,
		EstimatedCost: body.EstimatedCost,
		Actor:         middleware.ActorID(c),
		CorrelationID: middleware.GetTraceID(c),
	}
	if body.TenantID != "" {
		id := uuid.MustParse(body.TenantID)
		in.TenantID = &id
	}
	req, err := h.Service.CreateRequest(c.UserContext(), in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Maintenance request created", req, nil)
}

// UpdateStatus PATCH /api/v1/maintenance/:id/status
func (h *Handlers) UpdateStatus(c *fiber.Ctx) error {
	id, ok, err := request.UUIDParam(c, "id")
	if !ok {
		return err
	}
	var body statusBody
	if ok, err := request.Bind(c, &body); !ok {
		return err
	}
	req, err := h.Service.UpdateStatus(c.UserContext(), maintsvc.UpdateStatusInput{
		RequestID:     id,
		Status:        domain.MaintenanceStatus(body.Status),
		AssignedTo:    body.AssignedTo,
		ActualCost:    body.ActualCost,
		Actor:         middleware.ActorID(c),
		CorrelationID: middleware.GetTraceID(c),
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Maintenance request updated", req, nil)
}

// List GET /api/v1/maintenance?unit_id=&status=
func (h *Handlers) List(c *fiber.Ctx) error {
	unitID, err := request.OptionalUUIDQuery(c, "unit_id")
	if err != nil {
		return response.FromError(c, err)
	}
	rows, err := h.Service.List(c.UserContext(), maintsvc.ListFilter{UnitID: unitID, Status: domain.MaintenanceStatus(c.Query("status"))})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Maintenance requests fetched successfully", rows, fiber.Map{"count": len(rows)})
}
