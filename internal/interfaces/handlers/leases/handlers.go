package leases

import (
	leasesvc "propertyops-backend/internal/application/leases"
	"propertyops-backend/internal/domain"
	"propertyops-backend/internal/interfaces/handlers/request"
	"propertyops-backend/internal/middleware"
	"propertyops-backend/internal/pkg/apperr"
	"propertyops-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Handlers struct {
	Service *leasesvc.Service
}

type termBody struct {
	UnitID    string           `json:"unit_id" validate:"required,uuid"`
	TenantID  string           `json:"tenant_id" validate:"required,uuid"`
	StartDate request.Date     `json:"start_date"`
	EndDate   request.Date     `json:"end_date"`
	Deposit   *decimal.Decimal `json:"deposit"`
}

func (b termBody) datesMissing() bool {
	return b.StartDate.IsZero() || b.EndDate.IsZero()
}

type confirmBody struct {
	termBody
	DraftLeaseID string `json:"draft_lease_id" validate:"omitempty,uuid"`
}

type draftBody struct {
	termBody
	Terms *string `json:"terms" validate:"omitempty,max=20000"`
}

// ConfirmLease POST /api/v1/leases/confirm
func (h *Handlers) ConfirmLease(c *fiber.Ctx) error {
	var body confirmBody
	if ok, err := request.Bind(c, &body); !ok {
		return err
	}
	if body.datesMissing() {
		return response.Error(c, "start_date and end_date are required", fiber.StatusBadRequest, nil)
	}
	req := leasesvc.ConfirmLeaseRequest{
		UnitID:        uuid.MustParse(body.UnitID),
		TenantID:      uuid.MustParse(body.TenantID),
		StartDate:     body.StartDate.Time,
		EndDate:       body.EndDate.Time,
		Deposit:       body.Deposit,
		RequesterID:   middleware.ActorID(c),
		CorrelationID: middleware.GetTraceID(c),
	}
	if body.DraftLeaseID != "" {
		id := uuid.MustParse(body.DraftLeaseID)
		req.DraftLeaseID = &id
	}
	res, err := h.Service.ConfirmLease(c.UserContext(), req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Lease confirmed", res, nil)
}

// CreateDraft POST /api/v1/leases/drafts
func (h *Handlers) CreateDraft(c *fiber.Ctx) error {
	var body draftBody
	if ok, err := request.Bind(c, &body); !ok {
		return err
	}
	if body.datesMissing() {
		return response.Error(c, "start_date and end_date are required", fiber.StatusBadRequest, nil)
	}
	lease, err := h.Service.CreateDraftLease(c.UserContext(), leasesvc.DraftLeaseRequest{
		UnitID:        uuid.MustParse(body.UnitID),
		TenantID:      uuid.MustParse(body.TenantID),
		StartDate:     body.StartDate.Time,
		EndDate:       body.EndDate.Time,
		Deposit:       body.Deposit,
		Terms:         body.Terms,
		RequesterID:   middleware.ActorID(c),
		CorrelationID: middleware.GetTraceID(c),
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Draft lease created", lease, nil)
}

// Terminate POST /api/v1/leases/:id/terminate
func (h *Handlers) Terminate(c *fiber.Ctx) error {
	id, ok, err := request.UUIDParam(c, "id")
	if !ok {
		return err
	}
	err = h.Service.TerminateLease(c.UserContext(), leasesvc.TerminateLeaseRequest{
		LeaseID:       id,
		RequesterID:   middleware.ActorID(c),
		CorrelationID: middleware.GetTraceID(c),
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Lease terminated", fiber.Map{"lease_id": id}, nil)
}

// Get GET /api/v1/leases/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, ok, err := request.UUIDParam(c, "id")
	if !ok {
		return err
	}
	lease, err := h.Service.GetLease(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Lease fetched successfully", lease, nil)
}

// List GET /api/v1/leases?status=&unit_id=&tenant_id=
func (h *Handlers) List(c *fiber.Ctx) error {
	status := domain.LeaseStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		return response.Error(c, "Invalid status", fiber.StatusBadRequest, nil)
	}
	unitID, err := request.OptionalUUIDQuery(c, "unit_id")
	if err != nil {
		return response.FromError(c, err)
	}
	tenantID, err := request.OptionalUUIDQuery(c, "tenant_id")
	if err != nil {
		return response.FromError(c, err)
	}
	leases, err := h.Service.ListLeases(c.UserContext(), leasesvc.ListFilter{Status: status, UnitID: unitID, TenantID: tenantID})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Leases fetched successfully", leases, fiber.Map{"count": len(leases)})
}

// Schedule GET /api/v1/leases/schedule?start_date=&end_date=&rent= previews
// the payment schedule a confirmation would create.
func (h *Handlers) Schedule(c *fiber.Ctx) error {
	start, err := request.ParseDate(c.Query("start_date"))
	if err != nil {
		return response.Error(c, "Invalid start_date", fiber.StatusBadRequest, nil)
	}
	end, err := request.ParseDate(c.Query("end_date"))
	if err != nil {
		return response.Error(c, "Invalid end_date", fiber.StatusBadRequest, nil)
	}
	if !start.Before(end) {
		return response.FromError(c, apperr.ErrInvalidDateRange)
	}
	rent, err := decimal.NewFromString(c.Query("rent"))
	if err != nil || !rent.IsPositive() {
		return response.FromError(c, apperr.ErrInvalidAmount)
	}
	schedule := leasesvc.GenerateSchedule(start, end, rent)
	return response.Success(c, "Schedule generated", schedule, fiber.Map{"count": len(schedule)})
}
