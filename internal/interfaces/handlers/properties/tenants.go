package properties

import (
	propsvc "propertyops-backend/internal/application/properties"
	"propertyops-backend/internal/interfaces/handlers/request"
	"propertyops-backend/internal/middleware"
	"propertyops-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type tenantBody struct {
	ProfileID             *string          `json:"profile_id"`
	FullName              string           `json:"full_name" validate:"required"`
	Email                 string           `json:"email" validate:"required"`
	Phone                 *string          `json:"phone"`
	Occupation            *string          `json:"occupation"`
	AnnualIncome          *decimal.Decimal `json:"annual_income"`
	CreditScore           *int             `json:"credit_score"`
	EmergencyContactName  *string          `json:"emergency_contact_name"`
	EmergencyContactPhone *string          `json:"emergency_contact_phone"`
}

// CreateTenant POST /api/v1/tenants
func (h *Handlers) CreateTenant(c *fiber.Ctx) error {
	var body tenantBody
	if ok, err := request.Bind(c, &body); !ok {
		return err
	}
	tenant, err := h.Service.CreateTenant(c.UserContext(), propsvc.CreateTenantInput{
		ProfileID:             body.ProfileID,
		FullName:              body.FullName,
		Email:                 body.Email,
		Phone:                 body.Phone,
		Occupation:            body.Occupation,
		AnnualIncome:          body.AnnualIncome,
		CreditScore:           body.CreditScore,
		EmergencyContactName:  body.EmergencyContactName,
		EmergencyContactPhone: body.EmergencyContactPhone,
		Actor:                 middleware.ActorID(c),
		CorrelationID:         middleware.GetTraceID(c),
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Tenant created", tenant, nil)
}

// ListTenants GET /api/v1/tenants
func (h *Handlers) ListTenants(c *fiber.Ctx) error {
	rows, err := h.Service.ListTenants(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Tenants fetched successfully", rows, fiber.Map{"count": len(rows)})
}

// GetTenant GET /api/v1/tenants/:id
func (h *Handlers) GetTenant(c *fiber.Ctx) error {
	id, ok, err := request.UUIDParam(c, "id")
	if !ok {
		return err
	}
	tenant, err := h.Service.GetTenant(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Tenant fetched successfully", tenant, nil)
}
