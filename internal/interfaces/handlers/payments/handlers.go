package payments

import (
	paysvc "propertyops-backend/internal/application/payments"
	"propertyops-backend/internal/domain"
	"propertyops-backend/internal/interfaces/handlers/request"
	"propertyops-backend/internal/middleware"
	"propertyops-backend/internal/pkg/apperr"
	"propertyops-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type Handlers struct {
	Service *paysvc.Service
}

type postBody struct {
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method" validate:"required"`
	Notes  *string         `json:"notes" validate:"omitempty,max=2000"`
}

// Post POST /api/v1/payments/:id/post
func (h *Handlers) Post(c *fiber.Ctx) error {
	id, ok, err := request.UUIDParam(c, "id")
	if !ok {
		return err
	}
	var body postBody
	if ok, err := request.Bind(c, &body); !ok {
		return err
	}
	res, err := h.Service.PostPayment(c.UserContext(), paysvc.PostPaymentRequest{
		PaymentID:     id,
		Amount:        body.Amount,
		Method:        domain.PaymentMethod(body.Method),
		Notes:         body.Notes,
		Actor:         middleware.ActorID(c),
		CorrelationID: middleware.GetTraceID(c),
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Payment posted", res, nil)
}

// List GET /api/v1/payments?lease_id=&status=
func (h *Handlers) List(c *fiber.Ctx) error {
	status := domain.PaymentStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		return response.Error(c, "Invalid status", fiber.StatusBadRequest, nil)
	}
	leaseID, err := request.OptionalUUIDQuery(c, "lease_id")
	if err != nil {
		return response.FromError(c, err)
	}
	payments, err := h.Service.ListPayments(c.UserContext(), paysvc.ListFilter{LeaseID: leaseID, Status: status})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Payments fetched successfully", payments, fiber.Map{"count": len(payments)})
}

// ProcessOverdue POST /api/v1/payments/process-overdue
func (h *Handlers) ProcessOverdue(c *fiber.Ctx) error {
	results, err := h.Service.ProcessOverduePayments(c.UserContext(), middleware.ActorID(c), middleware.GetTraceID(c))
	if err != nil {
		return response.FromError(c, err)
	}
	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	return response.Success(c, "Overdue payments processed", results, fiber.Map{"processed": len(results), "failed": failed})
}

// LateFee GET /api/v1/payments/late-fee?due_date=&amount= quotes the fee
// owed if the payment were posted now.
func (h *Handlers) LateFee(c *fiber.Ctx) error {
	due, err := request.ParseDate(c.Query("due_date"))
	if err != nil {
		return response.Error(c, "Invalid due_date", fiber.StatusBadRequest, nil)
	}
	amount, err := decimal.NewFromString(c.Query("amount"))
	if err != nil || amount.IsNegative() {
		return response.FromError(c, apperr.ErrInvalidAmount)
	}
	fee := h.Service.LateFee(due, amount)
	return response.Success(c, "Late fee calculated", fiber.Map{
		"due_date":   due.Format("2006-01-02"),
		"amount":     amount.StringFixed(2),
		"late_fee":   fee.StringFixed(2),
		"grace_days": h.Service.Policy.GraceDays,
	}, nil)
}
