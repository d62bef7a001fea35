package properties

import (
	"context"
	"errors"

	"propertyops-backend/internal/application/audit"
	"propertyops-backend/internal/domain"
	"propertyops-backend/internal/infrastructure/database"
	"propertyops-backend/internal/pkg/apperr"
	"propertyops-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateTenantInput struct {
	ProfileID             *string `validate:"omitempty,max=64"`
	FullName              string  `validate:"required,max=200"`
	Email                 string  `validate:"required,email"`
	Phone                 *string `validate:"omitempty,max=32"`
	Occupation            *string `validate:"omitempty,max=120"`
	AnnualIncome          *decimal.Decimal
	CreditScore           *int    `validate:"omitempty,min=300,max=850"`
	EmergencyContactName  *string `validate:"omitempty,max=200"`
	EmergencyContactPhone *string `validate:"omitempty,max=32"`

	Actor         string
	CorrelationID string
}

func (s *Service) CreateTenant(ctx context.Context, in CreateTenantInput) (*domain.Tenant, error) {
	tr := s.Audit.Start(audit.Op{Scope: Scope, Name: "create_tenant", ObjectType: "tenant", Actor: in.Actor, CorrelationID: in.CorrelationID,
		Params: map[string]interface{}{"email": in.Email}})
	tenant := &domain.Tenant{
		ProfileID:             in.ProfileID,
		FullName:              in.FullName,
		Email:                 in.Email,
		Phone:                 in.Phone,
		Occupation:            in.Occupation,
		AnnualIncome:          in.AnnualIncome,
		CreditScore:           in.CreditScore,
		EmergencyContactName:  in.EmergencyContactName,
		EmergencyContactPhone: in.EmergencyContactPhone,
	}
	err := validation.Check(ctx, in)
	if err == nil && in.AnnualIncome != nil && in.AnnualIncome.IsNegative() {
		err = apperr.WithMessage(apperr.ErrInvalidAmount, "annual_income must not be negative")
	}
	if err == nil {
		err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tr.Exec(tx.Create(tenant)).Error; err != nil {
				return err
			}
			tr.SetObject("tenant", tenant.TenantID.String())
			tr.Succeed(tx)
			return nil
		})
		err = database.Classify(err)
	}
	tr.Finish(ctx, err)
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

func (s *Service) GetTenant(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	var tenant domain.Tenant
	if err := s.DB.WithContext(ctx).Where("tenant_id = ?", id).First(&tenant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrTenantNotFound
		}
		return nil, database.Classify(err)
	}
	return &tenant, nil
}

func (s *Service) ListTenants(ctx context.Context) ([]domain.Tenant, error) {
	var out []domain.Tenant
	if err := s.DB.WithContext(ctx).Order("full_name").Find(&out).Error; err != nil {
		return nil, database.Classify(err)
	}
	return out, nil
}
