package audit

import (
	"context"
	"time"

	"propertyops-backend/internal/domain"
	"propertyops-backend/internal/infrastructure/redisstream"

	"gorm.io/gorm"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type ListFilter struct {
	Scope         string
	Status        string
	CorrelationID string
	Limit         int
}

// Service answers read queries over the log.
type Service struct {
	DB   *gorm.DB
	Feed *redisstream.Stream
}

// List returns the newest entries first.
func (s *Service) List(ctx context.Context, f ListFilter) ([]domain.AuditLog, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	q := s.DB.WithContext(ctx).Model(&domain.AuditLog{})
	if f.Scope != "" {
		q = q.Where("scope = ?", f.Scope)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.CorrelationID != "" {
		q = q.Where("correlation_id = ?", f.CorrelationID)
	}
	var rows []domain.AuditLog
	if err := q.Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Tail reads feed entries after the given stream id.
func (s *Service) Tail(ctx context.Context, after string, count int64, block time.Duration) ([]redisstream.Message, error) {
	return s.Feed.Read(ctx, after, count, block)
}
