package ports

import (
	"context"

	"betting-model-service/internal/core/domain"
)

type AuditFilter struct {
	ModelName string
	Action    string
	Limit     int
	Offset    int
}

// AuditRepository persists the lifecycle audit trail.
type AuditRepository interface {
	Record(ctx context.Context, entry *domain.AuditEntry) error
	List(ctx context.Context, filter AuditFilter) ([]*domain.AuditEntry, int, error)
}
