package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/sis-enroll-api/internal/models"
)

type auditLogStore interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// AuditService records audit trail entries. Recording is fire-and-forget:
// failures are logged and never propagated to the caller.
type AuditService struct {
	repo   auditLogStore
	logger *zap.Logger
}

// NewAuditService constructs AuditService.
func NewAuditService(repo auditLogStore, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, logger: logger}
}

// Record writes an audit entry for a state-changing operation.
func (s *AuditService) Record(ctx context.Context, actorID *int64, action, resource string, resourceID *int64, description string) {
	if s == nil || s.repo == nil {
		return
	}
	entry := &models.AuditLog{
		ActorID:     actorID,
		Action:      action,
		Resource:    resource,
		ResourceID:  resourceID,
		Description: description,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.Warn("audit record failed",
			zap.String("action", action),
			zap.String("resource", resource),
			zap.Error(err))
	}
}
