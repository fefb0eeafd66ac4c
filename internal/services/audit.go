package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/baharkarakas/blog-backend/internal/models"
	repo "github.com/baharkarakas/blog-backend/internal/repository"
)

// recordAudit writes an audit entry. A failure is logged and swallowed so
// the request that triggered it still succeeds.
func recordAudit(ctx context.Context, logs repo.AuditLogs, log *zap.Logger, actorID, entityType, entityID, action string, details map[string]any) {
	if logs == nil {
		return
	}
	entry := models.AuditLog{
		EntityType: entityType,
		EntityID:   &entityID,
		Action:     action,
		Details:    details,
	}
	if actorID != "" {
		entry.ActorID = &actorID
	}
	if err := logs.Create(ctx, entry); err != nil {
		log.Warn("audit log write failed", zap.String("action", action), zap.String("entity_id", entityID), zap.Error(err))
	}
}
