package auditlog

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/laurel/pkg/database"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

// AuditLogRepository persists the change history of records. Entries are
// append-only; there is no update or delete path.
type AuditLogRepository interface {
	Insert(ctx context.Context, entry *models.AuditLog) (*models.AuditLog, error)
	ListByRecord(ctx context.Context, tenantID, recordID string, offset, limit int) ([]models.AuditLog, error)
}

// Repository implements AuditLogRepository against Postgres
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new audit log repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const tableName = "audit_logs"

var auditColumns = []string{"id", "tenant_id", "record_id", "record_type_id", "operation", "old_values", "new_values", "user_id", "request_id", "created_at"}

// Insert appends one audit entry.
func (r *Repository) Insert(ctx context.Context, entry *models.AuditLog) (*models.AuditLog, error) {
	ctx, span := tracing.StartSpan(ctx, "AuditLogRepository.Insert")
	defer span.End()

	row := *entry
	row.ID = uuid.New().String()
	row.CreatedAt = time.Now()

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto(tableName)
	sb.Cols(auditColumns...)
	sb.Values(row.ID, row.TenantID, row.RecordID, row.RecordTypeID, row.Operation, nullableJSON(row.OldValues), nullableJSON(row.NewValues), row.UserID, row.RequestID, row.CreatedAt)

	query, args := sb.Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"record_id": row.RecordID,
			"operation": row.Operation,
		}).Error("failed to insert audit log")
		return nil, fmt.Errorf("failed to insert audit log: %w", err)
	}

	return &row, nil
}

// ListByRecord returns a record's audit entries, newest first.
func (r *Repository) ListByRecord(ctx context.Context, tenantID, recordID string, offset, limit int) ([]models.AuditLog, error) {
	ctx, span := tracing.StartSpan(ctx, "AuditLogRepository.ListByRecord")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(auditColumns...)
	sb.From(tableName)
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("record_id", recordID),
	)
	sb.OrderBy("created_at DESC")
	sb.Offset(offset)
	sb.Limit(limit)

	query, args := sb.Build()

	var items []models.AuditLog
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list audit logs")
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}

	return items, nil
}

// nullableJSON maps an absent payload to SQL NULL instead of an empty blob.
func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
