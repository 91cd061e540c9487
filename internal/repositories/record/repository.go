package record

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/laurel/pkg/database"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

// CreatedSort orders a base listing query by creation time.
type CreatedSort string

const (
	CreatedAsc  CreatedSort = "created_asc"
	CreatedDesc CreatedSort = "created_desc"
)

// RecordRepository defines the interface for record persistence
type RecordRepository interface {
	Insert(ctx context.Context, tenantID string, recordTypeID string, fieldValues map[string]any) (*models.Record, error)
	GetByID(ctx context.Context, tenantID string, id string) (*models.Record, error)
	List(ctx context.Context, tenantID string, recordTypeID string, sort CreatedSort, offset, limit int) ([]models.Record, error)
	UpdateFieldValues(ctx context.Context, tenantID string, id string, fieldValues map[string]any) (*models.Record, error)
	HardDelete(ctx context.Context, tenantID string, id string) error
}

// Repository implements RecordRepository against Postgres
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new record repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const tableName = "records"

var recordColumns = []string{"id", "tenant_id", "record_type_id", "field_values", "created_at", "updated_at", "deleted_at"}

// Insert inserts a new record row. Validation happens in the service; this
// writes exactly what it is given.
func (r *Repository) Insert(ctx context.Context, tenantID string, recordTypeID string, fieldValues map[string]any) (*models.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "RecordRepository.Insert")
	defer span.End()

	values, err := marshalFieldValues(fieldValues)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to encode field values")
		return nil, fmt.Errorf("failed to encode field values: %w", err)
	}

	now := time.Now()
	id := uuid.New().String()

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto(tableName)
	sb.Cols("id", "tenant_id", "record_type_id", "field_values", "created_at", "updated_at")
	sb.Values(id, tenantID, recordTypeID, values, now, now)

	query, args := sb.Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to insert record")
		return nil, fmt.Errorf("failed to insert record: %w", err)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":             id,
		"tenant_id":      tenantID,
		"record_type_id": recordTypeID,
	}).Info("created record")

	return &models.Record{
		ID:           id,
		TenantID:     tenantID,
		RecordTypeID: recordTypeID,
		FieldValues:  values,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// GetByID gets a record by ID
func (r *Repository) GetByID(ctx context.Context, tenantID string, id string) (*models.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "RecordRepository.GetByID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(recordColumns...)
	sb.From(tableName)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	var rec models.Record
	err := r.db.GetContext(ctx, &rec, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get record by ID")
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	return &rec, nil
}

// List returns one storage-level page of the unfiltered base query, ordered
// by creation time. Search and date filters are applied in memory by the
// query layer on top of this page.
func (r *Repository) List(ctx context.Context, tenantID string, recordTypeID string, sort CreatedSort, offset, limit int) ([]models.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "RecordRepository.List")
	defer span.End()

	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 200 {
		limit = 200
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(recordColumns...)
	sb.From(tableName)
	where := []string{
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	}
	if recordTypeID != "" {
		where = append(where, sb.Equal("record_type_id", recordTypeID))
	}
	sb.Where(where...)

	if sort == CreatedAsc {
		sb.OrderBy("created_at ASC", "id ASC")
	} else {
		sb.OrderBy("created_at DESC", "id ASC")
	}
	sb.Limit(limit)
	sb.Offset(offset)

	query, args := sb.Build()

	var items []models.Record
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list records")
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	return items, nil
}

// UpdateFieldValues replaces the field-value map wholesale. There is no
// merge and no version column: concurrent updates are last-write-wins.
func (r *Repository) UpdateFieldValues(ctx context.Context, tenantID string, id string, fieldValues map[string]any) (*models.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "RecordRepository.UpdateFieldValues")
	defer span.End()

	values, err := marshalFieldValues(fieldValues)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to encode field values")
		return nil, fmt.Errorf("failed to encode field values: %w", err)
	}

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update(tableName)
	sb.Set(
		sb.Assign("field_values", values),
		sb.Assign("updated_at", time.Now()),
	)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to update record")
		return nil, fmt.Errorf("failed to update record: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":            id,
		"tenant_id":     tenantID,
		"rows_affected": rowsAffected,
	}).Info("updated record field values")

	return r.GetByID(ctx, tenantID, id)
}

// HardDelete removes the record row permanently. Occasions go with it via
// the cascading foreign key. Idempotent: deleting an already-deleted record
// is not an error, which lets the create saga retry its compensation.
func (r *Repository) HardDelete(ctx context.Context, tenantID string, id string) error {
	ctx, span := tracing.StartSpan(ctx, "RecordRepository.HardDelete")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom(tableName)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
	)

	query, args := sb.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to delete record")
		return fmt.Errorf("failed to delete record: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":            id,
		"tenant_id":     tenantID,
		"rows_affected": rowsAffected,
	}).Info("deleted record")

	return nil
}

// marshalFieldValues encodes the raw map for the jsonb column. Postgres
// jsonb requires valid JSON, so a nil map becomes an empty object.
func marshalFieldValues(fieldValues map[string]any) (json.RawMessage, error) {
	if fieldValues == nil {
		fieldValues = map[string]any{}
	}
	return json.Marshal(fieldValues)
}
