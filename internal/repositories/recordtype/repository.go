package recordtype

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/laurel/pkg/database"
	"github.com/Ramsey-B/laurel/pkg/fields"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

// RecordTypeRepository defines the interface for record type operations
type RecordTypeRepository interface {
	Create(ctx context.Context, tenantID string, req models.CreateRecordTypeRequest) (*models.RecordType, error)
	GetByID(ctx context.Context, tenantID string, id string) (*models.RecordType, error)
	GetBySlug(ctx context.Context, tenantID string, slug string) (*models.RecordType, error)
	List(ctx context.Context, tenantID string, page, pageSize int) ([]models.RecordType, int, error)
	Update(ctx context.Context, tenantID string, id string, req models.UpdateRecordTypeRequest) (*models.RecordType, error)
	Delete(ctx context.Context, tenantID string, id string) error
	CreateField(ctx context.Context, tenantID string, recordTypeID string, req models.CreateFieldDefinitionRequest) (*models.FieldDefinition, error)
	DeleteField(ctx context.Context, tenantID string, recordTypeID string, fieldID string) error
}

// Repository implements RecordTypeRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new record type repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const tableName = "record_types"
const fieldsTableName = "field_definitions"

var recordTypeColumns = []string{"id", "tenant_id", "name", "slug", "description", "icon", "display_order", "created_at", "updated_at", "deleted_at"}
var fieldColumns = []string{"id", "record_type_id", "name", "label", "kind", "required", "is_key_person", "list_id", "record_type_filter_id", "display_order", "created_at", "updated_at", "deleted_at"}

// Create creates a new record type
func (r *Repository) Create(ctx context.Context, tenantID string, req models.CreateRecordTypeRequest) (*models.RecordType, error) {
	ctx, span := tracing.StartSpan(ctx, "RecordTypeRepository.Create")
	defer span.End()

	now := time.Now()
	id := uuid.New().String()

	// New types go to the end of the sidebar ordering.
	var maxOrder sql.NullInt64
	orderSb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	orderSb.Select("MAX(display_order)")
	orderSb.From(tableName)
	orderSb.Where(
		orderSb.Equal("tenant_id", tenantID),
		orderSb.IsNull("deleted_at"),
	)
	orderQuery, orderArgs := orderSb.Build()
	if err := r.db.GetContext(ctx, &maxOrder, orderQuery, orderArgs...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to get max record type order")
		return nil, fmt.Errorf("failed to create record type: %w", err)
	}
	order := 0
	if maxOrder.Valid {
		order = int(maxOrder.Int64) + 1
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto(tableName)
	sb.Cols("id", "tenant_id", "name", "slug", "description", "icon", "display_order", "created_at", "updated_at")
	sb.Values(id, tenantID, req.Name, req.Slug, req.Description, req.Icon, order, now, now)

	query, args := sb.Build()

	_, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to create record type")
		return nil, fmt.Errorf("failed to create record type: %w", err)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":        id,
		"tenant_id": tenantID,
		"name":      req.Name,
	}).Info("created record type")

	return r.GetByID(ctx, tenantID, id)
}

// GetByID gets a record type by ID with its ordered field definitions
func (r *Repository) GetByID(ctx context.Context, tenantID string, id string) (*models.RecordType, error) {
	ctx, span := tracing.StartSpan(ctx, "RecordTypeRepository.GetByID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(recordTypeColumns...)
	sb.From(tableName)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	var rt models.RecordType
	err := r.db.GetContext(ctx, &rt, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get record type by ID")
		return nil, fmt.Errorf("failed to get record type: %w", err)
	}

	if err := r.loadFields(ctx, &rt); err != nil {
		return nil, err
	}

	return &rt, nil
}

// GetBySlug gets a record type by slug with its ordered field definitions
func (r *Repository) GetBySlug(ctx context.Context, tenantID string, slug string) (*models.RecordType, error) {
	ctx, span := tracing.StartSpan(ctx, "RecordTypeRepository.GetBySlug")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(recordTypeColumns...)
	sb.From(tableName)
	sb.Where(
		sb.Equal("slug", slug),
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	var rt models.RecordType
	err := r.db.GetContext(ctx, &rt, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get record type by slug")
		return nil, fmt.Errorf("failed to get record type: %w", err)
	}

	if err := r.loadFields(ctx, &rt); err != nil {
		return nil, err
	}

	return &rt, nil
}

// loadFields attaches the live field definitions ordered by display order
func (r *Repository) loadFields(ctx context.Context, rt *models.RecordType) error {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(fieldColumns...)
	sb.From(fieldsTableName)
	sb.Where(
		sb.Equal("record_type_id", rt.ID),
		sb.IsNull("deleted_at"),
	)
	sb.OrderBy("display_order ASC")

	query, args := sb.Build()

	var defs []models.FieldDefinition
	if err := r.db.SelectContext(ctx, &defs, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to load field definitions")
		return fmt.Errorf("failed to load field definitions: %w", err)
	}

	rt.Fields = defs
	return nil
}

// List lists record types for a tenant with pagination
func (r *Repository) List(ctx context.Context, tenantID string, page, pageSize int) ([]models.RecordType, int, error) {
	ctx, span := tracing.StartSpan(ctx, "RecordTypeRepository.List")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	countSb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	countSb.Select("COUNT(*)")
	countSb.From(tableName)
	countSb.Where(
		countSb.Equal("tenant_id", tenantID),
		countSb.IsNull("deleted_at"),
	)
	countQuery, countArgs := countSb.Build()

	var totalCount int
	err := r.db.GetContext(ctx, &totalCount, countQuery, countArgs...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to count record types")
		return nil, 0, fmt.Errorf("failed to count record types: %w", err)
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(recordTypeColumns...)
	sb.From(tableName)
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)
	sb.OrderBy("display_order ASC", "name ASC")
	sb.Limit(pageSize)
	sb.Offset(offset)

	query, args := sb.Build()

	var items []models.RecordType
	err = r.db.SelectContext(ctx, &items, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list record types")
		return nil, 0, fmt.Errorf("failed to list record types: %w", err)
	}

	return items, totalCount, nil
}

// Update updates a record type's display attributes
func (r *Repository) Update(ctx context.Context, tenantID string, id string, req models.UpdateRecordTypeRequest) (*models.RecordType, error) {
	ctx, span := tracing.StartSpan(ctx, "RecordTypeRepository.Update")
	defer span.End()

	existing, err := r.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update(tableName)
	sb.Set(sb.Assign("updated_at", time.Now()))

	if req.Name != nil {
		sb.SetMore(sb.Assign("name", *req.Name))
	}
	if req.Description != nil {
		sb.SetMore(sb.Assign("description", *req.Description))
	}
	if req.Icon != nil {
		sb.SetMore(sb.Assign("icon", *req.Icon))
	}
	if req.Order != nil {
		sb.SetMore(sb.Assign("display_order", *req.Order))
	}

	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to update record type")
		return nil, fmt.Errorf("failed to update record type: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":            id,
		"tenant_id":     tenantID,
		"rows_affected": rowsAffected,
	}).Info("updated record type")

	return r.GetByID(ctx, tenantID, id)
}

// Delete soft deletes a record type
func (r *Repository) Delete(ctx context.Context, tenantID string, id string) error {
	ctx, span := tracing.StartSpan(ctx, "RecordTypeRepository.Delete")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update(tableName)
	sb.Set(sb.Assign("deleted_at", time.Now()))
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to delete record type")
		return fmt.Errorf("failed to delete record type: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":            id,
		"tenant_id":     tenantID,
		"rows_affected": rowsAffected,
	}).Info("deleted record type")

	return nil
}

// CreateField appends a field definition to a record type. Display order is
// assigned after the current last field.
func (r *Repository) CreateField(ctx context.Context, tenantID string, recordTypeID string, req models.CreateFieldDefinitionRequest) (*models.FieldDefinition, error) {
	ctx, span := tracing.StartSpan(ctx, "RecordTypeRepository.CreateField")
	defer span.End()

	rt, err := r.GetByID(ctx, tenantID, recordTypeID)
	if err != nil {
		return nil, err
	}
	if rt == nil {
		return nil, nil
	}

	kind, err := fields.Parse(req.Kind)
	if err != nil {
		return nil, err
	}
	if req.IsKeyPerson && kind != fields.KindPerson {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "is_key_person can only be true for person kind fields")
	}
	for _, existing := range rt.Fields {
		if existing.Name == req.Name {
			return nil, httperror.NewHTTPErrorf(http.StatusConflict, "field %q already exists on this record type", req.Name)
		}
	}

	order := 0
	if n := len(rt.Fields); n > 0 {
		order = rt.Fields[n-1].Order + 1
	}

	now := time.Now()
	id := uuid.New().String()

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto(fieldsTableName)
	sb.Cols("id", "record_type_id", "name", "label", "kind", "required", "is_key_person", "list_id", "record_type_filter_id", "display_order", "created_at", "updated_at")
	sb.Values(id, recordTypeID, req.Name, req.Label, string(kind), req.Required, req.IsKeyPerson, req.ListID, req.RecordTypeFilterID, order, now, now)

	query, args := sb.Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to create field definition")
		return nil, fmt.Errorf("failed to create field definition: %w", err)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":             id,
		"record_type_id": recordTypeID,
		"name":           req.Name,
		"kind":           string(kind),
	}).Info("created field definition")

	def := models.FieldDefinition{
		ID:                 id,
		RecordTypeID:       recordTypeID,
		Name:               req.Name,
		Label:              req.Label,
		Kind:               kind,
		Required:           req.Required,
		IsKeyPerson:        req.IsKeyPerson,
		ListID:             req.ListID,
		RecordTypeFilterID: req.RecordTypeFilterID,
		Order:              order,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	return &def, nil
}

// DeleteField soft deletes a field definition. Live records keep the value
// under the old key; it simply stops being declared. Callers verify the
// record type belongs to the tenant first.
func (r *Repository) DeleteField(ctx context.Context, tenantID string, recordTypeID string, fieldID string) error {
	ctx, span := tracing.StartSpan(ctx, "RecordTypeRepository.DeleteField")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update(fieldsTableName)
	sb.Set(sb.Assign("deleted_at", time.Now()))
	sb.Where(
		sb.Equal("id", fieldID),
		sb.Equal("record_type_id", recordTypeID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to delete field definition")
		return fmt.Errorf("failed to delete field definition: %w", err)
	}

	return nil
}
