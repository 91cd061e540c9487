package occasion

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

// OccasionRepository defines the interface for occasion persistence.
// Occasions are only ever written as full batches for one record; the
// exactly-one-primary invariant is enforced by the records service before
// any batch reaches this layer.
type OccasionRepository interface {
	InsertBatch(ctx context.Context, recordID string, occasions []models.OccasionInput) ([]models.Occasion, error)
	ReplaceForRecord(ctx context.Context, recordID string, occasions []models.OccasionInput) ([]models.Occasion, error)
	GetByRecordID(ctx context.Context, recordID string) ([]models.Occasion, error)
	GetPrimaryByRecordIDs(ctx context.Context, recordIDs []string) (map[string]models.Occasion, error)
	ListInRange(ctx context.Context, tenantID, dateFrom, dateTo string) ([]models.CalendarOccasion, error)
	DeleteByRecordID(ctx context.Context, recordID string) error
}

// Repository implements OccasionRepository against Postgres
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new occasion repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const tableName = "occasions"

var occasionColumns = []string{"id", "record_id", "label", "date", "time", "location_id", "is_primary", "created_at"}

// InsertBatch inserts one batch of occasions for a record.
func (r *Repository) InsertBatch(ctx context.Context, recordID string, occasions []models.OccasionInput) ([]models.Occasion, error) {
	ctx, span := tracing.StartSpan(ctx, "OccasionRepository.InsertBatch")
	defer span.End()

	if len(occasions) == 0 {
		return []models.Occasion{}, nil
	}

	now := time.Now()
	inserted := make([]models.Occasion, 0, len(occasions))

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto(tableName)
	sb.Cols("id", "record_id", "label", "date", "time", "location_id", "is_primary", "created_at")
	for _, in := range occasions {
		occ := models.Occasion{
			ID:         uuid.New().String(),
			RecordID:   recordID,
			Label:      in.Label,
			Date:       in.Date,
			Time:       in.Time,
			LocationID: in.LocationID,
			IsPrimary:  in.IsPrimary,
			CreatedAt:  now,
		}
		sb.Values(occ.ID, occ.RecordID, occ.Label, occ.Date, occ.Time, occ.LocationID, occ.IsPrimary, occ.CreatedAt)
		inserted = append(inserted, occ)
	}

	query, args := sb.Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"record_id": recordID,
			"count":     len(occasions),
		}).Error("failed to insert occasions")
		return nil, fmt.Errorf("failed to insert occasions: %w", err)
	}

	return inserted, nil
}

// ReplaceForRecord replaces a record's occasions as one batch inside a
// transaction, so readers never observe a record with zero occasions.
func (r *Repository) ReplaceForRecord(ctx context.Context, recordID string, occasions []models.OccasionInput) ([]models.Occasion, error) {
	ctx, span := tracing.StartSpan(ctx, "OccasionRepository.ReplaceForRecord")
	defer span.End()

	callerCtx := ctx
	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to replace occasions: %w", err)
	}

	if err := r.DeleteByRecordID(ctx, recordID); err != nil {
		_ = tx.Rollback(callerCtx)
		return nil, err
	}

	inserted, err := r.InsertBatch(ctx, recordID, occasions)
	if err != nil {
		_ = tx.Rollback(callerCtx)
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to replace occasions: %w", err)
	}

	return inserted, nil
}

// GetByRecordID returns a record's occasions ordered by (date, created_at).
// Unscheduled occasions (empty date) sort first.
func (r *Repository) GetByRecordID(ctx context.Context, recordID string) ([]models.Occasion, error) {
	ctx, span := tracing.StartSpan(ctx, "OccasionRepository.GetByRecordID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(occasionColumns...)
	sb.From(tableName)
	sb.Where(sb.Equal("record_id", recordID))
	sb.OrderBy("date ASC", "created_at ASC")

	query, args := sb.Build()

	var items []models.Occasion
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to get occasions")
		return nil, fmt.Errorf("failed to get occasions: %w", err)
	}

	return items, nil
}

// GetPrimaryByRecordIDs returns the primary occasion for each of the given
// records, keyed by record id. Records without rows are simply absent.
func (r *Repository) GetPrimaryByRecordIDs(ctx context.Context, recordIDs []string) (map[string]models.Occasion, error) {
	ctx, span := tracing.StartSpan(ctx, "OccasionRepository.GetPrimaryByRecordIDs")
	defer span.End()

	if len(recordIDs) == 0 {
		return map[string]models.Occasion{}, nil
	}

	ids := make([]any, 0, len(recordIDs))
	for _, id := range recordIDs {
		ids = append(ids, id)
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(occasionColumns...)
	sb.From(tableName)
	sb.Where(
		sb.In("record_id", ids...),
		sb.Equal("is_primary", true),
	)

	query, args := sb.Build()

	var items []models.Occasion
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to get primary occasions")
		return nil, fmt.Errorf("failed to get primary occasions: %w", err)
	}

	byRecord := make(map[string]models.Occasion, len(items))
	for _, occ := range items {
		byRecord[occ.RecordID] = occ
	}
	return byRecord, nil
}

// ListInRange returns every scheduled occasion in the inclusive date range,
// joined with its owning record for tenant scoping. Unscheduled occasions
// (empty date) are excluded regardless of range.
func (r *Repository) ListInRange(ctx context.Context, tenantID, dateFrom, dateTo string) ([]models.CalendarOccasion, error) {
	ctx, span := tracing.StartSpan(ctx, "OccasionRepository.ListInRange")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(
		"o.id", "o.record_id", "o.label", "o.date", "o.time", "o.location_id", "o.is_primary", "o.created_at",
		"r.tenant_id", "r.record_type_id",
	)
	sb.From(tableName + " o")
	sb.JoinWithOption(sqlbuilder.InnerJoin, "records r", "r.id = o.record_id")
	sb.Where(
		sb.Equal("r.tenant_id", tenantID),
		sb.IsNull("r.deleted_at"),
		sb.NotEqual("o.date", ""),
		sb.GreaterEqualThan("o.date", dateFrom),
		sb.LessEqualThan("o.date", dateTo),
	)
	sb.OrderBy("o.date ASC", "o.time ASC", "o.created_at ASC")

	query, args := sb.Build()

	var items []models.CalendarOccasion
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list occasions in range")
		return nil, fmt.Errorf("failed to list occasions in range: %w", err)
	}

	return items, nil
}

// DeleteByRecordID removes every occasion for a record.
func (r *Repository) DeleteByRecordID(ctx context.Context, recordID string) error {
	ctx, span := tracing.StartSpan(ctx, "OccasionRepository.DeleteByRecordID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom(tableName)
	sb.Where(sb.Equal("record_id", recordID))

	query, args := sb.Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to delete occasions")
		return fmt.Errorf("failed to delete occasions: %w", err)
	}

	return nil
}
