package listitem

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/laurel/pkg/database"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

// ListItemRepository defines read access to administrator-defined list
// options for reference resolution.
type ListItemRepository interface {
	GetByID(ctx context.Context, tenantID, id string) (*models.ListItem, error)
	GetByListID(ctx context.Context, tenantID, listID string) ([]models.ListItem, error)
}

// Repository implements ListItemRepository against Postgres
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new list item repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const tableName = "list_items"

var listItemColumns = []string{"id", "tenant_id", "list_id", "value", "display_order", "created_at", "deleted_at"}

// GetByID returns a list item by id, or nil when missing or soft-deleted.
func (r *Repository) GetByID(ctx context.Context, tenantID, id string) (*models.ListItem, error) {
	ctx, span := tracing.StartSpan(ctx, "ListItemRepository.GetByID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(listItemColumns...)
	sb.From(tableName)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	var item models.ListItem
	if err := r.db.GetContext(ctx, &item, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get list item")
		return nil, fmt.Errorf("failed to get list item: %w", err)
	}

	return &item, nil
}

// GetByListID returns the active options of a list ordered for display.
func (r *Repository) GetByListID(ctx context.Context, tenantID, listID string) ([]models.ListItem, error) {
	ctx, span := tracing.StartSpan(ctx, "ListItemRepository.GetByListID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(listItemColumns...)
	sb.From(tableName)
	sb.Where(
		sb.Equal("list_id", listID),
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)
	sb.OrderBy("display_order ASC")

	query, args := sb.Build()

	var items []models.ListItem
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to get list items")
		return nil, fmt.Errorf("failed to get list items: %w", err)
	}

	return items, nil
}
