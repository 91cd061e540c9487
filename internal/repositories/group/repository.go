package group

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

// GroupRepository defines read access to groups for reference resolution.
type GroupRepository interface {
	GetByID(ctx context.Context, tenantID, id string) (*models.Group, error)
}

// Repository implements GroupRepository against Postgres
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new group repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const tableName = "groups"

// GetByID returns a group by id, or nil when missing or soft-deleted.
func (r *Repository) GetByID(ctx context.Context, tenantID, id string) (*models.Group, error) {
	ctx, span := tracing.StartSpan(ctx, "GroupRepository.GetByID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "tenant_id", "name", "description", "created_at", "deleted_at")
	sb.From(tableName)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	var group models.Group
	if err := r.db.GetContext(ctx, &group, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get group")
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	return &group, nil
}
