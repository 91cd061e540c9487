package location

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

// LocationRepository defines read access to locations. Both location fields
// and occasion venues resolve through it.
type LocationRepository interface {
	GetByID(ctx context.Context, tenantID, id string) (*models.Location, error)
}

// Repository implements LocationRepository against Postgres
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new location repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const tableName = "locations"

// GetByID returns a location by id, or nil when missing or soft-deleted.
func (r *Repository) GetByID(ctx context.Context, tenantID, id string) (*models.Location, error) {
	ctx, span := tracing.StartSpan(ctx, "LocationRepository.GetByID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "tenant_id", "name", "address", "created_at", "deleted_at")
	sb.From(tableName)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	var location models.Location
	if err := r.db.GetContext(ctx, &location, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get location")
		return nil, fmt.Errorf("failed to get location: %w", err)
	}

	return &location, nil
}
