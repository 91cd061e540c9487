package person

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

// PersonRepository defines read access to the people directory. The
// directory itself is owned by another system; laurel only resolves
// references against it.
type PersonRepository interface {
	GetByID(ctx context.Context, tenantID, id string) (*models.Person, error)
	GetByIDs(ctx context.Context, tenantID string, ids []string) (map[string]models.Person, error)
}

// Repository implements PersonRepository against Postgres
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new person repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const tableName = "people"

var personColumns = []string{"id", "tenant_id", "full_name", "email", "phone", "created_at", "deleted_at"}

// GetByID returns a person by id, or nil when missing or soft-deleted.
func (r *Repository) GetByID(ctx context.Context, tenantID, id string) (*models.Person, error) {
	ctx, span := tracing.StartSpan(ctx, "PersonRepository.GetByID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(personColumns...)
	sb.From(tableName)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	var person models.Person
	if err := r.db.GetContext(ctx, &person, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get person")
		return nil, fmt.Errorf("failed to get person: %w", err)
	}

	return &person, nil
}

// GetByIDs returns the people with the given ids keyed by id. Missing or
// soft-deleted ids are simply absent from the result.
func (r *Repository) GetByIDs(ctx context.Context, tenantID string, ids []string) (map[string]models.Person, error) {
	ctx, span := tracing.StartSpan(ctx, "PersonRepository.GetByIDs")
	defer span.End()

	if len(ids) == 0 {
		return map[string]models.Person{}, nil
	}

	values := make([]any, 0, len(ids))
	for _, id := range ids {
		values = append(values, id)
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(personColumns...)
	sb.From(tableName)
	sb.Where(
		sb.In("id", values...),
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	var items []models.Person
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to get people")
		return nil, fmt.Errorf("failed to get people: %w", err)
	}

	byID := make(map[string]models.Person, len(items))
	for _, p := range items {
		byID[p.ID] = p
	}
	return byID, nil
}
