package document

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

// DocumentRepository defines read access to documents for reference resolution.
type DocumentRepository interface {
	GetByID(ctx context.Context, tenantID, id string) (*models.Document, error)
}

// Repository implements DocumentRepository against Postgres
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new document repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const tableName = "documents"

// GetByID returns a document by id, or nil when missing or soft-deleted.
func (r *Repository) GetByID(ctx context.Context, tenantID, id string) (*models.Document, error) {
	ctx, span := tracing.StartSpan(ctx, "DocumentRepository.GetByID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "tenant_id", "name", "path", "mime_type", "created_at", "deleted_at")
	sb.From(tableName)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	var document models.Document
	if err := r.db.GetContext(ctx, &document, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get document")
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return &document, nil
}
