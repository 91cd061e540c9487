// Package resolver turns stored reference ids into their target entities
// for the read path. Resolution is read-only and idempotent; it never
// mutates stored field values.
package resolver

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/laurel/internal/repositories/document"
	"github.com/Ramsey-B/laurel/internal/repositories/group"
	"github.com/Ramsey-B/laurel/internal/repositories/listitem"
	"github.com/Ramsey-B/laurel/internal/repositories/location"
	"github.com/Ramsey-B/laurel/internal/repositories/person"
	"github.com/Ramsey-B/laurel/internal/repositories/record"
	"github.com/Ramsey-B/laurel/pkg/fields"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

// ResolveFunc loads the target entity for one reference id. A (nil, nil)
// return means the target is missing or soft-deleted; callers render a
// placeholder instead of failing.
type ResolveFunc func(ctx context.Context, tenantID, id string) (any, error)

// Resolver resolves reference fields through a lookup table keyed by field
// kind. The table is built once at construction; an unregistered reference
// kind resolves to nil rather than panicking.
type Resolver struct {
	resolvers map[fields.Kind]ResolveFunc
	logger    ectologger.Logger
}

// NewResolver wires the per-kind lookup table against the target stores.
func NewResolver(
	people person.PersonRepository,
	groups group.GroupRepository,
	locations location.LocationRepository,
	documents document.DocumentRepository,
	listItems listitem.ListItemRepository,
	records record.RecordRepository,
	logger ectologger.Logger,
) *Resolver {
	resolvers := map[fields.Kind]ResolveFunc{
		fields.KindPerson: func(ctx context.Context, tenantID, id string) (any, error) {
			return entityOrNil(people.GetByID(ctx, tenantID, id))
		},
		fields.KindGroup: func(ctx context.Context, tenantID, id string) (any, error) {
			return entityOrNil(groups.GetByID(ctx, tenantID, id))
		},
		fields.KindLocation: func(ctx context.Context, tenantID, id string) (any, error) {
			return entityOrNil(locations.GetByID(ctx, tenantID, id))
		},
		fields.KindDocument: func(ctx context.Context, tenantID, id string) (any, error) {
			return entityOrNil(documents.GetByID(ctx, tenantID, id))
		},
		fields.KindListItem: func(ctx context.Context, tenantID, id string) (any, error) {
			return entityOrNil(listItems.GetByID(ctx, tenantID, id))
		},
		fields.KindRecordLink: func(ctx context.Context, tenantID, id string) (any, error) {
			return entityOrNil(records.GetByID(ctx, tenantID, id))
		},
	}

	return &Resolver{
		resolvers: resolvers,
		logger:    logger,
	}
}

// ResolveFields builds the resolved view of a record's field values. Every
// declared field gets a row; reference fields additionally carry the target
// entity. One failing lookup never poisons the rest: the error is logged,
// that field resolves to nil, and resolution continues.
func (r *Resolver) ResolveFields(ctx context.Context, tenantID string, values map[string]fields.Value) map[string]models.ResolvedFieldValue {
	ctx, span := tracing.StartSpan(ctx, "Resolver.ResolveFields")
	defer span.End()

	resolved := make(map[string]models.ResolvedFieldValue, len(values))
	for name, value := range values {
		resolved[name] = models.ResolvedFieldValue{
			FieldName:     name,
			FieldKind:     value.Kind,
			RawValue:      value.Raw,
			ResolvedValue: r.resolveOne(ctx, tenantID, value),
		}
	}
	return resolved
}

func (r *Resolver) resolveOne(ctx context.Context, tenantID string, value fields.Value) any {
	id, ok := value.RefID()
	if !ok {
		return nil
	}

	resolve, ok := r.resolvers[value.Kind]
	if !ok {
		r.logger.WithContext(ctx).WithFields(map[string]any{
			"field": value.Name,
			"kind":  string(value.Kind),
		}).Warn("no resolver registered for reference kind")
		return nil
	}

	target, err := resolve(ctx, tenantID, id)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"field":     value.Name,
			"kind":      string(value.Kind),
			"target_id": id,
		}).Error("failed to resolve reference field")
		return nil
	}
	return target
}

// entityOrNil collapses a typed nil pointer into an untyped nil so missing
// targets compare equal to nil through the any interface.
func entityOrNil[T any](entity *T, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, nil
	}
	return entity, nil
}
