// Package records implements the write and read paths for records: schema
// validation, occasion invariants, atomic creation, resolution, listing,
// the calendar feed, and the audit trail.
package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/laurel/internal/repositories/auditlog"
	"github.com/Ramsey-B/laurel/internal/repositories/occasion"
	"github.com/Ramsey-B/laurel/internal/repositories/person"
	"github.com/Ramsey-B/laurel/internal/repositories/record"
	"github.com/Ramsey-B/laurel/internal/repositories/recordtype"
	"github.com/Ramsey-B/laurel/pkg/appcontext"
	"github.com/Ramsey-B/laurel/pkg/database"
	"github.com/Ramsey-B/laurel/pkg/events"
	"github.com/Ramsey-B/laurel/pkg/fields"
	"github.com/Ramsey-B/laurel/pkg/fingerprint"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/normalizers"
	"github.com/Ramsey-B/laurel/pkg/resolver"
	"github.com/Ramsey-B/laurel/pkg/schema"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

// Stable occasion invariant messages. Clients match on these exact strings.
const (
	ErrNoOccasions     = "At least one occasion is required"
	ErrNotOnePrimary   = "Exactly one occasion must be marked as primary"
	compensateAttempts = 3
)

// TxBeginner starts a context transaction. Stores that cannot provide one
// (test doubles, future non-SQL backends) leave it nil and creation falls
// back to a compensated two-step write.
type TxBeginner interface {
	GetTx(ctx context.Context, opts *sql.TxOptions) (context.Context, database.Tx, error)
}

// Sort orders for record listings.
const (
	SortDateAsc     = "date_asc"
	SortDateDesc    = "date_desc"
	SortCreatedAsc  = "created_asc"
	SortCreatedDesc = "created_desc"
)

// ListQuery is the query surface for record listings. Date bounds are
// inclusive and apply to the primary occasion's date. Search matches the
// full names of people referenced by key-person fields.
type ListQuery struct {
	RecordTypeID string
	Search       string
	DateFrom     string
	DateTo       string
	Sort         string
	Offset       int
	Limit        int
}

// Service coordinates the repositories behind the record API.
type Service struct {
	recordTypes recordtype.RecordTypeRepository
	records     record.RecordRepository
	occasions   occasion.OccasionRepository
	auditLogs   auditlog.AuditLogRepository
	people      person.PersonRepository
	resolver    *resolver.Resolver
	emitter     *events.Emitter
	tx          TxBeginner
	logger      ectologger.Logger
}

// NewService creates a new records service
func NewService(
	recordTypes recordtype.RecordTypeRepository,
	records record.RecordRepository,
	occasions occasion.OccasionRepository,
	auditLogs auditlog.AuditLogRepository,
	people person.PersonRepository,
	res *resolver.Resolver,
	emitter *events.Emitter,
	tx TxBeginner,
	logger ectologger.Logger,
) *Service {
	return &Service{
		recordTypes: recordTypes,
		records:     records,
		occasions:   occasions,
		auditLogs:   auditLogs,
		people:      people,
		resolver:    res,
		emitter:     emitter,
		tx:          tx,
		logger:      logger,
	}
}

// Create validates and creates a record together with its first batch of
// occasions. The two writes are atomic: wrapped in a transaction when the
// store supports one, otherwise the record insert is compensated with a
// hard delete if the occasion insert fails.
func (s *Service) Create(ctx context.Context, tenantID, recordTypeID string, req models.CreateRecordRequest) (*models.RecordWithRelations, error) {
	ctx, span := tracing.StartSpan(ctx, "RecordsService.Create")
	defer span.End()

	rt, err := s.recordTypes.GetByID(ctx, tenantID, recordTypeID)
	if err != nil {
		return nil, err
	}
	if rt == nil {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "record type %s not found", recordTypeID)
	}

	validator := schema.NewValidator(rt.FieldSet())
	if result := validator.Validate(req.FieldValues); !result.Valid {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "field values failed validation").
			AddMetaValue("errors", result.Errors)
	}

	if err := validateOccasions(req.Occasions); err != nil {
		return nil, err
	}

	rec, occs, err := s.createAtomic(ctx, tenantID, recordTypeID, req)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, rec, models.AuditOperationInsert, nil, rec.FieldValues)
	s.emitter.EmitRecordCreated(ctx, rec)

	return s.assemble(ctx, rec, rt, occs)
}

func (s *Service) createAtomic(ctx context.Context, tenantID, recordTypeID string, req models.CreateRecordRequest) (*models.Record, []models.Occasion, error) {
	if s.tx != nil {
		return s.createInTx(ctx, tenantID, recordTypeID, req)
	}

	rec, err := s.records.Insert(ctx, tenantID, recordTypeID, req.FieldValues)
	if err != nil {
		return nil, nil, err
	}

	occs, err := s.occasions.InsertBatch(ctx, rec.ID, req.Occasions)
	if err != nil {
		s.compensateCreate(ctx, tenantID, rec.ID)
		return nil, nil, err
	}

	return rec, occs, nil
}

func (s *Service) createInTx(ctx context.Context, tenantID, recordTypeID string, req models.CreateRecordRequest) (*models.Record, []models.Occasion, error) {
	callerCtx := ctx
	ctx, tx, err := s.tx.GetTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}

	rec, err := s.records.Insert(ctx, tenantID, recordTypeID, req.FieldValues)
	if err != nil {
		_ = tx.Rollback(callerCtx)
		return nil, nil, err
	}

	occs, err := s.occasions.InsertBatch(ctx, rec.ID, req.Occasions)
	if err != nil {
		_ = tx.Rollback(callerCtx)
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}

	return rec, occs, nil
}

// compensateCreate removes the record half of a failed create. The delete
// is idempotent, so it is retried until it sticks; a record that survives
// all attempts is logged for manual cleanup.
func (s *Service) compensateCreate(ctx context.Context, tenantID, recordID string) {
	for attempt := 1; attempt <= compensateAttempts; attempt++ {
		if err := s.records.HardDelete(ctx, tenantID, recordID); err == nil {
			return
		}
		time.Sleep(time.Duration(attempt) * 100 * time.Millisecond)
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"record_id": recordID,
		"tenant_id": tenantID,
	}).Error("failed to compensate partial record create; record is orphaned")
}

// Get returns the full read model for one record, or nil when missing.
func (s *Service) Get(ctx context.Context, tenantID, id string) (*models.RecordWithRelations, error) {
	ctx, span := tracing.StartSpan(ctx, "RecordsService.Get")
	defer span.End()

	rec, err := s.records.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}

	rt, err := s.recordTypes.GetByID(ctx, tenantID, rec.RecordTypeID)
	if err != nil {
		return nil, err
	}
	if rt == nil {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "record type %s not found", rec.RecordTypeID)
	}

	occs, err := s.occasions.GetByRecordID(ctx, rec.ID)
	if err != nil {
		return nil, err
	}

	return s.assemble(ctx, rec, rt, occs)
}

// Update replaces a record's field-value map wholesale. Concurrent updates
// are last-write-wins. Required fields are not re-checked: an update may
// clear a field that creation required. Writing values identical to the
// stored ones is a no-op that skips audit and events.
func (s *Service) Update(ctx context.Context, tenantID, id string, req models.UpdateRecordRequest) (*models.RecordWithRelations, error) {
	ctx, span := tracing.StartSpan(ctx, "RecordsService.Update")
	defer span.End()

	rec, err := s.records.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "record %s not found", id)
	}

	rt, err := s.recordTypes.GetByID(ctx, tenantID, rec.RecordTypeID)
	if err != nil {
		return nil, err
	}
	if rt == nil {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "record type %s not found", rec.RecordTypeID)
	}

	occs, err := s.occasions.GetByRecordID(ctx, rec.ID)
	if err != nil {
		return nil, err
	}

	if req.FieldValues == nil {
		return s.assemble(ctx, rec, rt, occs)
	}

	validator := schema.NewValidator(rt.FieldSet())
	if result := validator.ValidateUpdate(req.FieldValues); !result.Valid {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "field values failed validation").
			AddMetaValue("errors", result.Errors)
	}

	if unchanged(rec.FieldValues, req.FieldValues) {
		return s.assemble(ctx, rec, rt, occs)
	}

	oldValues := rec.FieldValues

	updated, err := s.records.UpdateFieldValues(ctx, tenantID, id, req.FieldValues)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "record %s not found", id)
	}

	s.audit(ctx, updated, models.AuditOperationUpdate, oldValues, updated.FieldValues)
	s.emitter.EmitRecordUpdated(ctx, updated)

	return s.assemble(ctx, updated, rt, occs)
}

// ReplaceOccasions swaps a record's occasion batch for a new one.
func (s *Service) ReplaceOccasions(ctx context.Context, tenantID, recordID string, req models.ReplaceOccasionsRequest) ([]models.Occasion, error) {
	ctx, span := tracing.StartSpan(ctx, "RecordsService.ReplaceOccasions")
	defer span.End()

	rec, err := s.records.GetByID(ctx, tenantID, recordID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "record %s not found", recordID)
	}

	if err := validateOccasions(req.Occasions); err != nil {
		return nil, err
	}

	oldOccs, err := s.occasions.GetByRecordID(ctx, recordID)
	if err != nil {
		return nil, err
	}

	occs, err := s.occasions.ReplaceForRecord(ctx, recordID, req.Occasions)
	if err != nil {
		return nil, err
	}

	oldJSON, _ := json.Marshal(oldOccs)
	newJSON, _ := json.Marshal(occs)
	s.audit(ctx, rec, models.AuditOperationUpdate, oldJSON, newJSON)
	s.emitter.EmitRecordUpdated(ctx, rec)

	return occs, nil
}

// Delete removes a record and, through the store's cascade, its occasions.
// The delete is hard: records carry no soft-delete lifecycle of their own.
func (s *Service) Delete(ctx context.Context, tenantID, id string) error {
	ctx, span := tracing.StartSpan(ctx, "RecordsService.Delete")
	defer span.End()

	rec, err := s.records.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if rec == nil {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "record %s not found", id)
	}

	if err := s.records.HardDelete(ctx, tenantID, id); err != nil {
		return err
	}

	s.audit(ctx, rec, models.AuditOperationDelete, rec.FieldValues, nil)
	s.emitter.EmitRecordDeleted(ctx, tenantID, rec.ID, rec.RecordTypeID)

	return nil
}

// List pages through a record type's records. Filtering and date sorting
// happen after the storage page is fetched, so pagination is approximate: a
// page may come back shorter than the limit while later pages still hold
// matches. Callers page until an empty page.
func (s *Service) List(ctx context.Context, tenantID string, query ListQuery) (*models.RecordListResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "RecordsService.List")
	defer span.End()

	rt, err := s.recordTypes.GetByID(ctx, tenantID, query.RecordTypeID)
	if err != nil {
		return nil, err
	}
	if rt == nil {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "record type %s not found", query.RecordTypeID)
	}

	if query.Limit <= 0 {
		query.Limit = 50
	}

	storageSort := record.CreatedDesc
	if query.Sort == SortCreatedAsc {
		storageSort = record.CreatedAsc
	}

	recs, err := s.records.List(ctx, tenantID, query.RecordTypeID, storageSort, query.Offset, query.Limit)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, rec.ID)
	}

	primaries, err := s.occasions.GetPrimaryByRecordIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]models.RecordListItem, 0, len(recs))
	for i := range recs {
		rec := recs[i]
		item := models.RecordListItem{Record: rec, RecordType: rt}
		if primary, ok := primaries[rec.ID]; ok {
			occ := primary
			item.PrimaryOccasion = &occ
		}
		items = append(items, item)
	}

	items, err = s.filterItems(ctx, tenantID, rt, items, query)
	if err != nil {
		return nil, err
	}

	sortItems(items, query.Sort)

	return &models.RecordListResponse{
		Items:  items,
		Offset: query.Offset,
		Limit:  query.Limit,
	}, nil
}

// Calendar returns every scheduled occasion in the inclusive date range.
func (s *Service) Calendar(ctx context.Context, tenantID, from, to string) (*models.CalendarResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "RecordsService.Calendar")
	defer span.End()

	if from == "" || to == "" {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "from and to dates are required")
	}
	if from > to {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "from date must not be after to date")
	}

	items, err := s.occasions.ListInRange(ctx, tenantID, from, to)
	if err != nil {
		return nil, err
	}

	return &models.CalendarResponse{Items: items, From: from, To: to}, nil
}

// History returns a record's audit entries, newest first.
func (s *Service) History(ctx context.Context, tenantID, recordID string, offset, limit int) (*models.AuditLogListResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "RecordsService.History")
	defer span.End()

	if limit <= 0 {
		limit = 50
	}

	items, err := s.auditLogs.ListByRecord(ctx, tenantID, recordID, offset, limit)
	if err != nil {
		return nil, err
	}

	return &models.AuditLogListResponse{Items: items, Offset: offset, Limit: limit}, nil
}

// filterItems applies the date-range and key-person search filters to one
// fetched page.
func (s *Service) filterItems(ctx context.Context, tenantID string, rt *models.RecordType, items []models.RecordListItem, query ListQuery) ([]models.RecordListItem, error) {
	if query.DateFrom != "" || query.DateTo != "" {
		filtered := items[:0]
		for _, item := range items {
			// Unscheduled records never match a date filter.
			date := itemDate(item)
			if date == "" {
				continue
			}
			if query.DateFrom != "" && date < query.DateFrom {
				continue
			}
			if query.DateTo != "" && date > query.DateTo {
				continue
			}
			filtered = append(filtered, item)
		}
		items = filtered
	}

	if query.Search == "" {
		return items, nil
	}

	keyFields := keyPersonFields(rt)
	if len(keyFields) == 0 {
		return []models.RecordListItem{}, nil
	}

	personIDs := make([]string, 0, len(items))
	seen := map[string]bool{}
	refsByRecord := make(map[string][]string, len(items))
	for _, item := range items {
		raw, err := item.Record.RawFieldValues()
		if err != nil {
			s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"record_id": item.Record.ID,
			}).Error("failed to decode field values for search")
			continue
		}
		for _, name := range keyFields {
			id, ok := raw[name].(string)
			if !ok || id == "" {
				continue
			}
			refsByRecord[item.Record.ID] = append(refsByRecord[item.Record.ID], id)
			if !seen[id] {
				seen[id] = true
				personIDs = append(personIDs, id)
			}
		}
	}

	people, err := s.people.GetByIDs(ctx, tenantID, personIDs)
	if err != nil {
		return nil, err
	}

	needle := normalizers.Query(query.Search)
	filtered := items[:0]
	for _, item := range items {
		for _, id := range refsByRecord[item.Record.ID] {
			p, ok := people[id]
			if !ok {
				continue
			}
			if strings.Contains(normalizers.Name(p.FullName), needle) {
				filtered = append(filtered, item)
				break
			}
		}
	}
	return filtered, nil
}

// assemble builds the full read model from its loaded parts.
func (s *Service) assemble(ctx context.Context, rec *models.Record, rt *models.RecordType, occs []models.Occasion) (*models.RecordWithRelations, error) {
	raw, err := rec.RawFieldValues()
	if err != nil {
		return nil, err
	}

	// Keys left behind by since-deleted field definitions are dropped from
	// the resolved view rather than failing the read.
	values, _ := fields.Decode(rt.FieldSet(), raw)

	resolved := s.resolver.ResolveFields(ctx, rec.TenantID, values)

	if occs == nil {
		occs = []models.Occasion{}
	}

	return &models.RecordWithRelations{
		Record:         *rec,
		RecordType:     *rt,
		Occasions:      occs,
		ResolvedFields: resolved,
	}, nil
}

// audit appends one change-history entry. Auditing is best-effort: a failed
// insert is logged and never fails the mutation it describes.
func (s *Service) audit(ctx context.Context, rec *models.Record, operation string, oldValues, newValues json.RawMessage) {
	entry := &models.AuditLog{
		TenantID:     rec.TenantID,
		RecordID:     rec.ID,
		RecordTypeID: rec.RecordTypeID,
		Operation:    operation,
		OldValues:    oldValues,
		NewValues:    newValues,
		UserID:       appcontext.GetUserID(ctx),
		RequestID:    appcontext.GetRequestID(ctx),
	}

	if _, err := s.auditLogs.Insert(ctx, entry); err != nil {
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"record_id": rec.ID,
			"operation": operation,
		}).Error("failed to write audit log")
	}
}

// validateOccasions enforces the batch invariants: at least one occasion,
// exactly one primary.
func validateOccasions(occasions []models.OccasionInput) error {
	if len(occasions) == 0 {
		return httperror.NewHTTPError(http.StatusBadRequest, ErrNoOccasions)
	}

	primaries := 0
	for _, occ := range occasions {
		if occ.IsPrimary {
			primaries++
		}
	}
	if primaries != 1 {
		return httperror.NewHTTPError(http.StatusBadRequest, ErrNotOnePrimary)
	}

	return nil
}

// unchanged reports whether the replacement map equals the stored values.
func unchanged(stored json.RawMessage, replacement map[string]any) bool {
	storedHash, err := fingerprint.GenerateFromJSON(stored)
	if err != nil {
		return false
	}
	return storedHash == fingerprint.Generate(replacement)
}

// keyPersonFields returns the names of the type's key-person fields.
func keyPersonFields(rt *models.RecordType) []string {
	var names []string
	for _, def := range rt.Fields {
		if def.Kind == fields.KindPerson && def.IsKeyPerson {
			names = append(names, def.Name)
		}
	}
	return names
}

// sortItems orders one page in place. Date sorts use the primary occasion's
// date with unscheduled records (empty date) first ascending; ties break on
// record id ascending.
func sortItems(items []models.RecordListItem, sortOrder string) {
	switch sortOrder {
	case SortDateAsc, SortDateDesc:
		desc := sortOrder == SortDateDesc
		sort.SliceStable(items, func(i, j int) bool {
			a, b := itemDate(items[i]), itemDate(items[j])
			if a != b {
				if desc {
					return a > b
				}
				return a < b
			}
			return items[i].Record.ID < items[j].Record.ID
		})
	default:
		// created_* orders come from storage already.
	}
}

func itemDate(item models.RecordListItem) string {
	if item.PrimaryOccasion == nil {
		return ""
	}
	return item.PrimaryOccasion.Date
}
