package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/laurel/internal/repositories/record"
	"github.com/Ramsey-B/laurel/pkg/database"
	"github.com/Ramsey-B/laurel/pkg/events"
	"github.com/Ramsey-B/laurel/pkg/fields"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/resolver"
)

const testTenant = "tenant-1"

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

// ---- fakes ----

type fakeRecordTypeRepo struct {
	types map[string]*models.RecordType
}

func (f *fakeRecordTypeRepo) Create(ctx context.Context, tenantID string, req models.CreateRecordTypeRequest) (*models.RecordType, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeRecordTypeRepo) GetByID(ctx context.Context, tenantID, id string) (*models.RecordType, error) {
	rt := f.types[id]
	if rt == nil || rt.TenantID != tenantID {
		return nil, nil
	}
	return rt, nil
}

func (f *fakeRecordTypeRepo) GetBySlug(ctx context.Context, tenantID, slug string) (*models.RecordType, error) {
	return nil, nil
}

func (f *fakeRecordTypeRepo) List(ctx context.Context, tenantID string, page, pageSize int) ([]models.RecordType, int, error) {
	return nil, 0, nil
}

func (f *fakeRecordTypeRepo) Update(ctx context.Context, tenantID, id string, req models.UpdateRecordTypeRequest) (*models.RecordType, error) {
	return nil, nil
}

func (f *fakeRecordTypeRepo) Delete(ctx context.Context, tenantID, id string) error {
	return nil
}

func (f *fakeRecordTypeRepo) CreateField(ctx context.Context, tenantID, recordTypeID string, req models.CreateFieldDefinitionRequest) (*models.FieldDefinition, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeRecordTypeRepo) DeleteField(ctx context.Context, tenantID, recordTypeID, fieldID string) error {
	return nil
}

type fakeRecordRepo struct {
	records         map[string]*models.Record
	order           []string
	nextID          int
	deleteFailures  int
	deleteAttempts  int
	deletedIDs      []string
	failNextUpdates bool
}

func newFakeRecordRepo() *fakeRecordRepo {
	return &fakeRecordRepo{records: map[string]*models.Record{}}
}

func (f *fakeRecordRepo) Insert(ctx context.Context, tenantID, recordTypeID string, fieldValues map[string]any) (*models.Record, error) {
	f.nextID++
	raw, err := json.Marshal(fieldValues)
	if err != nil {
		return nil, err
	}
	rec := &models.Record{
		ID:           fmt.Sprintf("record-%d", f.nextID),
		TenantID:     tenantID,
		RecordTypeID: recordTypeID,
		FieldValues:  raw,
	}
	f.records[rec.ID] = rec
	f.order = append(f.order, rec.ID)
	return rec, nil
}

func (f *fakeRecordRepo) GetByID(ctx context.Context, tenantID, id string) (*models.Record, error) {
	rec := f.records[id]
	if rec == nil || rec.TenantID != tenantID {
		return nil, nil
	}
	return rec, nil
}

func (f *fakeRecordRepo) List(ctx context.Context, tenantID, recordTypeID string, sort record.CreatedSort, offset, limit int) ([]models.Record, error) {
	var out []models.Record
	ids := f.order
	if sort == record.CreatedDesc {
		ids = make([]string, len(f.order))
		for i, id := range f.order {
			ids[len(f.order)-1-i] = id
		}
	}
	for _, id := range ids {
		rec := f.records[id]
		if rec == nil || rec.TenantID != tenantID || rec.RecordTypeID != recordTypeID {
			continue
		}
		out = append(out, *rec)
	}
	if offset >= len(out) {
		return []models.Record{}, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], nil
}

func (f *fakeRecordRepo) UpdateFieldValues(ctx context.Context, tenantID, id string, fieldValues map[string]any) (*models.Record, error) {
	if f.failNextUpdates {
		return nil, errors.New("update failed")
	}
	rec := f.records[id]
	if rec == nil || rec.TenantID != tenantID {
		return nil, nil
	}
	raw, err := json.Marshal(fieldValues)
	if err != nil {
		return nil, err
	}
	updated := *rec
	updated.FieldValues = raw
	f.records[id] = &updated
	return &updated, nil
}

func (f *fakeRecordRepo) HardDelete(ctx context.Context, tenantID, id string) error {
	f.deleteAttempts++
	if f.deleteFailures > 0 {
		f.deleteFailures--
		return errors.New("delete failed")
	}
	delete(f.records, id)
	f.deletedIDs = append(f.deletedIDs, id)
	for i, ordered := range f.order {
		if ordered == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

type fakeOccasionRepo struct {
	byRecord   map[string][]models.Occasion
	nextID     int
	failInsert bool
}

func newFakeOccasionRepo() *fakeOccasionRepo {
	return &fakeOccasionRepo{byRecord: map[string][]models.Occasion{}}
}

func (f *fakeOccasionRepo) InsertBatch(ctx context.Context, recordID string, inputs []models.OccasionInput) ([]models.Occasion, error) {
	if f.failInsert {
		return nil, errors.New("occasion insert failed")
	}
	out := make([]models.Occasion, 0, len(inputs))
	for _, in := range inputs {
		f.nextID++
		out = append(out, models.Occasion{
			ID:         fmt.Sprintf("occasion-%d", f.nextID),
			RecordID:   recordID,
			Label:      in.Label,
			Date:       in.Date,
			Time:       in.Time,
			LocationID: in.LocationID,
			IsPrimary:  in.IsPrimary,
		})
	}
	f.byRecord[recordID] = append(f.byRecord[recordID], out...)
	return out, nil
}

func (f *fakeOccasionRepo) ReplaceForRecord(ctx context.Context, recordID string, inputs []models.OccasionInput) ([]models.Occasion, error) {
	f.byRecord[recordID] = nil
	return f.InsertBatch(ctx, recordID, inputs)
}

func (f *fakeOccasionRepo) GetByRecordID(ctx context.Context, recordID string) ([]models.Occasion, error) {
	return f.byRecord[recordID], nil
}

func (f *fakeOccasionRepo) GetPrimaryByRecordIDs(ctx context.Context, recordIDs []string) (map[string]models.Occasion, error) {
	out := map[string]models.Occasion{}
	for _, id := range recordIDs {
		for _, occ := range f.byRecord[id] {
			if occ.IsPrimary {
				out[id] = occ
				break
			}
		}
	}
	return out, nil
}

func (f *fakeOccasionRepo) ListInRange(ctx context.Context, tenantID, dateFrom, dateTo string) ([]models.CalendarOccasion, error) {
	var out []models.CalendarOccasion
	for _, occs := range f.byRecord {
		for _, occ := range occs {
			if occ.Date == "" || occ.Date < dateFrom || occ.Date > dateTo {
				continue
			}
			out = append(out, models.CalendarOccasion{Occasion: occ, TenantID: tenantID})
		}
	}
	return out, nil
}

func (f *fakeOccasionRepo) DeleteByRecordID(ctx context.Context, recordID string) error {
	delete(f.byRecord, recordID)
	return nil
}

type fakeAuditRepo struct {
	entries []models.AuditLog
}

func (f *fakeAuditRepo) Insert(ctx context.Context, entry *models.AuditLog) (*models.AuditLog, error) {
	f.entries = append(f.entries, *entry)
	return entry, nil
}

func (f *fakeAuditRepo) ListByRecord(ctx context.Context, tenantID, recordID string, offset, limit int) ([]models.AuditLog, error) {
	var out []models.AuditLog
	for i := len(f.entries) - 1; i >= 0; i-- {
		entry := f.entries[i]
		if entry.TenantID == tenantID && entry.RecordID == recordID {
			out = append(out, entry)
		}
	}
	return out, nil
}

type fakePersonRepo struct {
	people map[string]*models.Person
}

func (f *fakePersonRepo) GetByID(ctx context.Context, tenantID, id string) (*models.Person, error) {
	p := f.people[id]
	if p == nil || p.DeletedAt != nil {
		return nil, nil
	}
	return p, nil
}

func (f *fakePersonRepo) GetByIDs(ctx context.Context, tenantID string, ids []string) (map[string]models.Person, error) {
	out := map[string]models.Person{}
	for _, id := range ids {
		if p := f.people[id]; p != nil && p.DeletedAt == nil {
			out[id] = *p
		}
	}
	return out, nil
}

type fakeGroupRepo struct{}

func (f *fakeGroupRepo) GetByID(ctx context.Context, tenantID, id string) (*models.Group, error) {
	return nil, nil
}

type fakeLocationRepo struct{}

func (f *fakeLocationRepo) GetByID(ctx context.Context, tenantID, id string) (*models.Location, error) {
	return nil, nil
}

type fakeDocumentRepo struct{}

func (f *fakeDocumentRepo) GetByID(ctx context.Context, tenantID, id string) (*models.Document, error) {
	return nil, nil
}

type fakeListItemRepo struct{}

func (f *fakeListItemRepo) GetByID(ctx context.Context, tenantID, id string) (*models.ListItem, error) {
	return nil, nil
}

func (f *fakeListItemRepo) GetByListID(ctx context.Context, tenantID, listID string) ([]models.ListItem, error) {
	return nil, nil
}

type fakeTx struct {
	committed  bool
	rolledBack bool
}

func (f *fakeTx) IsOpen() bool                     { return !f.committed && !f.rolledBack }
func (f *fakeTx) Commit(ctx context.Context) error { f.committed = true; return nil }
func (f *fakeTx) Rollback(ctx context.Context) error {
	f.rolledBack = true
	return nil
}

func (f *fakeTx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return nil, nil
}

func (f *fakeTx) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	return nil
}

func (f *fakeTx) SelectContext(ctx context.Context, dest any, query string, args ...any) error {
	return nil
}

type fakeTxBeginner struct {
	tx *fakeTx
}

func (f *fakeTxBeginner) GetTx(ctx context.Context, opts *sql.TxOptions) (context.Context, database.Tx, error) {
	f.tx = &fakeTx{}
	return ctx, f.tx, nil
}

// ---- fixture ----

type fixture struct {
	service   *Service
	types     *fakeRecordTypeRepo
	records   *fakeRecordRepo
	occasions *fakeOccasionRepo
	audits    *fakeAuditRepo
	people    *fakePersonRepo
}

func weddingType() *models.RecordType {
	return &models.RecordType{
		ID:       "type-wedding",
		TenantID: testTenant,
		Name:     "Wedding",
		Fields: []models.FieldDefinition{
			{Name: "title", Kind: fields.KindText, Required: true},
			{Name: "attendees", Kind: fields.KindNumber},
			{Name: "rehearsal_needed", Kind: fields.KindYesNo, Required: true},
			{Name: "bride", Kind: fields.KindPerson, IsKeyPerson: true},
			{Name: "groom", Kind: fields.KindPerson, IsKeyPerson: true},
		},
	}
}

func newFixture(tx TxBeginner) *fixture {
	logger := testLogger()

	types := &fakeRecordTypeRepo{types: map[string]*models.RecordType{}}
	types.types["type-wedding"] = weddingType()

	recs := newFakeRecordRepo()
	occs := newFakeOccasionRepo()
	audits := &fakeAuditRepo{}
	people := &fakePersonRepo{people: map[string]*models.Person{
		"person-bride": {ID: "person-bride", TenantID: testTenant, FullName: "Ada Smith"},
		"person-groom": {ID: "person-groom", TenantID: testTenant, FullName: "Ben Jones"},
	}}

	res := resolver.NewResolver(people, &fakeGroupRepo{}, &fakeLocationRepo{}, &fakeDocumentRepo{}, &fakeListItemRepo{}, recs, logger)
	emitter := events.NewEmitter(nil, logger)

	service := NewService(types, recs, occs, audits, people, res, emitter, tx, logger)

	return &fixture{
		service:   service,
		types:     types,
		records:   recs,
		occasions: occs,
		audits:    audits,
		people:    people,
	}
}

func weddingRequest() models.CreateRecordRequest {
	return models.CreateRecordRequest{
		FieldValues: map[string]any{
			"title":            "Smith-Jones Wedding",
			"rehearsal_needed": true,
			"bride":            "person-bride",
			"groom":            "person-groom",
		},
		Occasions: []models.OccasionInput{
			{Label: "Rehearsal", Date: "2026-06-11", Time: "17:00:00"},
			{Label: "Ceremony", Date: "2026-06-12", Time: "14:00:00", IsPrimary: true},
		},
	}
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	require.Error(t, err)
	require.True(t, httperror.IsHTTPError(err))
	return httperror.GetStatusCode(err)
}

// ---- tests ----

func TestCreate_WeddingScenario(t *testing.T) {
	f := newFixture(nil)

	result, err := f.service.Create(context.Background(), testTenant, "type-wedding", weddingRequest())
	require.NoError(t, err)

	assert.Equal(t, "type-wedding", result.Record.RecordTypeID)
	require.Len(t, result.Occasions, 2)

	bride := result.ResolvedFields["bride"]
	person, ok := bride.ResolvedValue.(*models.Person)
	require.True(t, ok)
	assert.Equal(t, "Ada Smith", person.FullName)

	// Audit trail records the insert.
	require.Len(t, f.audits.entries, 1)
	assert.Equal(t, models.AuditOperationInsert, f.audits.entries[0].Operation)
}

func TestCreate_UnknownRecordType(t *testing.T) {
	f := newFixture(nil)

	_, err := f.service.Create(context.Background(), testTenant, "type-missing", weddingRequest())
	assert.Equal(t, 404, statusOf(t, err))
}

func TestCreate_ValidationFailure(t *testing.T) {
	f := newFixture(nil)

	req := weddingRequest()
	delete(req.FieldValues, "title")

	_, err := f.service.Create(context.Background(), testTenant, "type-wedding", req)
	assert.Equal(t, 400, statusOf(t, err))
	assert.Empty(t, f.records.records, "nothing should be written on validation failure")
}

func TestCreate_OccasionInvariants(t *testing.T) {
	f := newFixture(nil)

	t.Run("empty batch", func(t *testing.T) {
		req := weddingRequest()
		req.Occasions = nil
		_, err := f.service.Create(context.Background(), testTenant, "type-wedding", req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrNoOccasions)
	})

	t.Run("no primary", func(t *testing.T) {
		req := weddingRequest()
		req.Occasions[1].IsPrimary = false
		_, err := f.service.Create(context.Background(), testTenant, "type-wedding", req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrNotOnePrimary)
	})

	t.Run("two primaries", func(t *testing.T) {
		req := weddingRequest()
		req.Occasions[0].IsPrimary = true
		_, err := f.service.Create(context.Background(), testTenant, "type-wedding", req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrNotOnePrimary)
	})
}

func TestCreate_CompensatesFailedOccasionInsert(t *testing.T) {
	f := newFixture(nil)
	f.occasions.failInsert = true
	f.records.deleteFailures = 2 // first two compensation attempts fail

	_, err := f.service.Create(context.Background(), testTenant, "type-wedding", weddingRequest())
	require.Error(t, err)

	// The compensating delete retried until it succeeded; no orphan remains.
	assert.Empty(t, f.records.records)
	assert.Equal(t, 3, f.records.deleteAttempts)
	assert.Empty(t, f.audits.entries, "failed creates are not audited")
}

func TestCreate_UsesTransactionWhenAvailable(t *testing.T) {
	tx := &fakeTxBeginner{}
	f := newFixture(tx)

	_, err := f.service.Create(context.Background(), testTenant, "type-wedding", weddingRequest())
	require.NoError(t, err)
	require.NotNil(t, tx.tx)
	assert.True(t, tx.tx.committed)
}

func TestCreate_RollsBackOnOccasionFailure(t *testing.T) {
	tx := &fakeTxBeginner{}
	f := newFixture(tx)
	f.occasions.failInsert = true

	_, err := f.service.Create(context.Background(), testTenant, "type-wedding", weddingRequest())
	require.Error(t, err)
	require.NotNil(t, tx.tx)
	assert.True(t, tx.tx.rolledBack)
	assert.Zero(t, f.records.deleteAttempts, "transactional path needs no compensation")
}

func TestUpdate_ReplacesWholesale(t *testing.T) {
	f := newFixture(nil)
	created, err := f.service.Create(context.Background(), testTenant, "type-wedding", weddingRequest())
	require.NoError(t, err)

	// The replacement omits required title entirely; updates do not
	// re-check required fields.
	result, err := f.service.Update(context.Background(), testTenant, created.Record.ID, models.UpdateRecordRequest{
		FieldValues: map[string]any{"attendees": float64(80)},
	})
	require.NoError(t, err)

	raw, err := result.Record.RawFieldValues()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"attendees": float64(80)}, raw)

	// INSERT then UPDATE in the audit trail.
	require.Len(t, f.audits.entries, 2)
	assert.Equal(t, models.AuditOperationUpdate, f.audits.entries[1].Operation)
}

func TestUpdate_RejectsUnknownKeys(t *testing.T) {
	f := newFixture(nil)
	created, err := f.service.Create(context.Background(), testTenant, "type-wedding", weddingRequest())
	require.NoError(t, err)

	_, err = f.service.Update(context.Background(), testTenant, created.Record.ID, models.UpdateRecordRequest{
		FieldValues: map[string]any{"cake_flavor": "lemon"},
	})
	assert.Equal(t, 400, statusOf(t, err))
}

func TestUpdate_NoOpSkipsAuditAndEvents(t *testing.T) {
	f := newFixture(nil)
	created, err := f.service.Create(context.Background(), testTenant, "type-wedding", weddingRequest())
	require.NoError(t, err)
	auditCount := len(f.audits.entries)

	req := weddingRequest()
	_, err = f.service.Update(context.Background(), testTenant, created.Record.ID, models.UpdateRecordRequest{
		FieldValues: req.FieldValues,
	})
	require.NoError(t, err)
	assert.Len(t, f.audits.entries, auditCount, "identical write should not audit")
}

func TestUpdate_LastWriteWins(t *testing.T) {
	f := newFixture(nil)
	created, err := f.service.Create(context.Background(), testTenant, "type-wedding", weddingRequest())
	require.NoError(t, err)

	base := weddingRequest().FieldValues

	first := cloneValues(base)
	first["attendees"] = float64(100)
	_, err = f.service.Update(context.Background(), testTenant, created.Record.ID, models.UpdateRecordRequest{FieldValues: first})
	require.NoError(t, err)

	second := cloneValues(base)
	second["attendees"] = float64(150)
	result, err := f.service.Update(context.Background(), testTenant, created.Record.ID, models.UpdateRecordRequest{FieldValues: second})
	require.NoError(t, err)

	raw, err := result.Record.RawFieldValues()
	require.NoError(t, err)
	assert.Equal(t, float64(150), raw["attendees"])
}

func TestReplaceOccasions(t *testing.T) {
	f := newFixture(nil)
	created, err := f.service.Create(context.Background(), testTenant, "type-wedding", weddingRequest())
	require.NoError(t, err)

	t.Run("invariants still hold", func(t *testing.T) {
		_, err := f.service.ReplaceOccasions(context.Background(), testTenant, created.Record.ID, models.ReplaceOccasionsRequest{
			Occasions: []models.OccasionInput{{Label: "Ceremony", Date: "2026-07-01"}},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrNotOnePrimary)
	})

	t.Run("replaces the batch", func(t *testing.T) {
		occs, err := f.service.ReplaceOccasions(context.Background(), testTenant, created.Record.ID, models.ReplaceOccasionsRequest{
			Occasions: []models.OccasionInput{{Label: "Ceremony", Date: "2026-07-01", IsPrimary: true}},
		})
		require.NoError(t, err)
		require.Len(t, occs, 1)
		assert.Equal(t, "2026-07-01", occs[0].Date)
	})
}

func TestDelete(t *testing.T) {
	f := newFixture(nil)
	created, err := f.service.Create(context.Background(), testTenant, "type-wedding", weddingRequest())
	require.NoError(t, err)

	require.NoError(t, f.service.Delete(context.Background(), testTenant, created.Record.ID))

	got, err := f.service.Get(context.Background(), testTenant, created.Record.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	last := f.audits.entries[len(f.audits.entries)-1]
	assert.Equal(t, models.AuditOperationDelete, last.Operation)

	t.Run("missing record is 404", func(t *testing.T) {
		err := f.service.Delete(context.Background(), testTenant, created.Record.ID)
		assert.Equal(t, 404, statusOf(t, err))
	})
}

func TestList_DateFilterAndSort(t *testing.T) {
	f := newFixture(nil)

	createWedding := func(t *testing.T, title, date string) string {
		t.Helper()
		req := weddingRequest()
		req.FieldValues["title"] = title
		if date == "" {
			req.Occasions = []models.OccasionInput{{Label: "TBD", IsPrimary: true}}
		} else {
			req.Occasions = []models.OccasionInput{{Label: "Ceremony", Date: date, IsPrimary: true}}
		}
		created, err := f.service.Create(context.Background(), testTenant, "type-wedding", req)
		require.NoError(t, err)
		return created.Record.ID
	}

	june := createWedding(t, "June Wedding", "2026-06-12")
	may := createWedding(t, "May Wedding", "2026-05-01")
	unscheduled := createWedding(t, "Unscheduled Wedding", "")

	t.Run("inclusive date range", func(t *testing.T) {
		result, err := f.service.List(context.Background(), testTenant, ListQuery{
			RecordTypeID: "type-wedding",
			DateFrom:     "2026-05-01",
			DateTo:       "2026-06-12",
		})
		require.NoError(t, err)
		require.Len(t, result.Items, 2)
	})

	t.Run("lower bound excludes unscheduled", func(t *testing.T) {
		result, err := f.service.List(context.Background(), testTenant, ListQuery{
			RecordTypeID: "type-wedding",
			DateFrom:     "2026-01-01",
		})
		require.NoError(t, err)
		require.Len(t, result.Items, 2)
		for _, item := range result.Items {
			assert.NotEqual(t, unscheduled, item.Record.ID)
		}
	})

	t.Run("upper bound alone excludes unscheduled", func(t *testing.T) {
		result, err := f.service.List(context.Background(), testTenant, ListQuery{
			RecordTypeID: "type-wedding",
			DateTo:       "2026-12-31",
		})
		require.NoError(t, err)
		require.Len(t, result.Items, 2)
		for _, item := range result.Items {
			assert.NotEqual(t, unscheduled, item.Record.ID)
		}
	})

	t.Run("date ascending puts unscheduled first", func(t *testing.T) {
		result, err := f.service.List(context.Background(), testTenant, ListQuery{
			RecordTypeID: "type-wedding",
			Sort:         SortDateAsc,
		})
		require.NoError(t, err)
		require.Len(t, result.Items, 3)
		assert.Equal(t, unscheduled, result.Items[0].Record.ID)
		assert.Equal(t, may, result.Items[1].Record.ID)
		assert.Equal(t, june, result.Items[2].Record.ID)
	})

	t.Run("equal dates break ties on record id ascending", func(t *testing.T) {
		sameDay := createWedding(t, "Same Day Wedding", "2026-06-12")

		result, err := f.service.List(context.Background(), testTenant, ListQuery{
			RecordTypeID: "type-wedding",
			Sort:         SortDateAsc,
		})
		require.NoError(t, err)
		require.Len(t, result.Items, 4)
		// june was created before sameDay, so its id orders first.
		assert.Equal(t, june, result.Items[2].Record.ID)
		assert.Equal(t, sameDay, result.Items[3].Record.ID)

		require.NoError(t, f.service.Delete(context.Background(), testTenant, sameDay))
	})

	t.Run("date descending puts unscheduled last", func(t *testing.T) {
		result, err := f.service.List(context.Background(), testTenant, ListQuery{
			RecordTypeID: "type-wedding",
			Sort:         SortDateDesc,
		})
		require.NoError(t, err)
		require.Len(t, result.Items, 3)
		assert.Equal(t, june, result.Items[0].Record.ID)
		assert.Equal(t, unscheduled, result.Items[2].Record.ID)
	})
}

func TestList_KeyPersonSearch(t *testing.T) {
	f := newFixture(nil)

	_, err := f.service.Create(context.Background(), testTenant, "type-wedding", weddingRequest())
	require.NoError(t, err)

	other := weddingRequest()
	other.FieldValues["title"] = "Other Wedding"
	other.FieldValues["bride"] = nil
	other.FieldValues["groom"] = nil
	_, err = f.service.Create(context.Background(), testTenant, "type-wedding", other)
	require.NoError(t, err)

	t.Run("matches by referenced person name", func(t *testing.T) {
		result, err := f.service.List(context.Background(), testTenant, ListQuery{
			RecordTypeID: "type-wedding",
			Search:       "ada",
		})
		require.NoError(t, err)
		require.Len(t, result.Items, 1)
	})

	t.Run("no match yields empty page", func(t *testing.T) {
		result, err := f.service.List(context.Background(), testTenant, ListQuery{
			RecordTypeID: "type-wedding",
			Search:       "zelda",
		})
		require.NoError(t, err)
		assert.Empty(t, result.Items)
	})
}

func TestCalendar(t *testing.T) {
	f := newFixture(nil)
	_, err := f.service.Create(context.Background(), testTenant, "type-wedding", weddingRequest())
	require.NoError(t, err)

	t.Run("requires both bounds", func(t *testing.T) {
		_, err := f.service.Calendar(context.Background(), testTenant, "2026-06-01", "")
		assert.Equal(t, 400, statusOf(t, err))
	})

	t.Run("rejects inverted range", func(t *testing.T) {
		_, err := f.service.Calendar(context.Background(), testTenant, "2026-07-01", "2026-06-01")
		assert.Equal(t, 400, statusOf(t, err))
	})

	t.Run("returns occasions in range", func(t *testing.T) {
		result, err := f.service.Calendar(context.Background(), testTenant, "2026-06-01", "2026-06-30")
		require.NoError(t, err)
		assert.Len(t, result.Items, 2) // rehearsal and ceremony
	})
}

func TestHistory(t *testing.T) {
	f := newFixture(nil)
	created, err := f.service.Create(context.Background(), testTenant, "type-wedding", weddingRequest())
	require.NoError(t, err)

	values := cloneValues(weddingRequest().FieldValues)
	values["attendees"] = float64(90)
	_, err = f.service.Update(context.Background(), testTenant, created.Record.ID, models.UpdateRecordRequest{FieldValues: values})
	require.NoError(t, err)

	history, err := f.service.History(context.Background(), testTenant, created.Record.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, history.Items, 2)
	assert.Equal(t, models.AuditOperationUpdate, history.Items[0].Operation)
	assert.Equal(t, models.AuditOperationInsert, history.Items[1].Operation)
}

func cloneValues(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
