package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/laurel/internal/repositories/record"
	"github.com/Ramsey-B/laurel/pkg/fields"
	"github.com/Ramsey-B/laurel/pkg/models"
)

type fakePersonRepo struct {
	people map[string]*models.Person
	err    error
}

func (f *fakePersonRepo) GetByID(ctx context.Context, tenantID, id string) (*models.Person, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.people[id], nil
}

func (f *fakePersonRepo) GetByIDs(ctx context.Context, tenantID string, ids []string) (map[string]models.Person, error) {
	out := map[string]models.Person{}
	for _, id := range ids {
		if p := f.people[id]; p != nil {
			out[id] = *p
		}
	}
	return out, nil
}

type fakeGroupRepo struct {
	groups map[string]*models.Group
}

func (f *fakeGroupRepo) GetByID(ctx context.Context, tenantID, id string) (*models.Group, error) {
	return f.groups[id], nil
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

type fakeRecordRepoForResolver struct{}

func (f *fakeRecordRepoForResolver) Insert(ctx context.Context, tenantID, recordTypeID string, fieldValues map[string]any) (*models.Record, error) {
	return nil, nil
}

func (f *fakeRecordRepoForResolver) GetByID(ctx context.Context, tenantID, id string) (*models.Record, error) {
	return nil, nil
}

func (f *fakeRecordRepoForResolver) List(ctx context.Context, tenantID, recordTypeID string, sort record.CreatedSort, offset, limit int) ([]models.Record, error) {
	return nil, nil
}

func (f *fakeRecordRepoForResolver) UpdateFieldValues(ctx context.Context, tenantID, id string, fieldValues map[string]any) (*models.Record, error) {
	return nil, nil
}

func (f *fakeRecordRepoForResolver) HardDelete(ctx context.Context, tenantID, id string) error {
	return nil
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func newTestResolver(people *fakePersonRepo, groups *fakeGroupRepo) *Resolver {
	if people == nil {
		people = &fakePersonRepo{people: map[string]*models.Person{}}
	}
	if groups == nil {
		groups = &fakeGroupRepo{groups: map[string]*models.Group{}}
	}
	return NewResolver(people, groups, &fakeLocationRepo{}, &fakeDocumentRepo{}, &fakeListItemRepo{}, &fakeRecordRepoForResolver{}, testLogger())
}

func TestResolveFields_References(t *testing.T) {
	people := &fakePersonRepo{people: map[string]*models.Person{
		"person-1": {ID: "person-1", FullName: "Ada Smith"},
	}}
	r := newTestResolver(people, nil)

	values := map[string]fields.Value{
		"celebrant": {Name: "celebrant", Kind: fields.KindPerson, Raw: "person-1"},
		"title":     {Name: "title", Kind: fields.KindText, Raw: "Smith Wedding"},
	}

	resolved := r.ResolveFields(context.Background(), "tenant-1", values)
	require.Len(t, resolved, 2)

	celebrant := resolved["celebrant"]
	require.NotNil(t, celebrant.ResolvedValue)
	person, ok := celebrant.ResolvedValue.(*models.Person)
	require.True(t, ok)
	assert.Equal(t, "Ada Smith", person.FullName)

	title := resolved["title"]
	assert.Equal(t, "Smith Wedding", title.RawValue)
	assert.Nil(t, title.ResolvedValue)
}

func TestResolveFields_MissingTarget(t *testing.T) {
	r := newTestResolver(nil, nil)

	values := map[string]fields.Value{
		"celebrant": {Name: "celebrant", Kind: fields.KindPerson, Raw: "gone"},
	}

	resolved := r.ResolveFields(context.Background(), "tenant-1", values)
	entry := resolved["celebrant"]
	assert.Equal(t, "gone", entry.RawValue)
	assert.Nil(t, entry.ResolvedValue)
}

func TestResolveFields_FaultIsolation(t *testing.T) {
	people := &fakePersonRepo{err: errors.New("store offline")}
	groups := &fakeGroupRepo{groups: map[string]*models.Group{
		"group-1": {ID: "group-1", Name: "Choir"},
	}}
	r := newTestResolver(people, groups)

	values := map[string]fields.Value{
		"celebrant": {Name: "celebrant", Kind: fields.KindPerson, Raw: "person-1"},
		"ministry":  {Name: "ministry", Kind: fields.KindGroup, Raw: "group-1"},
	}

	resolved := r.ResolveFields(context.Background(), "tenant-1", values)

	// The failing person lookup resolves to nil but keeps its raw value.
	assert.Nil(t, resolved["celebrant"].ResolvedValue)
	assert.Equal(t, "person-1", resolved["celebrant"].RawValue)

	// The group next to it still resolves.
	group, ok := resolved["ministry"].ResolvedValue.(*models.Group)
	require.True(t, ok)
	assert.Equal(t, "Choir", group.Name)
}

func TestResolveFields_AbsentReference(t *testing.T) {
	r := newTestResolver(nil, nil)

	values := map[string]fields.Value{
		"celebrant": {Name: "celebrant", Kind: fields.KindPerson, Raw: nil},
	}

	resolved := r.ResolveFields(context.Background(), "tenant-1", values)
	assert.Nil(t, resolved["celebrant"].ResolvedValue)
}

func TestResolveFields_Idempotent(t *testing.T) {
	people := &fakePersonRepo{people: map[string]*models.Person{
		"person-1": {ID: "person-1", FullName: "Ada Smith"},
	}}
	r := newTestResolver(people, nil)

	values := map[string]fields.Value{
		"celebrant": {Name: "celebrant", Kind: fields.KindPerson, Raw: "person-1"},
	}

	first := r.ResolveFields(context.Background(), "tenant-1", values)
	second := r.ResolveFields(context.Background(), "tenant-1", values)
	assert.Equal(t, first["celebrant"].RawValue, second["celebrant"].RawValue)
	assert.Equal(t, first["celebrant"].ResolvedValue, second["celebrant"].ResolvedValue)
}
