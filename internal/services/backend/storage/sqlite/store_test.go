package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/louisbranch/boardkit/internal/listview/filter"
	"github.com/louisbranch/boardkit/internal/listview/projection"
	"github.com/louisbranch/boardkit/internal/listview/record"
	"github.com/louisbranch/boardkit/internal/services/backend/storage"
)

var leads = storage.Scope{OwnerID: "user-1", Resource: "leads"}

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "backend.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func mustCreate(t *testing.T, store *Store, scope storage.Scope, doc record.Document) record.Document {
	t.Helper()
	created, err := store.Create(context.Background(), scope, doc, time.Date(2026, time.October, 1, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return created
}

func names(docs []record.Document) []string {
	out := []string{}
	for _, d := range docs {
		out = append(out, d.String("name"))
	}
	return out
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "backend.db")
	first, err := Open(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	_ = first.Close()
	second, err := Open(path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	_ = second.Close()
}

func TestCreateAssignsIDAndTimestamps(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	created := mustCreate(t, store, leads, record.Document{"name": "Ann", "id": "client-chosen"})
	if created.RecordID() == "" || created.RecordID() == "client-chosen" {
		t.Fatalf("id = %q, want a server-assigned id", created.RecordID())
	}
	if created.String("created_at") != "2026-10-01T09:00:00Z" {
		t.Fatalf("created_at = %q", created.String("created_at"))
	}

	got, err := store.Get(context.Background(), leads, created.RecordID())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.String("name") != "Ann" {
		t.Fatalf("name = %q, want Ann", got.String("name"))
	}
}

func TestListOrderAndScope(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	mustCreate(t, store, leads, record.Document{"name": "Ann"})
	mustCreate(t, store, leads, record.Document{"name": "Bob"})
	mustCreate(t, store, leads, record.Document{"name": "Cat"})
	mustCreate(t, store, storage.Scope{OwnerID: "user-2", Resource: "leads"}, record.Document{"name": "Other"})
	mustCreate(t, store, storage.Scope{OwnerID: "user-1", Resource: "customers"}, record.Document{"name": "Cust"})

	got, err := store.List(context.Background(), leads, storage.ListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if want := []string{"Ann", "Bob", "Cat"}; !slices.Equal(names(got), want) {
		t.Fatalf("names = %v, want %v", names(got), want)
	}

	newest, err := store.List(context.Background(), leads, storage.ListOptions{NewestFirst: true, Limit: 2})
	if err != nil {
		t.Fatalf("list newest: %v", err)
	}
	if want := []string{"Cat", "Bob"}; !slices.Equal(names(newest), want) {
		t.Fatalf("names = %v, want %v", names(newest), want)
	}
}

func TestListWithCondition(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	mustCreate(t, store, leads, record.Document{"name": "Ann", "status": "new", "score": 10})
	mustCreate(t, store, leads, record.Document{"name": "Andy", "status": "lost", "score": 30})
	mustCreate(t, store, leads, record.Document{"name": "Bob", "status": "new", "score": 50})

	fields := []string{"name", "status", "score"}
	got, err := store.List(context.Background(), leads, storage.ListOptions{
		Fields: fields,
		Filter: filter.And(filter.Contains("an", "name"), filter.Equals("status", "new")),
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if want := []string{"Ann"}; !slices.Equal(names(got), want) {
		t.Fatalf("names = %v, want %v", names(got), want)
	}

	got, err = store.List(context.Background(), leads, storage.ListOptions{
		Fields: fields,
		Filter: filter.Compare(filter.OpGreaterEqual, "score", int64(30)),
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if want := []string{"Andy", "Bob"}; !slices.Equal(names(got), want) {
		t.Fatalf("names = %v, want %v", names(got), want)
	}

	if _, err := store.List(context.Background(), leads, storage.ListOptions{
		Fields: fields,
		Filter: filter.Equals("color", "red"),
	}); err == nil {
		t.Fatal("expected unknown field error")
	}
}

func TestListFilterAgreesWithProjection(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	mustCreate(t, store, leads, record.Document{"name": "Émile", "status": "new"})
	mustCreate(t, store, leads, record.Document{"name": "Bob", "company": "Acme", "status": "lost"})
	mustCreate(t, store, leads, record.Document{"name": "Cat", "company": "Initech", "score": 40})

	schema, err := filter.DocumentSchema(map[string]filter.FieldType{
		"name":    filter.TypeString,
		"company": filter.TypeString,
		"status":  filter.TypeString,
		"score":   filter.TypeInt,
	})
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	all, err := store.List(context.Background(), leads, storage.ListOptions{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}

	tests := []struct {
		expression string
		want       []string
	}{
		{expression: `company != "Acme"`, want: []string{"Émile", "Cat"}},
		{expression: `NOT company = "Acme"`, want: []string{"Émile", "Cat"}},
		{expression: `NOT (company = "Acme" OR score > 10)`, want: []string{"Émile"}},
		{expression: `NOT status = "new" AND score < 100`, want: []string{"Cat"}},
		{expression: `name:"mil"`, want: []string{"Émile"}},
	}
	for _, tt := range tests {
		t.Run(tt.expression, func(t *testing.T) {
			t.Parallel()
			c, err := filter.Parse(tt.expression, schema)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			set, err := filter.NewSet(schema, c)
			if err != nil {
				t.Fatalf("set: %v", err)
			}
			client := names(projection.Project(all, set))
			server, err := store.List(context.Background(), leads, storage.ListOptions{
				Fields: schema.Names(),
				Filter: set.Combined(),
			})
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if !slices.Equal(client, tt.want) {
				t.Fatalf("client = %v, want %v", client, tt.want)
			}
			if !slices.Equal(names(server), client) {
				t.Fatalf("server = %v, client = %v", names(server), client)
			}
		})
	}
}

func TestUpdateMergesPatch(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	created := mustCreate(t, store, leads, record.Document{"name": "Ann", "status": "new", "source": "ads"})
	later := time.Date(2026, time.October, 2, 9, 0, 0, 0, time.UTC)

	updated, err := store.Update(context.Background(), leads, created.RecordID(), map[string]any{
		"status":     "qualified",
		"source":     nil,
		"id":         "hijack",
		"created_at": "1999-01-01T00:00:00Z",
	}, later)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.RecordID() != created.RecordID() {
		t.Fatalf("id changed to %q", updated.RecordID())
	}
	if updated.String("status") != "qualified" {
		t.Fatalf("status = %q", updated.String("status"))
	}
	if _, ok := updated["source"]; ok {
		t.Fatal("source should have been removed")
	}
	if updated.String("created_at") != created.String("created_at") {
		t.Fatalf("created_at changed to %q", updated.String("created_at"))
	}
	if updated.String("updated_at") != "2026-10-02T09:00:00Z" {
		t.Fatalf("updated_at = %q", updated.String("updated_at"))
	}
}

func TestMissingRecords(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	created := mustCreate(t, store, leads, record.Document{"name": "Ann"})
	otherOwner := storage.Scope{OwnerID: "user-2", Resource: "leads"}

	if _, err := store.Get(context.Background(), otherOwner, created.RecordID()); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get other owner error = %v", err)
	}
	if _, err := store.Update(context.Background(), leads, "missing", map[string]any{"name": "x"}, time.Now()); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("update missing error = %v", err)
	}
	if err := store.Delete(context.Background(), leads, created.RecordID()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(context.Background(), leads, created.RecordID()); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("second delete error = %v", err)
	}
}

func TestScopeRequired(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if _, err := store.List(context.Background(), storage.Scope{Resource: "leads"}, storage.ListOptions{}); err == nil {
		t.Fatal("expected owner id error")
	}
}

func TestColumnRejectsUnsafeNames(t *testing.T) {
	t.Parallel()

	if got := Column("name"); got != "json_extract(doc, '$.name')" {
		t.Fatalf("Column(name) = %q", got)
	}
	if got := Column("x') OR 1=1 --"); got != "NULL" {
		t.Fatalf("Column(injection) = %q", got)
	}
}
