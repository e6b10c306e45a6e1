package record

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	apperrors "github.com/louisbranch/boardkit/internal/platform/errors"
)

type item struct {
	ID   string
	Name string
}

func (i item) RecordID() string { return i.ID }

func ids(records []item) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func staticSource(records ...item) Source[item] {
	return SourceFunc[item](func(context.Context) ([]item, error) { return records, nil })
}

func TestLoadReplacesCollection(t *testing.T) {
	t.Parallel()

	store := NewStore[item](Append)
	store.Upsert(item{ID: "old"})
	if err := store.Load(context.Background(), staticSource(item{ID: "a"}, item{ID: "b"})); err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, ids(store.Snapshot())); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
	if !store.Loaded() {
		t.Fatal("expected store to be loaded")
	}
}

func TestLoadFailureKeepsPreviousCollection(t *testing.T) {
	t.Parallel()

	store := NewStore[item](Append)
	if err := store.Load(context.Background(), staticSource(item{ID: "a"})); err != nil {
		t.Fatalf("load: %v", err)
	}
	failing := SourceFunc[item](func(context.Context) ([]item, error) {
		return nil, apperrors.E(apperrors.KindUnavailable, "backend offline")
	})

	err := store.Load(context.Background(), failing)
	if got := apperrors.KindOf(err); got != apperrors.KindLoadFailure {
		t.Fatalf("KindOf() = %q, want %q", got, apperrors.KindLoadFailure)
	}
	if got := apperrors.Message(err); got != "backend offline" {
		t.Fatalf("Message() = %q", got)
	}
	if diff := cmp.Diff([]string{"a"}, ids(store.Snapshot())); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadCollapsesDuplicateIDs(t *testing.T) {
	t.Parallel()

	store := NewStore[item](Append)
	err := store.Load(context.Background(), staticSource(
		item{ID: "a", Name: "first"}, item{ID: "b"}, item{ID: "a", Name: "second"},
	))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got, _ := store.Get("a")
	if got.Name != "first" {
		t.Fatalf("Get(a).Name = %q, want first", got.Name)
	}
	if store.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", store.Len())
	}
}

func TestLoadDiscardedWhenLocalChangeCommits(t *testing.T) {
	t.Parallel()

	store := NewStore[item](Append)
	started := make(chan struct{})
	release := make(chan struct{})
	slow := SourceFunc[item](func(context.Context) ([]item, error) {
		close(started)
		<-release
		return []item{{ID: "server"}}, nil
	})

	errCh := make(chan error, 1)
	go func() { errCh <- store.Load(context.Background(), slow) }()
	<-started
	store.Upsert(item{ID: "local"})
	close(release)

	if err := <-errCh; !errors.Is(err, ErrStaleLoad) {
		t.Fatalf("Load() error = %v, want ErrStaleLoad", err)
	}
	if diff := cmp.Diff([]string{"local"}, ids(store.Snapshot())); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadDiscardedWhenNewerLoadStarts(t *testing.T) {
	t.Parallel()

	store := NewStore[item](Append)
	started := make(chan struct{})
	release := make(chan struct{})
	slow := SourceFunc[item](func(context.Context) ([]item, error) {
		close(started)
		<-release
		return []item{{ID: "older"}}, nil
	})

	errCh := make(chan error, 1)
	go func() { errCh <- store.Load(context.Background(), slow) }()
	<-started
	if err := store.Load(context.Background(), staticSource(item{ID: "newer"})); err != nil {
		t.Fatalf("newer load: %v", err)
	}
	close(release)

	if err := <-errCh; !errors.Is(err, ErrStaleLoad) {
		t.Fatalf("older Load() error = %v, want ErrStaleLoad", err)
	}
	if diff := cmp.Diff([]string{"newer"}, ids(store.Snapshot())); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestUpsertPlacement(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		placement Placement
		want      []string
	}{
		{name: "append", placement: Append, want: []string{"a", "b", "c"}},
		{name: "prepend", placement: Prepend, want: []string{"c", "a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := NewStore[item](tt.placement)
			_ = store.Load(context.Background(), staticSource(item{ID: "a"}, item{ID: "b"}))
			if !store.Upsert(item{ID: "c"}) {
				t.Fatal("expected new record")
			}
			if diff := cmp.Diff(tt.want, ids(store.Snapshot())); diff != "" {
				t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUpsertReplacesInPlace(t *testing.T) {
	t.Parallel()

	store := NewStore[item](Prepend)
	_ = store.Load(context.Background(), staticSource(item{ID: "a"}, item{ID: "b"}, item{ID: "c"}))
	if store.Upsert(item{ID: "b", Name: "renamed"}) {
		t.Fatal("expected existing record")
	}
	want := []item{{ID: "a"}, {ID: "b", Name: "renamed"}, {ID: "c"}}
	if diff := cmp.Diff(want, store.Snapshot()); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestUpsertThenRemoveLeavesIDAbsent(t *testing.T) {
	t.Parallel()

	for _, prior := range [][]item{nil, {{ID: "x"}}, {{ID: "x"}, {ID: "y"}, {ID: "z"}}} {
		store := NewStore[item](Append)
		_ = store.Load(context.Background(), staticSource(prior...))
		store.Upsert(item{ID: "new"})
		if _, _, ok := store.Remove("new"); !ok {
			t.Fatal("expected remove to find record")
		}
		if _, ok := store.Get("new"); ok {
			t.Fatalf("expected new to be absent with %d prior records", len(prior))
		}
		if store.Len() != len(prior) {
			t.Fatalf("Len() = %d, want %d", store.Len(), len(prior))
		}
	}
}

func TestRemoveMissingIsNoop(t *testing.T) {
	t.Parallel()

	store := NewStore[item](Append)
	store.Upsert(item{ID: "a"})
	if _, index, ok := store.Remove("missing"); ok || index != -1 {
		t.Fatalf("Remove(missing) = %d, %v", index, ok)
	}
	if store.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", store.Len())
	}
}

func TestRemoveThenInsertRestoresPosition(t *testing.T) {
	t.Parallel()

	store := NewStore[item](Append)
	_ = store.Load(context.Background(), staticSource(item{ID: "a"}, item{ID: "b"}, item{ID: "c"}))
	removed, index, ok := store.Remove("b")
	if !ok || index != 1 {
		t.Fatalf("Remove(b) = %d, %v", index, ok)
	}
	store.Insert(index, removed)
	if diff := cmp.Diff([]string{"a", "b", "c"}, ids(store.Snapshot())); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}

	store.Insert(99, item{ID: "d"})
	store.Insert(-5, item{ID: "z"})
	if diff := cmp.Diff([]string{"z", "a", "b", "c", "d"}, ids(store.Snapshot())); diff != "" {
		t.Fatalf("clamped insert mismatch (-want +got):\n%s", diff)
	}
}

func TestReplaceSwapsProvisionalRecord(t *testing.T) {
	t.Parallel()

	store := NewStore[item](Append)
	_ = store.Load(context.Background(), staticSource(item{ID: "a"}, item{ID: "tmp-1"}, item{ID: "c"}))
	store.Replace("tmp-1", item{ID: "b"})
	if diff := cmp.Diff([]string{"a", "b", "c"}, ids(store.Snapshot())); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}

	// Confirmed record already present from a concurrent path.
	store.Upsert(item{ID: "tmp-2"})
	store.Replace("tmp-2", item{ID: "a", Name: "confirmed"})
	if diff := cmp.Diff([]string{"a", "b", "c"}, ids(store.Snapshot())); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
	if got, _ := store.Get("a"); got.Name != "confirmed" {
		t.Fatalf("Get(a).Name = %q", got.Name)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	t.Parallel()

	store := NewStore[item](Append)
	store.Upsert(item{ID: "a"})
	snap := store.Snapshot()
	snap[0].Name = "mutated"
	if got, _ := store.Get("a"); got.Name != "" {
		t.Fatalf("store changed through snapshot: %q", got.Name)
	}
}

func TestStoreConcurrentUse(t *testing.T) {
	t.Parallel()

	store := NewStore[item](Append)
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := string(rune('A' + i%26))
			store.Upsert(item{ID: id})
			_ = store.Snapshot()
		}()
	}
	wg.Wait()
	if store.Len() != 26 {
		t.Fatalf("Len() = %d, want 26", store.Len())
	}
}
