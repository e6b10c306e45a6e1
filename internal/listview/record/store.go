package record

import (
	"context"
	"errors"
	"sync"

	apperrors "github.com/louisbranch/boardkit/internal/platform/errors"
)

// ErrStaleLoad reports a load result discarded because a newer load was
// started or a local change committed while it was in flight.
var ErrStaleLoad = errors.New("stale load discarded")

// Store is an ordered collection of records with unique identifiers. It is
// safe for concurrent use.
type Store[T Record] struct {
	mu         sync.RWMutex
	records    []T
	placement  Placement
	generation uint64
	loadSeq    uint64
	loaded     bool
}

// NewStore returns an empty store that places new records per placement.
func NewStore[T Record](placement Placement) *Store[T] {
	return &Store[T]{placement: placement}
}

// Load replaces the collection with the records returned by source. On
// failure the previous collection is kept and a load failure is returned.
// A result that lost the race with a newer load or a local change is
// dropped with ErrStaleLoad.
func (s *Store[T]) Load(ctx context.Context, source Source[T]) error {
	if source == nil {
		return apperrors.EK(apperrors.KindLoadFailure, "notice.load_failure", "record source is not configured")
	}
	s.mu.Lock()
	s.loadSeq++
	seq, generation := s.loadSeq, s.generation
	s.mu.Unlock()

	records, err := source.List(ctx)
	if err != nil {
		return apperrors.Reclassify(apperrors.KindLoadFailure, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.loadSeq || generation != s.generation {
		return ErrStaleLoad
	}
	s.records = dedupe(records)
	s.loaded = true
	return nil
}

// Loaded reports whether a load has succeeded at least once.
func (s *Store[T]) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Upsert replaces the record with the same identifier in place, or adds it
// per the store placement. It reports whether the record was new.
func (s *Store[T]) Upsert(record T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	if i := s.indexOf(record.RecordID()); i >= 0 {
		s.records[i] = record
		return false
	}
	if s.placement == Prepend {
		s.records = append([]T{record}, s.records...)
	} else {
		s.records = append(s.records, record)
	}
	return true
}

// Remove deletes the record with id. It returns the removed record and its
// former index, or ok=false when id was absent.
func (s *Store[T]) Remove(id string) (removed T, index int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return removed, -1, false
	}
	s.generation++
	removed = s.records[i]
	s.records = append(s.records[:i:i], s.records[i+1:]...)
	return removed, i, true
}

// Insert puts record at index, clamped to the collection bounds. When the
// identifier is already present the record is replaced where it is.
func (s *Store[T]) Insert(index int, record T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	if i := s.indexOf(record.RecordID()); i >= 0 {
		s.records[i] = record
		return
	}
	index = max(0, min(index, len(s.records)))
	s.records = append(s.records, record)
	copy(s.records[index+1:], s.records[index:])
	s.records[index] = record
}

// Replace swaps the record identified by oldID for record, keeping its
// position. When record's identifier already exists elsewhere the oldID entry
// is dropped and the existing entry is replaced. When oldID is absent record
// is upserted.
func (s *Store[T]) Replace(oldID string, record T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	oldIdx := s.indexOf(oldID)
	newID := record.RecordID()
	if newID != oldID {
		if existing := s.indexOf(newID); existing >= 0 {
			s.records[existing] = record
			if oldIdx >= 0 {
				s.records = append(s.records[:oldIdx:oldIdx], s.records[oldIdx+1:]...)
			}
			return
		}
	}
	if oldIdx >= 0 {
		s.records[oldIdx] = record
		return
	}
	if s.placement == Prepend {
		s.records = append([]T{record}, s.records...)
	} else {
		s.records = append(s.records, record)
	}
}

// Get returns the record with id.
func (s *Store[T]) Get(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.records[i], true
	}
	var zero T
	return zero, false
}

// Snapshot returns a copy of the records in order.
func (s *Store[T]) Snapshot() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of records.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Store[T]) indexOf(id string) int {
	for i, record := range s.records {
		if record.RecordID() == id {
			return i
		}
	}
	return -1
}

// dedupe keeps the first record for every identifier.
func dedupe[T Record](records []T) []T {
	seen := make(map[string]struct{}, len(records))
	out := make([]T, 0, len(records))
	for _, record := range records {
		id := record.RecordID()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, record)
	}
	return out
}
