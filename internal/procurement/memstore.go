package procurement

import (
	"context"
	"sync"
)

// MemoryStore keeps the full record collection in process memory. It mirrors
// the reference single-actor semantics: one mutex serialises every
// operation, which also gives the single-writer-per-record discipline the
// update+move pairing relies on.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
	order   []string
	seqs    map[string]int64
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]Record),
		seqs:    make(map[string]int64),
	}
}

// AddRecord inserts a record created at the initial stage.
func (s *MemoryStore) AddRecord(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.ID]; ok {
		return ErrDuplicateID
	}
	if rec.Stage != InitialStage {
		return ErrIllegalTransition
	}
	s.records[rec.ID] = rec
	s.order = append(s.order, rec.ID)
	return nil
}

// UpdateRecord merges the patch into the stored record.
func (s *MemoryStore) UpdateRecord(ctx context.Context, id string, patch Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	patch.apply(&rec)
	s.records[id] = rec
	return nil
}

// MoveRecordToStage validates the transition and commits the new
// stage/status pair as one write.
func (s *MemoryStore) MoveRecordToStage(ctx context.Context, id string, stage Stage, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	if err := ValidateTransition(rec, stage); err != nil {
		return err
	}
	rec.Stage = stage
	rec.Status = status
	s.records[id] = rec
	return nil
}

// GetRecord returns a record by id.
func (s *MemoryStore) GetRecord(ctx context.Context, id string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// GetRecordsByStage returns records at the stage in insertion order.
func (s *MemoryStore) GetRecordsByStage(ctx context.Context, stage Stage, status Status) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Record{}
	for _, id := range s.order {
		rec := s.records[id]
		if rec.Stage != stage {
			continue
		}
		if status != "" && rec.Status != status {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// ListAll returns every record in insertion order.
func (s *MemoryStore) ListAll(ctx context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id])
	}
	return out, nil
}

// NextSequence advances the counter for a numbering prefix.
func (s *MemoryStore) NextSequence(ctx context.Context, prefix string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seqs[prefix]++
	return s.seqs[prefix], nil
}
