package procurement

import "context"

// Store is the single source of truth for procurement records. All reads go
// through its query surface and the stage/status pair changes only through
// MoveRecordToStage. Implementations must serialise writes per record id so
// an update paired with a move is never interleaved with another writer.
type Store interface {
	// AddRecord inserts a new record. The record must sit at the initial
	// stage; an existing id yields ErrDuplicateID.
	AddRecord(ctx context.Context, rec Record) error

	// UpdateRecord merges the patch into the stored record, leaving every
	// unset field untouched. Absent ids yield ErrNotFound.
	UpdateRecord(ctx context.Context, id string, patch Patch) error

	// MoveRecordToStage atomically sets the record's stage/status pair after
	// validating the transition against the stage graph. It yields
	// ErrNotFound for absent ids and ErrIllegalTransition for moves outside
	// the allowed-edges table.
	MoveRecordToStage(ctx context.Context, id string, stage Stage, status Status) error

	// GetRecord returns a single record by id.
	GetRecord(ctx context.Context, id string) (Record, error)

	// GetRecordsByStage returns every record at the stage in insertion
	// order; a non-empty status narrows to exact, case-sensitive matches.
	GetRecordsByStage(ctx context.Context, stage Stage, status Status) ([]Record, error)

	// ListAll returns every record in insertion order.
	ListAll(ctx context.Context) ([]Record, error)

	// NextSequence atomically advances and returns the monotonic counter
	// for a numbering prefix (PO, WS, MRN, BILL).
	NextSequence(ctx context.Context, prefix string) (int64, error)
}
