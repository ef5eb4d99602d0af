package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when an optimistic write lost a race: the row
	// was inserted or updated by another writer since it was read.
	ErrConflict = errors.New("write conflict")

	// ErrAlreadyApplied is returned by Save when the history entry it was
	// asked to mark has already been folded into an aggregate.
	ErrAlreadyApplied = errors.New("history entry already applied")
)

// SkillRecord is the persisted form of one performer×piece aggregate.
// Level is stored by name; the store does not interpret it.
type SkillRecord struct {
	PerformerID    string
	PieceID        string
	Level          string
	PracticeCount  int
	TotalMinutes   int
	LastPracticeAt *time.Time
	Confidence     int
	GoalDate       *string // YYYY-MM-DD
	Badges         []BadgeRecord
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// Version is the optimistic-concurrency counter. Zero means the record
	// has never been stored.
	Version int64

	// AppliedHistoryID, when set, names the history entry this write folds
	// in. Save marks it applied in the same transaction and fails with
	// ErrAlreadyApplied if it already was. Not stored on the skill row.
	AppliedHistoryID string
}

// BadgeRecord is one earned badge row.
type BadgeRecord struct {
	BadgeID  string
	EarnedAt time.Time
}

// SkillRepo persists skill aggregates.
type SkillRepo interface {
	// Get returns the aggregate for the pair, or ErrNotFound.
	Get(ctx context.Context, performerID, pieceID string) (*SkillRecord, error)

	// ListByPerformer returns every aggregate of a performer ordered by piece id.
	ListByPerformer(ctx context.Context, performerID string) ([]SkillRecord, error)

	// Save writes rec and its badges in one transaction. A record with
	// Version 0 is inserted; otherwise the row is updated only if its stored
	// version still equals rec.Version. On success rec.Version is advanced.
	// Badges already stored for the pair are left untouched.
	// Returns ErrConflict when another writer got there first, and
	// ErrAlreadyApplied when rec.AppliedHistoryID was applied before.
	Save(ctx context.Context, rec *SkillRecord) error
}

// HistoryEntry is one raw practice session kept for audit and history display.
type HistoryEntry struct {
	ID          string
	Sequence    int64
	PerformerID string
	PieceID     string
	Duration    int
	Confidence  int
	Notes       string
	PracticedAt time.Time

	// AppliedAt is when the entry was folded into its aggregate; nil until then.
	AppliedAt *time.Time
}

// HistoryRepo provides append and query access to practice history.
type HistoryRepo interface {
	// AppendHistory stores entry, assigning its ID (when empty) and Sequence.
	AppendHistory(ctx context.Context, entry HistoryEntry) (HistoryEntry, error)

	// GetHistory returns a single entry by id, or ErrNotFound.
	GetHistory(ctx context.Context, id string) (*HistoryEntry, error)

	// RecentHistory returns the latest entries for a pair, newest first.
	// A limit of 0 returns all entries.
	RecentHistory(ctx context.Context, performerID, pieceID string, limit int) ([]HistoryEntry, error)
}

// Piece is a practicable content item.
type Piece struct {
	ID        string
	Title     string
	Composer  string
	Published bool
	CreatedAt time.Time
}

// PieceRepo manages the piece catalog.
type PieceRepo interface {
	Create(ctx context.Context, p Piece) error
	Get(ctx context.Context, id string) (*Piece, error)
	List(ctx context.Context) ([]Piece, error)
	SetPublished(ctx context.Context, id string, published bool) error

	// PieceExistsAndPublished reports whether id names a published piece.
	PieceExistsAndPublished(ctx context.Context, id string) (bool, error)
}

// Performer is a profile whose skills are tracked.
type Performer struct {
	ID          string
	DisplayName string
	CreatedAt   time.Time
}

// PerformerRepo manages performer profiles.
type PerformerRepo interface {
	Create(ctx context.Context, p Performer) error
	Get(ctx context.Context, id string) (*Performer, error)
}
