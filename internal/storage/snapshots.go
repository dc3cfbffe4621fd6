package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// ErrNoSnapshot is returned when no snapshot matches a query.
var ErrNoSnapshot = errors.New("no snapshot recorded")

// Snapshot records one completed fetch run.
type Snapshot struct {
	ID                  string
	SetCode             string
	Format              string
	Fingerprint         int64
	PreviousFingerprint *int64
	CardCount           int
	PairsRefreshed      bool
	MetadataSource      string
	Weights             string
	CreatedAt           time.Time
}

// SnapshotCard is the per-card score captured with a snapshot.
type SnapshotCard struct {
	ArenaID    string
	Name       string
	Score      float64
	Confidence float64
}

// SnapshotRepository stores run snapshots.
type SnapshotRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSnapshotRepository creates a repository over an open database.
func NewSnapshotRepository(db *DB) *SnapshotRepository {
	return &SnapshotRepository{db: db.Conn(), now: time.Now}
}

var snapshotColumns = []string{
	"id", "set_code", "draft_format", "fingerprint", "previous_fingerprint",
	"card_count", "pairs_refreshed", "metadata_source", "weights", "created_at",
}

// Record stores a snapshot and its cards in one transaction. ID and CreatedAt
// are filled in when empty; the stored snapshot is returned.
func (r *SnapshotRepository) Record(ctx context.Context, snap Snapshot, cards []SnapshotCard) (*Snapshot, error) {
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = r.now().UTC()
	}
	snap.SetCode = strings.ToUpper(snap.SetCode)
	snap.CardCount = len(cards)

	err := inTransaction(ctx, r.db, func(tx *sql.Tx) error {
		_, err := sq.Insert("snapshots").
			Columns(snapshotColumns...).
			Values(snap.ID, snap.SetCode, snap.Format, snap.Fingerprint, snap.PreviousFingerprint,
				snap.CardCount, snap.PairsRefreshed, snap.MetadataSource, snap.Weights, snap.CreatedAt).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}

		if len(cards) == 0 {
			return nil
		}
		insert := sq.Insert("snapshot_cards").Columns("snapshot_id", "arena_id", "name", "score", "confidence")
		for _, c := range cards {
			insert = insert.Values(snap.ID, c.ArenaID, c.Name, c.Score, c.Confidence)
		}
		if _, err := insert.RunWith(tx).ExecContext(ctx); err != nil {
			return fmt.Errorf("insert snapshot cards: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// List returns the most recent snapshots, newest first. An empty set code
// lists every set; a limit of zero or less returns all.
func (r *SnapshotRepository) List(ctx context.Context, setCode string, limit int) ([]*Snapshot, error) {
	query := sq.Select(snapshotColumns...).From("snapshots").OrderBy("created_at DESC", "id")
	if setCode != "" {
		query = query.Where(sq.Eq{"set_code": strings.ToUpper(setCode)})
	}
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	rows, err := query.RunWith(r.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var snapshots []*Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}

// Latest returns the newest snapshot for a set and format.
func (r *SnapshotRepository) Latest(ctx context.Context, setCode, format string) (*Snapshot, error) {
	row := sq.Select(snapshotColumns...).
		From("snapshots").
		Where(sq.Eq{"set_code": strings.ToUpper(setCode), "draft_format": format}).
		OrderBy("created_at DESC", "id").
		Limit(1).
		RunWith(r.db).
		QueryRowContext(ctx)

	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	return snap, err
}

// Cards returns the cards captured with a snapshot, best score first.
func (r *SnapshotRepository) Cards(ctx context.Context, snapshotID string, limit int) ([]SnapshotCard, error) {
	query := sq.Select("arena_id", "name", "score", "confidence").
		From("snapshot_cards").
		Where(sq.Eq{"snapshot_id": snapshotID}).
		OrderBy("score DESC", "arena_id")
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	rows, err := query.RunWith(r.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list snapshot cards: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var cards []SnapshotCard
	for rows.Next() {
		var c SnapshotCard
		if err := rows.Scan(&c.ArenaID, &c.Name, &c.Score, &c.Confidence); err != nil {
			return nil, fmt.Errorf("scan snapshot card: %w", err)
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSnapshot(row rowScanner) (*Snapshot, error) {
	var snap Snapshot
	var previous sql.NullInt64
	err := row.Scan(&snap.ID, &snap.SetCode, &snap.Format, &snap.Fingerprint, &previous,
		&snap.CardCount, &snap.PairsRefreshed, &snap.MetadataSource, &snap.Weights, &snap.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan snapshot: %w", err)
	}
	if previous.Valid {
		snap.PreviousFingerprint = &previous.Int64
	}
	return &snap, nil
}
