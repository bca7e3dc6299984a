package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository handles database operations for journal entries.
type Repository interface {
	// Record appends one entry. An empty ID and zero RecordedAt are
	// filled in.
	Record(ctx context.Context, entry *Entry) error

	// Recent retrieves the newest entries, newest first.
	Recent(ctx context.Context, limit int) ([]*Entry, error)

	// ForCard retrieves the newest entries for one card, newest first.
	ForCard(ctx context.Context, cardID string, limit int) ([]*Entry, error)

	// Since retrieves all entries recorded at or after cutoff, oldest
	// first.
	Since(ctx context.Context, cutoff time.Time) ([]*Entry, error)

	// CountByField counts entries per change field.
	CountByField(ctx context.Context) (map[string]int, error)

	// PurgeOlderThan deletes entries recorded before cutoff and
	// returns how many were removed.
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type repository struct {
	db *sql.DB
}

// NewRepository creates a journal repository.
func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Record(ctx context.Context, entry *Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO journal_entries
			(id, collection, card_id, card_name, field, old_value, new_value, delta, source, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.Collection,
		entry.CardID,
		entry.CardName,
		entry.Field,
		entry.OldValue,
		entry.NewValue,
		entry.Delta,
		entry.Source,
		entry.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record journal entry: %w", err)
	}

	return nil
}

func (r *repository) Recent(ctx context.Context, limit int) ([]*Entry, error) {
	query := `
		SELECT id, collection, card_id, card_name, field, old_value, new_value, delta, source, recorded_at
		FROM journal_entries
		ORDER BY recorded_at DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func (r *repository) ForCard(ctx context.Context, cardID string, limit int) ([]*Entry, error) {
	query := `
		SELECT id, collection, card_id, card_name, field, old_value, new_value, delta, source, recorded_at
		FROM journal_entries
		WHERE card_id = ?
		ORDER BY recorded_at DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, cardID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query card entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func (r *repository) Since(ctx context.Context, cutoff time.Time) ([]*Entry, error) {
	query := `
		SELECT id, collection, card_id, card_name, field, old_value, new_value, delta, source, recorded_at
		FROM journal_entries
		WHERE recorded_at >= ?
		ORDER BY recorded_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries since %s: %w", cutoff, err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func (r *repository) CountByField(ctx context.Context) (map[string]int, error) {
	query := `SELECT field, COUNT(*) FROM journal_entries GROUP BY field`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count entries by field: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var field string
		var count int
		if err := rows.Scan(&field, &count); err != nil {
			return nil, fmt.Errorf("failed to scan field count: %w", err)
		}
		counts[field] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate field counts: %w", err)
	}

	return counts, nil
}

func (r *repository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM journal_entries WHERE recorded_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge journal entries: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged entries: %w", err)
	}
	return n, nil
}

func scanEntries(rows *sql.Rows) ([]*Entry, error) {
	var entries []*Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.ID,
			&e.Collection,
			&e.CardID,
			&e.CardName,
			&e.Field,
			&e.OldValue,
			&e.NewValue,
			&e.Delta,
			&e.Source,
			&e.RecordedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate journal entries: %w", err)
	}
	return entries, nil
}
