package storage

import (
	"context"
	"fmt"
	"time"

	"go-mod.ewintr.nl/fluxreader/domain"
)

// Journal records the last known status of every entry this client changed,
// for the summary report.
type Journal struct {
	c   *Client
	now func() time.Time
}

func NewJournal(c *Client) *Journal {
	return &Journal{c: c, now: time.Now}
}

func (j *Journal) RecordStatus(ctx context.Context, changes []domain.StatusChange) error {
	if len(changes) == 0 {
		return nil
	}

	tx, err := j.c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseFailure, err)
	}
	defer tx.Rollback()

	query := j.c.rebind(`INSERT INTO entry_status
(entry_id, feed_id, category_id, title, url, status, updated)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (entry_id)
DO UPDATE SET
feed_id = EXCLUDED.feed_id,
category_id = EXCLUDED.category_id,
title = EXCLUDED.title,
url = EXCLUDED.url,
status = EXCLUDED.status,
updated = EXCLUDED.updated`)
	now := j.now().UTC()
	for _, ch := range changes {
		if _, err := tx.ExecContext(ctx, query,
			ch.EntryID, ch.FeedID, ch.CategoryID, ch.Title, ch.URL, string(ch.Status), now,
		); err != nil {
			return fmt.Errorf("%w: %v", ErrDatabaseFailure, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseFailure, err)
	}

	return nil
}

// SaveCategories stores the category titles so the summary can name them.
func (j *Journal) SaveCategories(ctx context.Context, cats []*domain.Category) error {
	if len(cats) == 0 {
		return nil
	}

	tx, err := j.c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseFailure, err)
	}
	defer tx.Rollback()

	query := j.c.rebind(`INSERT INTO category
(id, title)
VALUES (?, ?)
ON CONFLICT (id)
DO UPDATE SET title = EXCLUDED.title`)
	for _, cat := range cats {
		if _, err := tx.ExecContext(ctx, query, cat.ID, cat.Title); err != nil {
			return fmt.Errorf("%w: %v", ErrDatabaseFailure, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseFailure, err)
	}

	return nil
}

func (j *Journal) TotalEntries(ctx context.Context) (int64, error) {
	var count int64
	if err := j.c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM entry_status").Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDatabaseFailure, err)
	}
	return count, nil
}

func (j *Journal) EntriesByStatus(ctx context.Context) (map[domain.EntryStatus]int64, error) {
	rows, err := j.c.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM entry_status GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseFailure, err)
	}
	defer rows.Close()

	result := make(map[domain.EntryStatus]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseFailure, err)
		}
		result[domain.EntryStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseFailure, err)
	}

	return result, nil
}

func (j *Journal) CategoryStatusMatrix(ctx context.Context) (map[int64]map[domain.EntryStatus]int64, error) {
	rows, err := j.c.db.QueryContext(ctx, `
		SELECT category_id, status, COUNT(*)
		FROM entry_status
		GROUP BY category_id, status
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseFailure, err)
	}
	defer rows.Close()

	result := make(map[int64]map[domain.EntryStatus]int64)
	for rows.Next() {
		var categoryID int64
		var status string
		var count int64
		if err := rows.Scan(&categoryID, &status, &count); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseFailure, err)
		}

		if result[categoryID] == nil {
			result[categoryID] = make(map[domain.EntryStatus]int64)
		}
		result[categoryID][domain.EntryStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseFailure, err)
	}

	return result, nil
}

func (j *Journal) CategoryNames(ctx context.Context) (map[int64]string, error) {
	rows, err := j.c.db.QueryContext(ctx, "SELECT id, title FROM category")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseFailure, err)
	}
	defer rows.Close()

	result := make(map[int64]string)
	for rows.Next() {
		var id int64
		var title string
		if err := rows.Scan(&id, &title); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseFailure, err)
		}
		result[id] = title
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseFailure, err)
	}

	return result, nil
}
