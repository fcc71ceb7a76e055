package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var ErrQuery = errors.New("failed to query command history")

// Entry is one executed module command.
type Entry struct {
	Command   string
	Module    string
	Success   bool
	Error     string
	CreatedOn time.Time
}

// History records executed module commands.
type History struct {
	db *sql.DB
}

func NewHistory(db *sql.DB) *History {
	return &History{db: db}
}

func (h *History) Record(ctx context.Context, entry Entry) error {
	const query = `INSERT INTO command_history (command, module, success, error, created_on) VALUES (?, ?, ?, ?, ?)`

	if entry.CreatedOn.IsZero() {
		entry.CreatedOn = time.Now()
	}

	if _, err := h.db.ExecContext(ctx, query, entry.Command, entry.Module, entry.Success,
		entry.Error, entry.CreatedOn.UnixMilli()); err != nil {
		return errors.Join(err, ErrQuery)
	}

	return nil
}

// Recent returns up to limit entries, newest first.
func (h *History) Recent(ctx context.Context, limit int) ([]Entry, error) {
	const query = `
		SELECT command, module, success, error, created_on
		FROM command_history
		ORDER BY created_on DESC, command_id DESC
		LIMIT ?`

	rows, errRows := h.db.QueryContext(ctx, query, limit)
	if errRows != nil {
		return nil, errors.Join(errRows, ErrQuery)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry     Entry
			createdOn int64
		)
		if err := rows.Scan(&entry.Command, &entry.Module, &entry.Success, &entry.Error, &createdOn); err != nil {
			return nil, errors.Join(err, ErrQuery)
		}

		entry.CreatedOn = time.UnixMilli(createdOn)
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Join(err, ErrQuery)
	}

	return entries, nil
}
