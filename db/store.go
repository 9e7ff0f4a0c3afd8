package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlbuilder "github.com/huandu/go-sqlbuilder"
	log "github.com/sirupsen/logrus"
)

// Store persists the ids of submissions the bot has already handled.
// Rows are insert-only; the table is never pruned unless Tidy is
// invoked explicitly.
type Store struct {
	db *sql.DB
}

func NewStore(database string) (*Store, error) {
	db, err := connection(database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Has reports whether the submission id is already recorded
func (s *Store) Has(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	sb := sqlbuilder.NewSelectBuilder()
	sb.Select("id").From("seen_submissions")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	var got string
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&got)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query error: %w", err)
	}

	return true, nil
}

// Insert records a submission id with its first-seen timestamp. This is
// the terminal action for a submission, so a duplicate insert indicates
// a bookkeeping bug and is surfaced as an error.
func (s *Store) Insert(ctx context.Context, id string, firstSeen int64) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	ib := sqlbuilder.NewInsertBuilder()
	ib.InsertInto("seen_submissions")
	ib.Cols("id", "first_seen")
	ib.Values(id, firstSeen)

	query, args := ib.Build()

	log.WithFields(log.Fields{
		"id":        id,
		"firstSeen": time.Unix(firstSeen, 0).Format(time.RFC3339),
	}).Info("Recording submission as handled")

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert error: %w", err)
	}

	return nil
}

// Count returns the number of recorded submissions
func (s *Store) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	sb := sqlbuilder.NewSelectBuilder()
	sb.Select("count(*)").From("seen_submissions")

	query, args := sb.Build()

	var count int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("query error: %w", err)
	}

	return count, nil
}

// Tidy deletes rows first seen more than olderThan ago and returns the
// number of rows removed. The ingest loop never calls this; retention
// is strictly opt-in via the tidy command.
func (s *Store) Tidy(ctx context.Context, olderThan time.Duration) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-olderThan).Unix()

	delb := sqlbuilder.NewDeleteBuilder()
	delb.DeleteFrom("seen_submissions")
	delb.Where(delb.LessEqualThan("first_seen", cutoff))

	query, args := delb.Build()

	log.WithFields(log.Fields{
		"sql":  query,
		"args": args,
	}).Info("Tidying seen submissions")

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete error: %w", err)
	}

	return res.RowsAffected()
}
