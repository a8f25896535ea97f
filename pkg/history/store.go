// Copyright © 2024 Rak Laptudirm <rak@laptudirm.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package history keeps a log of the games started from this machine, so
// that later commands can refer to the last one.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"laptudirm.com/x/hyperchess/pkg/api"
	hyperchess "laptudirm.com/x/hyperchess/pkg/common"
)

var (
	ErrNotFound = errors.New("history: session not found")
	ErrExists   = errors.New("history: session already recorded")
)

//go:embed schema.sql
var schema string

// Session is one recorded game.
type Session struct {
	UUID      string
	Server    string
	Mode      api.Mode
	Dimension int
	Side      int

	CreatedAt time.Time
	UpdatedAt time.Time

	// Plies is the number of moves submitted from this machine.
	Plies         int
	CurrentPlayer api.Player
	Status        string

	// Note is a free form outcome, like "timeout waiting for Black".
	Note string
}

// Store is a sqlite backed session log.
type Store struct {
	db *sql.DB
}

// Open opens the store at path, creating the file and its parent
// directories if needed.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("history: store path is required")
	}

	path = filepath.Clean(path)
	if err := hyperchess.TryMkdir(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("history: create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("history: open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: ping sqlite db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: apply schema: %w", err)
	}

	logrus.Debugf("opened history store %s", path)
	return &Store{db: db}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

// Record adds a new session to the log.
func (s *Store) Record(ctx context.Context, session Session) error {
	if session.UUID == "" {
		return fmt.Errorf("history: session uuid is required")
	}

	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = session.CreatedAt
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (
		   uuid, server, mode, dimension, side, created_at, updated_at,
		   plies, current_player, status, note
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.UUID,
		session.Server,
		string(session.Mode),
		session.Dimension,
		session.Side,
		toMillis(session.CreatedAt),
		toMillis(session.UpdatedAt),
		session.Plies,
		string(session.CurrentPlayer),
		session.Status,
		session.Note,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrExists
		}

		return fmt.Errorf("history: record session: %w", err)
	}

	logrus.Debugf("recorded session %s", session.UUID)
	return nil
}

// Update overwrites the progress of a recorded session: its ply count,
// current player, status and note.
func (s *Store) Update(ctx context.Context, session Session) error {
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = time.Now()
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE sessions
		 SET updated_at = ?, plies = ?, current_player = ?, status = ?, note = ?
		 WHERE uuid = ?`,
		toMillis(session.UpdatedAt),
		session.Plies,
		string(session.CurrentPlayer),
		session.Status,
		session.Note,
		session.UUID,
	)
	if err != nil {
		return fmt.Errorf("history: update session: %w", err)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	return nil
}

const selectSession = `SELECT
	uuid, server, mode, dimension, side, created_at, updated_at,
	plies, current_player, status, note
	FROM sessions`

// Get returns the session with the given uuid.
func (s *Store) Get(ctx context.Context, uuid string) (Session, error) {
	row := s.db.QueryRowContext(ctx, selectSession+` WHERE uuid = ?`, uuid)
	return scanSession(row)
}

// Latest returns the most recently created session.
func (s *Store) Latest(ctx context.Context) (Session, error) {
	row := s.db.QueryRowContext(ctx, selectSession+` ORDER BY created_at DESC, rowid DESC LIMIT 1`)
	return scanSession(row)
}

// List returns up to limit sessions, newest first. A limit less than one
// lists every session.
func (s *Store) List(ctx context.Context, limit int) ([]Session, error) {
	if limit < 1 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, selectSession+` ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}

		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: list sessions: %w", err)
	}

	return sessions, nil
}

// Clear deletes every recorded session and returns how many there were.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions`)
	if err != nil {
		return 0, fmt.Errorf("history: clear sessions: %w", err)
	}

	return result.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (Session, error) {
	var (
		session              Session
		mode, current        string
		createdAt, updatedAt int64
	)

	err := row.Scan(
		&session.UUID,
		&session.Server,
		&mode,
		&session.Dimension,
		&session.Side,
		&createdAt,
		&updatedAt,
		&session.Plies,
		&current,
		&session.Status,
		&session.Note,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNotFound
		}

		return Session{}, fmt.Errorf("history: scan session: %w", err)
	}

	session.Mode = api.Mode(mode)
	session.CurrentPlayer = api.Player(current)
	session.CreatedAt = fromMillis(createdAt)
	session.UpdatedAt = fromMillis(updatedAt)
	return session, nil
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}

	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
