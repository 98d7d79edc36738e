/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package settings provides the namespaced key-value settings store backing
// grid-snap state, window geometry, collapsed-panel maps and other per-user
// preferences. Values are stored as strings in an embedded SQLite database;
// typed helpers handle bool/int/JSON conversion.
package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	applog "mapforge/internal/log"
	"mapforge/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// FileName is the settings database file under the user data dir.
	FileName = "settings.sqlite"

	// schemaVersion tracks the local SQLite schema. Bump on breaking changes.
	schemaVersion = 1
)

// ErrClosed is returned by accessors after Close.
var ErrClosed = errors.New("settings store is closed")

// Changed is invoked after a successful Set/Delete with the namespaced key.
// Cached readers (the grid-snap state) stay in sync through this.
type Changed func(namespace, key, value string)

// Store is a namespaced key-value store persisted to SQLite.
// It is safe for concurrent use.
type Store struct {
	mu        sync.Mutex
	db        *sql.DB
	path      string
	closed    bool
	listeners []Changed
}

// DefaultPath returns the per-user settings database path.
func DefaultPath() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "MapForge")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "MapForge")
	default:
		base = filepath.Join(os.Getenv("HOME"), ".local", "share", "mapforge")
	}
	if base == "" {
		return "", errors.New("cannot resolve data directory")
	}
	return filepath.Join(base, FileName), nil
}

// Open creates the database file if needed, enables WAL mode, and ensures the
// meta/settings tables exist. The returned Store is ready for use.
func Open(path string) (*Store, error) {
	l := applog.WithOperation(applog.WithComponent("settings"), "open").With(
		slog.String("path", path),
	)
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("settings path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		l.Error("create data dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	// Use a URI with shared cache and set busy timeout. Convert to forward slashes for SQLite URI.
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure schema failed", slog.Any("err", err))
		return nil, err
	}

	l.Info("settings store ready")
	return &Store{db: db, path: path}, nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS settings (
			namespace  TEXT NOT NULL,
			key        TEXT NOT NULL,
			value      TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (namespace, key)
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("settings ddl: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO meta(key, value) VALUES('schema', ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value;`,
		strconv.Itoa(schemaVersion)); err != nil {
		return fmt.Errorf("write schema version: %w", err)
	}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO meta(key, value) VALUES('app_version', ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value;`,
		version.String()); err != nil {
		return fmt.Errorf("write app version: %w", err)
	}
	return nil
}

// OnChange registers a change listener. Listeners run synchronously after a
// successful write, in registration order.
func (s *Store) OnChange(fn Changed) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Get returns the raw value for a namespaced key. The second result reports
// whether the key exists; a missing key is not an error.
func (s *Store) Get(namespace, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", false, ErrClosed
	}
	var v string
	err := s.db.QueryRow(
		`SELECT value FROM settings WHERE namespace=? AND key=?`, namespace, key,
	).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("settings get %s.%s: %w", namespace, key, err)
	}
	return v, true, nil
}

// Set writes a namespaced key and notifies change listeners.
func (s *Store) Set(namespace, key, value string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	_, err := s.db.Exec(
		`INSERT INTO settings(namespace, key, value, updated_at) VALUES(?,?,?,?)
		 ON CONFLICT(namespace, key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at;`,
		namespace, key, value, time.Now().UTC().Format(time.RFC3339Nano))
	listeners := append([]Changed(nil), s.listeners...)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("settings set %s.%s: %w", namespace, key, err)
	}
	for _, fn := range listeners {
		fn(namespace, key, value)
	}
	return nil
}

// Delete removes a namespaced key. Deleting a missing key is a no-op.
func (s *Store) Delete(namespace, key string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	_, err := s.db.Exec(`DELETE FROM settings WHERE namespace=? AND key=?`, namespace, key)
	listeners := append([]Changed(nil), s.listeners...)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("settings delete %s.%s: %w", namespace, key, err)
	}
	for _, fn := range listeners {
		fn(namespace, key, "")
	}
	return nil
}

// GetBool reads a boolean, returning def when absent or unparsable.
func (s *Store) GetBool(namespace, key string, def bool) bool {
	v, ok, err := s.Get(namespace, key)
	if err != nil || !ok {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	case "0", "false", "off", "no":
		return false
	}
	return def
}

// SetBool writes a boolean.
func (s *Store) SetBool(namespace, key string, v bool) error {
	return s.Set(namespace, key, strconv.FormatBool(v))
}

// GetInt reads an integer, returning def when absent or unparsable.
func (s *Store) GetInt(namespace, key string, def int) int {
	v, ok, err := s.Get(namespace, key)
	if err != nil || !ok {
		return def
	}
	if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
		return n
	}
	return def
}

// SetInt writes an integer.
func (s *Store) SetInt(namespace, key string, v int) error {
	return s.Set(namespace, key, strconv.Itoa(v))
}

// GetFloat reads a float, returning def when absent or unparsable.
func (s *Store) GetFloat(namespace, key string, def float64) float64 {
	v, ok, err := s.Get(namespace, key)
	if err != nil || !ok {
		return def
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
		return f
	}
	return def
}

// SetFloat writes a float.
func (s *Store) SetFloat(namespace, key string, v float64) error {
	return s.Set(namespace, key, strconv.FormatFloat(v, 'f', -1, 64))
}

// GetJSON unmarshals a stored JSON value into out; reports whether the key existed.
func (s *Store) GetJSON(namespace, key string, out any) (bool, error) {
	v, ok, err := s.Get(namespace, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(v), out); err != nil {
		return true, fmt.Errorf("settings decode %s.%s: %w", namespace, key, err)
	}
	return true, nil
}

// SetJSON marshals v and stores it.
func (s *Store) SetJSON(namespace, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("settings encode %s.%s: %w", namespace, key, err)
	}
	return s.Set(namespace, key, string(b))
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database. Subsequent accessors return ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
