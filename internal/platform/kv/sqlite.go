package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/lib/pq"
	_ "modernc.org/sqlite" // pure go sqlite driver
)

var _ Backend = (*SQLiteBackend)(nil)

// SQLiteBackend stores each segment in its own table of a single SQLite file.
// Writes go through a second handle whose transactions start with
// BEGIN IMMEDIATE, so a writer in another process waits on busy_timeout
// instead of failing its lock upgrade with SQLITE_BUSY.
type SQLiteBackend struct {
	db      *sql.DB
	writeDB *sql.DB
	path    string
	known   map[Segment]struct{}
	writeMu sync.Mutex
}

// OpenSQLite opens (creating if needed) the database file at path and ensures
// a table exists for every segment.
func OpenSQLite(ctx context.Context, path string, segments ...Segment) (*SQLiteBackend, error) {
	if path == "" {
		path = "petfinder.db"
	}
	known, err := validateSegments(segments)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	writeDB, err := sql.Open("sqlite", dsn+"&_txlock=immediate")
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	for seg := range known {
		stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY,
			payload BLOB NOT NULL
		)`, pq.QuoteIdentifier(seg.table()))
		if _, err := writeDB.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			_ = writeDB.Close()
			return nil, fmt.Errorf("create %s table: %w", seg, err)
		}
	}
	return &SQLiteBackend{db: db, writeDB: writeDB, path: path, known: known}, nil
}

// View runs fn inside a transaction that is always rolled back.
func (b *SQLiteBackend) View(ctx context.Context, fn func(Tx) error) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	return fn(&sqlTx{ctx: ctx, tx: tx, known: b.known, readOnly: true})
}

// Update runs fn inside a transaction committed only when fn returns nil.
func (b *SQLiteBackend) Update(ctx context.Context, fn func(Tx) error) (retErr error) {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	tx, err := b.writeDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&sqlTx{ctx: ctx, tx: tx, known: b.known}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close closes the underlying database handles.
func (b *SQLiteBackend) Close() error {
	return errors.Join(b.db.Close(), b.writeDB.Close())
}

// Path returns the configured database path.
func (b *SQLiteBackend) Path() string { return b.path }

type sqlTx struct {
	ctx      context.Context
	tx       *sql.Tx
	known    map[Segment]struct{}
	readOnly bool
}

func (t *sqlTx) Get(seg Segment, key uint64) ([]byte, bool, error) {
	if err := checkSegment(t.known, seg); err != nil {
		return nil, false, err
	}
	if key > MaxKey {
		return nil, false, nil
	}
	var value []byte
	query := fmt.Sprintf(`SELECT payload FROM %s WHERE id = ?`, pq.QuoteIdentifier(seg.table()))
	err := t.tx.QueryRowContext(t.ctx, query, int64(key)).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select %s/%d: %w", seg, key, err)
	}
	return value, true, nil
}

func (t *sqlTx) Put(seg Segment, key uint64, value []byte) ([]byte, bool, error) {
	if t.readOnly {
		return nil, false, ErrReadOnly
	}
	if err := checkKey(key); err != nil {
		return nil, false, err
	}
	prev, existed, err := t.Get(seg, key)
	if err != nil {
		return nil, false, err
	}
	stmt := fmt.Sprintf(`INSERT INTO %s(id,payload) VALUES(?,?) ON CONFLICT(id) DO UPDATE SET payload=excluded.payload`,
		pq.QuoteIdentifier(seg.table()))
	if value == nil {
		value = []byte{}
	}
	if _, err := t.tx.ExecContext(t.ctx, stmt, int64(key), value); err != nil {
		return nil, false, fmt.Errorf("upsert %s/%d: %w", seg, key, err)
	}
	return prev, existed, nil
}

func (t *sqlTx) Delete(seg Segment, key uint64) ([]byte, bool, error) {
	if t.readOnly {
		return nil, false, ErrReadOnly
	}
	prev, existed, err := t.Get(seg, key)
	if err != nil || !existed {
		return nil, false, err
	}
	stmt := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, pq.QuoteIdentifier(seg.table()))
	if _, err := t.tx.ExecContext(t.ctx, stmt, int64(key)); err != nil {
		return nil, false, fmt.Errorf("delete %s/%d: %w", seg, key, err)
	}
	return prev, true, nil
}

func (t *sqlTx) Ascend(seg Segment, fn func(uint64, []byte) bool) error {
	if err := checkSegment(t.known, seg); err != nil {
		return err
	}
	query := fmt.Sprintf(`SELECT id, payload FROM %s ORDER BY id ASC`, pq.QuoteIdentifier(seg.table()))
	rows, err := t.tx.QueryContext(t.ctx, query)
	if err != nil {
		return fmt.Errorf("scan %s: %w", seg, err)
	}
	type entry struct {
		key   int64
		value []byte
	}
	var entries []entry
	for rows.Next() {
		var e entry
		if err := rows.Scan(&e.key, &e.value); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan %s: %w", seg, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("scan %s: %w", seg, err)
	}
	_ = rows.Close()
	for _, e := range entries {
		if !fn(uint64(e.key), e.value) {
			return nil
		}
	}
	return nil
}

func (t *sqlTx) Len(seg Segment) (int, error) {
	if err := checkSegment(t.known, seg); err != nil {
		return 0, err
	}
	var n int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, pq.QuoteIdentifier(seg.table()))
	if err := t.tx.QueryRowContext(t.ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", seg, err)
	}
	return n, nil
}
