package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-gin-pet-finder/internal/platform/migrations"
)

// writerLockID is the advisory lock key that serializes Update transactions
// across every process sharing the database.
const writerLockID int64 = 0x70657466696e64

var _ Backend = (*PostgresBackend)(nil)

// PostgresBackend stores each segment in its own table through GORM.
type PostgresBackend struct {
	db    *gorm.DB
	known map[Segment]struct{}
	now   func() time.Time
}

// NewPostgres migrates one table per segment and returns a backend over db.
func NewPostgres(ctx context.Context, db *gorm.DB, segments ...Segment) (*PostgresBackend, error) {
	known, err := validateSegments(segments)
	if err != nil {
		return nil, err
	}
	tables := make([]string, 0, len(known))
	for seg := range known {
		tables = append(tables, seg.table())
	}
	if err := migrations.Run(db.WithContext(ctx), tables...); err != nil {
		return nil, fmt.Errorf("migrate kv tables: %w", err)
	}
	return &PostgresBackend{db: db, known: known, now: time.Now}, nil
}

// View runs fn inside a read-only transaction.
func (b *PostgresBackend) View(ctx context.Context, fn func(Tx) error) error {
	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx, known: b.known, readOnly: true, now: b.now})
	}, &sql.TxOptions{ReadOnly: true})
}

// Update runs fn inside a transaction holding the writer lock.
func (b *PostgresBackend) Update(ctx context.Context, fn func(Tx) error) error {
	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", writerLockID).Error; err != nil {
			return fmt.Errorf("acquire writer lock: %w", err)
		}
		return fn(&gormTx{db: tx, known: b.known, now: b.now})
	})
}

// Close closes the pooled connections.
func (b *PostgresBackend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type entryRecord struct {
	ID        int64     `gorm:"primaryKey;autoIncrement:false;column:id"`
	Payload   []byte    `gorm:"column:payload;type:bytea;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

type gormTx struct {
	db       *gorm.DB
	known    map[Segment]struct{}
	readOnly bool
	now      func() time.Time
}

func (t *gormTx) Get(seg Segment, key uint64) ([]byte, bool, error) {
	if err := checkSegment(t.known, seg); err != nil {
		return nil, false, err
	}
	if key > MaxKey {
		return nil, false, nil
	}
	var rec entryRecord
	err := t.db.Table(seg.table()).Where("id = ?", int64(key)).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select %s/%d: %w", seg, key, err)
	}
	return rec.Payload, true, nil
}

func (t *gormTx) Put(seg Segment, key uint64, value []byte) ([]byte, bool, error) {
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
	if value == nil {
		value = []byte{}
	}
	rec := entryRecord{ID: int64(key), Payload: value, UpdatedAt: t.now().UTC()}
	err = t.db.Table(seg.table()).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return nil, false, fmt.Errorf("upsert %s/%d: %w", seg, key, err)
	}
	return prev, existed, nil
}

func (t *gormTx) Delete(seg Segment, key uint64) ([]byte, bool, error) {
	if t.readOnly {
		return nil, false, ErrReadOnly
	}
	prev, existed, err := t.Get(seg, key)
	if err != nil || !existed {
		return nil, false, err
	}
	if err := t.db.Table(seg.table()).Where("id = ?", int64(key)).Delete(&entryRecord{}).Error; err != nil {
		return nil, false, fmt.Errorf("delete %s/%d: %w", seg, key, err)
	}
	return prev, true, nil
}

func (t *gormTx) Ascend(seg Segment, fn func(uint64, []byte) bool) error {
	if err := checkSegment(t.known, seg); err != nil {
		return err
	}
	var records []entryRecord
	if err := t.db.Table(seg.table()).Order("id ASC").Find(&records).Error; err != nil {
		return fmt.Errorf("scan %s: %w", seg, err)
	}
	for _, rec := range records {
		if !fn(uint64(rec.ID), rec.Payload) {
			return nil
		}
	}
	return nil
}

func (t *gormTx) Len(seg Segment) (int, error) {
	if err := checkSegment(t.known, seg); err != nil {
		return 0, err
	}
	var n int64
	if err := t.db.Table(seg.table()).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count %s: %w", seg, err)
	}
	return int(n), nil
}
