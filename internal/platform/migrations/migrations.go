package migrations

import (
	"time"

	"gorm.io/gorm"
)

// Run applies the key-value schema: one table per storage segment.
func Run(db *gorm.DB, tables ...string) error {
	if db == nil {
		return nil
	}
	for _, table := range tables {
		if err := db.Table(table).AutoMigrate(&entryRecord{}); err != nil {
			return err
		}
	}
	return nil
}

// Entry schema mirrors the kv Postgres backend.
type entryRecord struct {
	ID        int64     `gorm:"primaryKey;autoIncrement:false;column:id"`
	Payload   []byte    `gorm:"column:payload;type:bytea;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}
