package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/penwyp/go-timeline-mapper/internal/core/model"
	"github.com/penwyp/go-timeline-mapper/internal/util"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Rejection describes a candidate event that failed validation during an
// upsert. The batch continues past rejected candidates.
type Rejection struct {
	Index  int
	Source string
	Title  string
	Reason string
}

func (r Rejection) String() string {
	return fmt.Sprintf("candidate %d (%s %q): %s", r.Index, r.Source, r.Title, r.Reason)
}

// UpsertResult reports how a batch landed. Inserted excludes duplicates,
// which are absorbed silently.
type UpsertResult struct {
	Inserted int
	Rejected []Rejection
}

// EventStore is the durable, deduplicating event repository.
type EventStore interface {
	Upsert(candidates []model.Event) (UpsertResult, error)
	FetchAll() ([]model.Event, error)
	Close() error
}

// SQLiteStore implements EventStore on an embedded SQLite database. WAL
// journaling lets the renderer read while an ingestion pass writes.
type SQLiteStore struct {
	db *gorm.DB
}

// Open creates the database file (and parent directories) if needed and
// migrates the events table.
func Open(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		// SQLite caps bind variables per statement; large ingestion batches
		// must be split. Batches still share one transaction.
		CreateBatchSize: 500,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	if err := db.Exec("PRAGMA journal_mode = WAL").Error; err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if err := db.Exec("PRAGMA busy_timeout = 5000").Error; err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := db.AutoMigrate(&model.Event{}); err != nil {
		return nil, fmt.Errorf("failed to migrate events table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Upsert validates each candidate, normalizes timestamps to UTC and inserts
// the valid ones in a single transaction. Conflicts on the
// (source, ext_id, path) identity are ignored, so re-running ingestion over
// unchanged input is a no-op. The returned count covers newly inserted rows
// only.
func (s *SQLiteStore) Upsert(candidates []model.Event) (UpsertResult, error) {
	var result UpsertResult

	valid := make([]model.Event, 0, len(candidates))
	for i := range candidates {
		e := candidates[i]
		e.Normalize()
		e.ID = 0
		if err := e.Validate(); err != nil {
			rejection := Rejection{Index: i, Source: e.Source, Title: e.Title, Reason: err.Error()}
			result.Rejected = append(result.Rejected, rejection)
			util.LogWarnf("Rejected %s", rejection)
			continue
		}
		valid = append(valid, e)
	}

	if len(valid) == 0 {
		return result, nil
	}

	tx := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&valid)
	if tx.Error != nil {
		return result, fmt.Errorf("failed to upsert events: %w", tx.Error)
	}
	result.Inserted = int(tx.RowsAffected)
	return result, nil
}

// FetchAll returns every stored event ordered ascending by timestamp.
func (s *SQLiteStore) FetchAll() ([]model.Event, error) {
	var events []model.Event
	if err := s.db.Order("timestamp asc, id asc").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}
	return events, nil
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
