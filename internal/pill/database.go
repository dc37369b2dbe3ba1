package pill

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const (
	historyBucketName = "history"
	catalogBucketName = "pills"
)

// DB defines the interface for database operations
type DB interface {
	// SaveHistory inserts a detection history row
	SaveHistory(entry *HistoryEntry) error

	// GetHistory retrieves a history row by ID
	GetHistory(id string) (*HistoryEntry, error)

	// ListHistory returns all history rows
	ListHistory() ([]*HistoryEntry, error)

	// DeleteHistory removes a history row
	DeleteHistory(id string) error

	// SavePill saves a catalog entry
	SavePill(entry *CatalogEntry) error

	// GetPill retrieves a catalog entry by ID
	GetPill(id string) (*CatalogEntry, error)

	// ListPills returns all catalog entries
	ListPills() ([]*CatalogEntry, error)

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	// Create buckets if they don't exist
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(historyBucketName)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(catalogBucketName)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// SaveHistory inserts a detection history row
func (b *BoltDB) SaveHistory(entry *HistoryEntry) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(historyBucketName))
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("marshaling history entry: %w", err)
		}
		return bucket.Put([]byte(entry.ID), data)
	})
}

// GetHistory retrieves a history row by ID
func (b *BoltDB) GetHistory(id string) (*HistoryEntry, error) {
	var entry *HistoryEntry
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(historyBucketName))
		data := bucket.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("history entry not found: %s", id)
		}
		return json.Unmarshal(data, &entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ListHistory returns all history rows
func (b *BoltDB) ListHistory() ([]*HistoryEntry, error) {
	entries := make([]*HistoryEntry, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(historyBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var entry HistoryEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("unmarshaling history entry: %w", err)
			}
			entries = append(entries, &entry)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// DeleteHistory removes a history row
func (b *BoltDB) DeleteHistory(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(historyBucketName))
		if bucket.Get([]byte(id)) == nil {
			return fmt.Errorf("history entry not found: %s", id)
		}
		return bucket.Delete([]byte(id))
	})
}

// SavePill saves a catalog entry
func (b *BoltDB) SavePill(entry *CatalogEntry) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(catalogBucketName))
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("marshaling catalog entry: %w", err)
		}
		return bucket.Put([]byte(entry.ID), data)
	})
}

// GetPill retrieves a catalog entry by ID
func (b *BoltDB) GetPill(id string) (*CatalogEntry, error) {
	var entry *CatalogEntry
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(catalogBucketName))
		data := bucket.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("catalog entry not found: %s", id)
		}
		return json.Unmarshal(data, &entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ListPills returns all catalog entries
func (b *BoltDB) ListPills() ([]*CatalogEntry, error) {
	entries := make([]*CatalogEntry, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(catalogBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var entry CatalogEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("unmarshaling catalog entry: %w", err)
			}
			entries = append(entries, &entry)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
