package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"aigate/internal/domain"
)

var serversBucket = []byte("servers")

// boltBackend keeps registrations in one bucket keyed by position, so the
// caller's order survives a round trip. Every write replaces the bucket in a
// single transaction.
type boltBackend struct {
	db   *bolt.DB
	path string
}

// OpenBoltStore returns a registry store backed by a bbolt database file.
func OpenBoltStore(path string, logger *zap.Logger) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errEmptyPath
	}
	if err := os.MkdirAll(filepath.Dir(path), defaultDirMode); err != nil {
		return nil, fmt.Errorf("ensure registry dir: %w", err)
	}
	db, err := bolt.Open(path, defaultFileMode, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open registry db: %w", err)
	}
	return newStore(&boltBackend{db: db, path: path}, logger), nil
}

func (b *boltBackend) read() ([]domain.Registration, error) {
	regs := []domain.Registration{}
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(serversBucket)
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(key, value []byte) error {
			var reg domain.Registration
			if err := json.Unmarshal(value, &reg); err != nil {
				return fmt.Errorf("decode registration %s: %w", key, err)
			}
			regs = append(regs, reg)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	return regs, nil
}

func (b *boltBackend) write(regs []domain.Registration) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(serversBucket) != nil {
			if err := tx.DeleteBucket(serversBucket); err != nil {
				return err
			}
		}
		bucket, err := tx.CreateBucket(serversBucket)
		if err != nil {
			return err
		}
		for i, reg := range regs {
			value, err := json.Marshal(reg)
			if err != nil {
				return fmt.Errorf("encode registration %s: %w", reg.ID, err)
			}
			if err := bucket.Put(positionKey(i), value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write registry: %w", err)
	}
	return nil
}

func (b *boltBackend) close() error { return b.db.Close() }

func (b *boltBackend) describe() string { return "bolt:" + b.path }

func positionKey(i int) []byte {
	return []byte(fmt.Sprintf("%010d", i))
}
