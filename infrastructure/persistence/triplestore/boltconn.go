package triplestore

import (
	"context"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/trellis-ldp/trellis-core/domain/rdf"
)

// BoltConnection is the embedded on-disk backend, keyed by a
// filesystem path. The whole
// dataset is kept as one N-Quads blob under a single key; bbolt's
// single-writer transaction is what makes Mutate atomic.
type BoltConnection struct {
	db *bolt.DB
}

var datasetBucket = []byte("dataset")
var datasetKey = []byte("current")

// OpenBoltConnection opens (creating if absent) a bbolt database file
// at path as the durable store.
func OpenBoltConnection(path string) (*BoltConnection, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("triplestore: opening bolt database: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(datasetBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("triplestore: creating bucket: %w", err)
	}
	return &BoltConnection{db: db}, nil
}

func (c *BoltConnection) Close() error { return c.db.Close() }

func (c *BoltConnection) Snapshot(ctx context.Context) (*rdf.Dataset, error) {
	var ds *rdf.Dataset
	err := c.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(datasetBucket).Get(datasetKey)
		decoded, err := decodeDataset(data)
		if err != nil {
			return err
		}
		ds = decoded
		return nil
	})
	return ds, err
}

func (c *BoltConnection) Mutate(ctx context.Context, fn func(*rdf.Dataset) error) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(datasetBucket)
		current, err := decodeDataset(bucket.Get(datasetKey))
		if err != nil {
			return err
		}
		if err := fn(current); err != nil {
			return err
		}
		encoded, err := encodeDataset(current)
		if err != nil {
			return err
		}
		return bucket.Put(datasetKey, encoded)
	})
}
