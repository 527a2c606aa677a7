package store

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bolt is a Store in a bbolt file with one bucket per room, keyed by a
// big-endian sequence number.
type Bolt struct {
	db *bolt.DB
}

func OpenBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Bolt{db: db}, nil
}

func (b *Bolt) Append(room string, update []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bk, err := tx.CreateBucketIfNotExists([]byte(room))
		if err != nil {
			return err
		}
		seq, err := bk.NextSequence()
		if err != nil {
			return err
		}
		var key [8]byte
		binary.BigEndian.PutUint64(key[:], seq)
		return bk.Put(key[:], update)
	})
}

func (b *Bolt) Load(room string, fn func([]byte) error) error {
	var log [][]byte
	err := b.db.View(func(tx *bolt.Tx) error {
		bk := tx.Bucket([]byte(room))
		if bk == nil {
			return nil
		}
		return bk.ForEach(func(_, v []byte) error {
			// v is only valid inside the transaction
			log = append(log, bytes.Clone(v))
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("load %s: %w", room, err)
	}
	for _, u := range log {
		if err := fn(u); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bolt) Rooms() ([]string, error) {
	var res []string
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			res = append(res, string(name))
			return nil
		})
	})
	return res, err
}

func (b *Bolt) Close() error {
	return b.db.Close()
}
