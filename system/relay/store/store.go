// Package store persists the update log of each relay room.
package store

import (
	"errors"
	"slices"
	"sync"
)

var ErrClosed = errors.New("store closed")

// Store is an append-only log of encoded updates per room.
type Store interface {
	Append(room string, update []byte) error
	// Load calls fn with each update of room in append order.
	Load(room string, fn func(update []byte) error) error
	Rooms() ([]string, error)
	Close() error
}

// Memory is a Store that keeps everything in memory.
type Memory struct {
	mu     sync.Mutex
	rooms  map[string][][]byte
	closed bool
}

func NewMemory() *Memory {
	return &Memory{rooms: map[string][][]byte{}}
}

func (m *Memory) Append(room string, update []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.rooms[room] = append(m.rooms[room], slices.Clone(update))
	return nil
}

func (m *Memory) Load(room string, fn func([]byte) error) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	log := slices.Clone(m.rooms[room])
	m.mu.Unlock()
	for _, u := range log {
		if err := fn(slices.Clone(u)); err != nil {
			return err
		}
	}
	return nil
}

func (m *Memory) Rooms() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	res := make([]string, 0, len(m.rooms))
	for r := range m.rooms {
		res = append(res, r)
	}
	slices.Sort(res)
	return res, nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
