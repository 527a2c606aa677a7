package server

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/signadot/sharedoc/system/relay/store"
)

// Rooms loads rooms on first use and keeps them for the life of the
// server.
type Rooms struct {
	mu    sync.Mutex
	rooms map[string]*Room
	store store.Store
	log   *slog.Logger
}

func NewRooms(st store.Store, log *slog.Logger) *Rooms {
	return &Rooms{
		rooms: map[string]*Room{},
		store: st,
		log:   log,
	}
}

func (rs *Rooms) Get(name string) (*Room, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if r, ok := rs.rooms[name]; ok {
		return r, nil
	}
	r, err := loadRoom(name, rs.store, rs.log)
	if err != nil {
		return nil, err
	}
	rs.rooms[name] = r
	return r, nil
}

// Names lists loaded and stored rooms.
func (rs *Rooms) Names() ([]string, error) {
	names, err := rs.store.Rooms()
	if err != nil {
		return nil, err
	}
	rs.mu.Lock()
	for name := range rs.rooms {
		names = append(names, name)
	}
	rs.mu.Unlock()
	slices.Sort(names)
	return slices.Compact(names), nil
}
