// Package store keeps the flat records of the graph codec in a database, one
// event record plus its particle and vertex records per event.
package store

import (
	"context"
	"errors"
	"fmt"

	hepmc "github.com/next-exp/hepmc_go/pkg"
)

var (
	ErrEventNotFound  = errors.New("event not found in store")
	ErrUnknownBackend = errors.New("unknown store backend")
)

// Store is implemented by every backend. Write replaces whatever was stored
// before under the same event number.
type Store interface {
	Name() string
	Write(ctx context.Context, doc *hepmc.Document) error
	LoadEvent(ctx context.Context, number int) (*hepmc.Event, error)
	EventNumbers(ctx context.Context) ([]int, error)
	Close() error
}

// Open connects to the backend selected by config.Store.
func Open(config hepmc.Configuration) (Store, error) {
	switch config.Store {
	case "sqlite":
		return OpenSQLite(config.DBPath)
	case "mysql":
		db, err := ConnectToDatabase(config.User, config.Passwd, config.Host, config.DBName)
		if err != nil {
			return nil, fmt.Errorf("error connecting to database: %w", err)
		}
		s, err := NewSQLStore(db)
		if err != nil {
			db.Close()
			return nil, err
		}
		return s, nil
	case "badger":
		return OpenBadger(BadgerConfig{Path: config.DBPath, SyncWrites: true})
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, config.Store)
}
