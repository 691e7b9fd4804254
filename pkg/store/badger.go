package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
	hepmc "github.com/next-exp/hepmc_go/pkg"
	"golang.org/x/exp/slices"
)

// BadgerConfig holds the options of the embedded key-value backend.
type BadgerConfig struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path       string
	InMemory   bool
	SyncWrites bool
}

// BadgerStore keeps every codec record as a JSON value under its own key:
// evt/<n>, par/<n>/<barcode> and vtx/<n>/<barcode>.
type BadgerStore struct {
	db *badger.DB
}

// badgerLogger routes badger's log output to the package logger.
type badgerLogger struct {
	logger hepmc.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	if hepmc.GetConfiguration().Verbosity > 1 {
		l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, args...)), "badger")
	}
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	if hepmc.GetConfiguration().Verbosity > 2 {
		l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, args...)), "badger")
	}
}

func OpenBadger(cfg BadgerConfig) (*BadgerStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(&badgerLogger{logger: hepmc.GetLogger()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func eventKey(number int) []byte { return []byte(fmt.Sprintf("evt/%d", number)) }

func particlePrefix(number int) []byte { return []byte(fmt.Sprintf("par/%d/", number)) }

func vertexPrefix(number int) []byte { return []byte(fmt.Sprintf("vtx/%d/", number)) }

func (s *BadgerStore) Name() string { return "badger" }

func (s *BadgerStore) Close() error { return s.db.Close() }

func (s *BadgerStore) Write(ctx context.Context, doc *hepmc.Document) error {
	number := doc.Event.Barcode
	entries := make(map[string][]byte, 1+len(doc.Particles)+len(doc.Vertices))

	value, err := json.Marshal(doc.Event)
	if err != nil {
		return fmt.Errorf("error encoding event %d: %w", number, err)
	}
	entries[string(eventKey(number))] = value
	for _, p := range doc.Particles {
		value, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("error encoding particle %s: %w", p.Key(), err)
		}
		entries["par/"+p.Key()] = value
	}
	for _, v := range doc.Vertices {
		value, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("error encoding vertex %s: %w", v.Key(), err)
		}
		entries["vtx/"+v.Key()] = value
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	// stale keys go in the same transaction as the new records
	err = s.db.Update(func(txn *badger.Txn) error {
		stale := keysWithPrefix(txn, particlePrefix(number), vertexPrefix(number))
		for _, key := range stale {
			if _, ok := entries[string(key)]; ok {
				continue
			}
			if err := txn.Delete(key); err != nil {
				return fmt.Errorf("error deleting %s: %w", key, err)
			}
		}
		for key, value := range entries {
			if err := txn.Set([]byte(key), value); err != nil {
				return fmt.Errorf("error writing %s: %w", key, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("error writing event %d: %w", number, err)
	}
	return nil
}

func keysWithPrefix(txn *badger.Txn, prefixes ...[]byte) [][]byte {
	var keys [][]byte
	for _, prefix := range prefixes {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		it.Close()
	}
	return keys
}

func (s *BadgerStore) LoadEvent(ctx context.Context, number int) (*hepmc.Event, error) {
	if hepmc.GetConfiguration().Verbosity > 1 {
		hepmc.GetLogger().Info(fmt.Sprintf("Loading event %d from badger", number), "store")
	}
	var (
		er        hepmc.EventRecord
		particles []hepmc.ParticleRecord
		vertices  []hepmc.VertexRecord
	)
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(eventKey(number))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %d", ErrEventNotFound, number)
		}
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &er)
		}); err != nil {
			return err
		}

		for _, prefix := range [][]byte{particlePrefix(number), vertexPrefix(number)} {
			if err := ctx.Err(); err != nil {
				return err
			}
			opts := badger.DefaultIteratorOptions
			opts.Prefix = prefix
			it := txn.NewIterator(opts)
			for it.Rewind(); it.Valid(); it.Next() {
				err := it.Item().Value(func(val []byte) error {
					record, err := hepmc.DecodeRecord(val)
					if err != nil {
						return err
					}
					switch r := record.(type) {
					case hepmc.ParticleRecord:
						particles = append(particles, r)
					case hepmc.VertexRecord:
						vertices = append(vertices, r)
					default:
						return &hepmc.DecodeError{Kind: hepmc.TypeEvent, Field: "type",
							Err: fmt.Errorf("%w: event record stored under %s", hepmc.ErrSchema, it.Item().Key())}
					}
					return nil
				})
				if err != nil {
					it.Close()
					return err
				}
			}
			it.Close()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return hepmc.Decode(er, particles, vertices)
}

func (s *BadgerStore) EventNumbers(ctx context.Context) ([]int, error) {
	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		keys = keysWithPrefix(txn, []byte("evt/"))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error listing keys: %w", err)
	}
	numbers := make([]int, 0, len(keys))
	for _, key := range keys {
		number, err := strconv.Atoi(strings.TrimPrefix(string(key), "evt/"))
		if err != nil {
			return nil, fmt.Errorf("malformed event key %q: %w", key, err)
		}
		numbers = append(numbers, number)
	}
	slices.Sort(numbers)
	return numbers, nil
}
