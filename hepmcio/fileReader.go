package main

import (
	"context"
	"errors"
	"fmt"

	hepmc "github.com/next-exp/hepmc_go/pkg"
	"github.com/next-exp/hepmc_go/pkg/store"
)

// openReader opens the configured input with the configured particle table.
func openReader(ctx context.Context, config hepmc.Configuration, opts ...hepmc.ReaderOption) (*hepmc.Reader, error) {
	if config.FileIn == "" {
		return nil, errors.New("no input file configured (file_in)")
	}
	table, err := loadParticleTable(ctx, config)
	if err != nil {
		return nil, err
	}
	opts = append([]hepmc.ReaderOption{hepmc.WithParticleTable(table)}, opts...)

	reader, err := hepmc.Open(config.FileIn, opts...)
	if err != nil {
		return nil, err
	}
	if config.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Reading %s, HepMC version %s", config.FileIn, reader.Version()), "fileReader")
	}
	return reader, nil
}

func loadParticleTable(ctx context.Context, config hepmc.Configuration) (hepmc.ParticleTable, error) {
	switch config.ParticleTable {
	case "", "builtin":
		return hepmc.BuiltinParticleTable, nil
	case "db":
		s, err := store.Open(config)
		if err != nil {
			return nil, err
		}
		defer s.Close()
		sqlStore, ok := s.(*store.SQLStore)
		if !ok {
			return nil, fmt.Errorf("particle table needs an SQL store, got %s", s.Name())
		}
		return store.LoadParticleTable(ctx, sqlStore.DB())
	}
	return nil, fmt.Errorf("unknown particle table %q", config.ParticleTable)
}
