// Package h5writer stores events as three HDF5 tables: MC/events,
// MC/particles and MC/vertices.
package h5writer

import (
	"context"
	"errors"
	"fmt"
	"math"

	hepmc "github.com/next-exp/hepmc_go/pkg"
	hdf5 "github.com/jmbenlloch/go-hdf5"
)

const GroupName = "MC"

type Writer struct {
	File           *hdf5.File
	Filename       string
	MCGroup        *hdf5.Group
	EventTable     *hdf5.Dataset
	ParticlesTable *hdf5.Dataset
	VerticesTable  *hdf5.Dataset
	EvtCounter     int
	ParticleRows   int
	VertexRows     int
}

func NewWriter(filename string, compressionLevel int) (*Writer, error) {
	if hepmc.GetConfiguration().Verbosity > 0 {
		hepmc.GetLogger().Info(fmt.Sprintf("Creating file: %s", filename), "hdf5writer")
	}
	file, err := hdf5.CreateFile(filename, hdf5.F_ACC_TRUNC)
	if err != nil {
		return nil, &hepmc.ErrOpenFile{Filename: filename, Err: err}
	}
	w := &Writer{File: file, Filename: filename}

	w.MCGroup, err = file.CreateGroup(GroupName)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("error creating group %s: %w", GroupName, err), w.Close())
	}
	w.EventTable, err = createTable(w.MCGroup, "events", eventRowHDF5{}, compressionLevel)
	if err != nil {
		return nil, errors.Join(err, w.Close())
	}
	w.ParticlesTable, err = createTable(w.MCGroup, "particles", particleRowHDF5{}, compressionLevel)
	if err != nil {
		return nil, errors.Join(err, w.Close())
	}
	w.VerticesTable, err = createTable(w.MCGroup, "vertices", vertexRowHDF5{}, compressionLevel)
	if err != nil {
		return nil, errors.Join(err, w.Close())
	}
	return w, nil
}

func (w *Writer) Name() string { return "hdf5" }

// Write appends one event row plus the particle and vertex rows of doc.
func (w *Writer) Write(ctx context.Context, doc *hepmc.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	er := doc.Event
	if len(er.Units) != 2 || len(er.XSec) != 2 {
		return fmt.Errorf("%w: event %d has malformed units or cross section", hepmc.ErrSchema, er.Barcode)
	}
	if err := fitsInt32(er.No, er.Barcode, len(doc.Particles), len(doc.Vertices)); err != nil {
		return fmt.Errorf("event %d: %w", er.Barcode, err)
	}
	weight := 1.0
	if len(er.Weight) > 0 {
		weight = er.Weight[0]
	}
	events := []eventRowHDF5{{
		EvtNo:        int32(er.No),
		Event:        int32(er.Barcode),
		Weight:       weight,
		MomentumUnit: convertToHdf5String(er.Units[0]),
		LengthUnit:   convertToHdf5String(er.Units[1]),
		XSec:         er.XSec[0],
		XSecErr:      er.XSec[1],
		NParticles:   int32(len(doc.Particles)),
		NVertices:    int32(len(doc.Vertices)),
	}}

	// The slices MUST be allocated with their final length, hdf5 reads
	// them through a pointer to the first element
	particles := make([]particleRowHDF5, len(doc.Particles))
	for i, p := range doc.Particles {
		if len(p.Momentum) != 4 {
			return fmt.Errorf("%w: particle %d has %d momentum components", hepmc.ErrSchema, p.Barcode, len(p.Momentum))
		}
		if err := fitsInt32(p.Event, p.Barcode, p.PID, p.Status, p.StartVertex, p.EndVertex); err != nil {
			return fmt.Errorf("particle %d: %w", p.Barcode, err)
		}
		particles[i] = particleRowHDF5{
			Event:       int32(p.Event),
			Barcode:     int32(p.Barcode),
			PID:         int32(p.PID),
			Status:      int32(p.Status),
			Px:          p.Momentum[0],
			Py:          p.Momentum[1],
			Pz:          p.Momentum[2],
			E:           p.Momentum[3],
			Mass:        p.Mass,
			Charge:      p.Charge,
			StartVertex: int32(p.StartVertex),
			EndVertex:   int32(p.EndVertex),
		}
	}
	vertices := make([]vertexRowHDF5, len(doc.Vertices))
	for i, v := range doc.Vertices {
		if len(v.Position) != 4 {
			return fmt.Errorf("%w: vertex %d has %d position components", hepmc.ErrSchema, v.Barcode, len(v.Position))
		}
		if err := fitsInt32(v.Event, v.Barcode); err != nil {
			return fmt.Errorf("vertex %d: %w", v.Barcode, err)
		}
		vertices[i] = vertexRowHDF5{
			Event:   int32(v.Event),
			Barcode: int32(v.Barcode),
			X:       v.Position[0],
			Y:       v.Position[1],
			Z:       v.Position[2],
			T:       v.Position[3],
		}
	}

	if err := writeArrayToTable(w.EventTable, &events, w.EvtCounter); err != nil {
		return fmt.Errorf("error writing event %d: %w", er.Barcode, err)
	}
	w.EvtCounter++
	if err := writeArrayToTable(w.ParticlesTable, &particles, w.ParticleRows); err != nil {
		return fmt.Errorf("error writing particles of event %d: %w", er.Barcode, err)
	}
	w.ParticleRows += len(particles)
	if err := writeArrayToTable(w.VerticesTable, &vertices, w.VertexRows); err != nil {
		return fmt.Errorf("error writing vertices of event %d: %w", er.Barcode, err)
	}
	w.VertexRows += len(vertices)
	return nil
}

// fitsInt32 checks the values stored in the int32 columns of the tables.
func fitsInt32(values ...int) error {
	for _, v := range values {
		if v < math.MinInt32 || v > math.MaxInt32 {
			return fmt.Errorf("%w: %d does not fit in an int32 column", hepmc.ErrSchema, v)
		}
	}
	return nil
}

func (w *Writer) Close() error {
	var errs []error
	for _, dset := range []*hdf5.Dataset{w.EventTable, w.ParticlesTable, w.VerticesTable} {
		if dset != nil {
			errs = append(errs, dset.Close())
		}
	}
	if w.MCGroup != nil {
		errs = append(errs, w.MCGroup.Close())
	}
	if w.File != nil {
		errs = append(errs, w.File.Close())
	}
	w.EventTable, w.ParticlesTable, w.VerticesTable = nil, nil, nil
	w.MCGroup, w.File = nil, nil
	return errors.Join(errs...)
}
