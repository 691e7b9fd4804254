package h5writer

import (
	"context"
	"path/filepath"
	"testing"

	hepmc "github.com/next-exp/hepmc_go/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	hdf5 "github.com/jmbenlloch/go-hdf5"
)

func readTable[T any](t *testing.T, file *hdf5.File, name string) []T {
	t.Helper()
	dset, err := file.OpenDataset(name)
	require.NoError(t, err)
	defer dset.Close()

	space := dset.Space()
	defer space.Close()
	dims, _, err := space.SimpleExtentDims()
	require.NoError(t, err)

	rows := make([]T, dims[0])
	require.NoError(t, dset.Read(&rows))
	return rows
}

func TestWriterTables(t *testing.T) {
	r, err := hepmc.Open("../testdata/zmumu.hepmc")
	require.NoError(t, err)
	defer r.Close()
	events, err := r.AllEvents()
	require.NoError(t, err)

	filename := filepath.Join(t.TempDir(), "mc.h5")
	w, err := NewWriter(filename, 4)
	require.NoError(t, err)
	assert.Equal(t, "hdf5", w.Name())
	for _, evt := range events {
		require.NoError(t, w.Write(context.Background(), hepmc.EncodeDocument(evt)))
	}
	assert.Equal(t, 2, w.EvtCounter)
	assert.Equal(t, 9, w.ParticleRows)
	assert.Equal(t, 4, w.VertexRows)
	require.NoError(t, w.Close())

	file, err := hdf5.OpenFile(filename, hdf5.F_ACC_RDONLY)
	require.NoError(t, err)
	defer file.Close()

	eventRows := readTable[eventRowHDF5](t, file, GroupName+"/events")
	require.Len(t, eventRows, 2)
	assert.Equal(t, int32(1), eventRows[0].EvtNo)
	assert.Equal(t, int32(2), eventRows[1].Event)
	assert.Equal(t, 0.5, eventRows[1].Weight)
	assert.Equal(t, "GEV", convertFromHdf5String(eventRows[0].MomentumUnit))
	assert.Equal(t, "MM", convertFromHdf5String(eventRows[0].LengthUnit))
	assert.Equal(t, int32(7), eventRows[0].NParticles)

	particleRows := readTable[particleRowHDF5](t, file, GroupName+"/particles")
	require.Len(t, particleRows, 9)
	assert.Equal(t, particleRowHDF5{
		Event: 1, Barcode: 5, PID: -13, Status: 2,
		Px: -10, Py: -5, Pz: -10, E: 50, Mass: 0.105658, Charge: 1,
		StartVertex: -2, EndVertex: -3,
	}, particleRows[2])
	assert.Equal(t, int32(2), particleRows[8].Event)

	vertexRows := readTable[vertexRowHDF5](t, file, GroupName+"/vertices")
	require.Len(t, vertexRows, 4)
	assert.Equal(t, vertexRowHDF5{Event: 1, Barcode: -3, X: 0.5, Y: 0.5, Z: 0.5}, vertexRows[0])
}

func TestWriterRejectsMalformedDocument(t *testing.T) {
	w, err := NewWriter(filepath.Join(t.TempDir(), "bad.h5"), 0)
	require.NoError(t, err)
	defer w.Close()

	err = w.Write(context.Background(), &hepmc.Document{Event: hepmc.EventRecord{Type: hepmc.TypeEvent}})
	assert.ErrorIs(t, err, hepmc.ErrSchema)
	assert.Equal(t, 0, w.EvtCounter)
}

func TestWriterRejectsValuesOutsideInt32(t *testing.T) {
	w, err := NewWriter(filepath.Join(t.TempDir(), "wide.h5"), 0)
	require.NoError(t, err)
	defer w.Close()

	event := hepmc.EventRecord{
		Type: hepmc.TypeEvent, Barcode: 1, Units: []string{"GEV", "MM"}, XSec: []float64{0, 0},
	}
	particle := hepmc.ParticleRecord{
		Type: hepmc.TypeParticle, Event: 1, Barcode: 1, PID: 1 << 40, Momentum: []float64{0, 0, 1, 1},
	}
	err = w.Write(context.Background(), &hepmc.Document{Event: event, Particles: []hepmc.ParticleRecord{particle}})
	assert.ErrorIs(t, err, hepmc.ErrSchema)

	event.Barcode = -(1 << 33)
	err = w.Write(context.Background(), &hepmc.Document{Event: event})
	assert.ErrorIs(t, err, hepmc.ErrSchema)

	assert.Equal(t, 0, w.EvtCounter)
	assert.Equal(t, 0, w.ParticleRows)
}

func TestHdf5String(t *testing.T) {
	assert.Equal(t, "GEV", convertFromHdf5String(convertToHdf5String("GEV")))
	assert.Equal(t, "CENTIMET", convertFromHdf5String(convertToHdf5String("CENTIMETER")))
}
