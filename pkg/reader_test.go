package hepmc

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderMinimalEvent(t *testing.T) {
	r := readString(t, minimalListing)
	assert.Equal(t, "2.06.09", r.Version())

	evt, err := r.Next()
	require.NoError(t, err)
	require.NotNil(t, evt)

	assert.Equal(t, 1, evt.Number)
	assert.Equal(t, []float64{1.0}, evt.Weights)
	assert.Equal(t, Units{Momentum: "GEV", Length: "MM"}, evt.Units)
	assert.Equal(t, CrossSection{Value: 1.0e-3, Error: 2.0e-5}, evt.XSec)

	require.Equal(t, 1, evt.NumVertices())
	v := evt.Vertex(-1)
	require.NotNil(t, v)
	assert.Equal(t, FourVector{}, v.Position)

	require.Equal(t, 1, evt.NumParticles())
	p := evt.Particle(1)
	require.NotNil(t, p)
	assert.Equal(t, 11, p.PID)
	assert.Equal(t, 1, p.Status)
	assert.Equal(t, 0.000511, p.Mass)
	assert.Equal(t, FourVector{1, 0, 0, 1}, p.Momentum)
	assert.Equal(t, -1.0, p.Charge)
	assert.Nil(t, p.StartVertex())
	assert.Same(t, v, p.EndVertex())
	assert.Same(t, evt, p.Event())

	evt, err = r.Next()
	require.NoError(t, err)
	assert.Nil(t, evt)
	assert.Empty(t, r.Skipped())
}

func TestReaderSample(t *testing.T) {
	events := sampleEvents(t)
	evt := events[0]

	assert.Equal(t, 1, evt.No)
	assert.Equal(t, 2, events[1].No)
	assert.Equal(t, 7, evt.NumParticles())
	assert.Equal(t, 3, evt.NumVertices())
	assert.Equal(t, "E1. #p=7 #v=3, xs=1.00e-03+-2.00e-05, No1", evt.String())

	tests := []struct {
		barcode    int
		start, end int
		charge     float64
	}{
		{10001, 0, -1, 1},
		{10002, 0, -1, 1},
		{3, -1, -2, 0},
		{4, -2, 0, -1},
		{5, -2, -3, 1},
		{6, -3, 0, 1},
		{7, -3, 0, 0},
	}
	for _, tt := range tests {
		p := evt.Particle(tt.barcode)
		require.NotNil(t, p, "particle %d", tt.barcode)
		assert.Equal(t, tt.start, p.Start, "start of %v", p)
		assert.Equal(t, tt.end, p.End, "end of %v", p)
		assert.Equal(t, tt.charge, p.Charge, "charge of %v", p)
	}

	v := evt.Vertex(-2)
	assert.Equal(t, FourVector{0.1, 0.2, 0, 0}, v.Position)
	assert.Equal(t, []int{3}, barcodes(v.Parents()))
	assert.Equal(t, []int{4, 5}, barcodes(v.Children()))
	assert.Equal(t, []int{3}, barcodes(evt.Particle(5).Parents()))
	assert.Equal(t, []int{6, 7}, barcodes(evt.Particle(5).Children()))
	assert.Nil(t, evt.Particle(10001).Parents())
}

func TestReaderGraphConsistency(t *testing.T) {
	for _, evt := range sampleEvents(t) {
		for _, p := range evt.Particles() {
			if v := p.StartVertex(); v != nil {
				assert.Contains(t, v.Children(), p)
				assert.Same(t, evt, v.Event())
			}
			if v := p.EndVertex(); v != nil {
				assert.Contains(t, v.Parents(), p)
			}
		}
		for _, v := range evt.Vertices() {
			for _, p := range v.Children() {
				assert.Same(t, v, p.StartVertex())
			}
			for _, p := range v.Parents() {
				assert.Same(t, v, p.EndVertex())
			}
		}
	}
}

func TestReaderSkipsMalformedParticle(t *testing.T) {
	data, err := os.ReadFile(sampleFile)
	require.NoError(t, err)

	var seen []*RecordError
	r := readString(t, string(data), WithSkipHandler(func(rec *RecordError) {
		seen = append(seen, rec)
	}))
	events, err := r.AllEvents()
	require.NoError(t, err)
	require.Len(t, events, 2)

	evt := events[1]
	assert.Equal(t, []float64{0.5}, evt.Weights)
	assert.Equal(t, []int{1, 3}, barcodes(evt.Particles()))
	assert.NotNil(t, evt.Vertex(-1))
	assert.Nil(t, evt.Particle(2))

	require.Len(t, r.Skipped(), 1)
	assert.Equal(t, r.Skipped(), seen)
	rec := seen[0]
	assert.Equal(t, 2, rec.Event)
	assert.Equal(t, "P", rec.Tag)
	assert.Equal(t, 22, rec.Line)
	assert.Contains(t, rec.Text, "abc")
	assert.ErrorIs(t, rec, ErrMalformedRecord)
}

func TestReaderMalformedParticleThenNextEvent(t *testing.T) {
	listing := `HepMC::Version 2.06.09
HepMC::IO_GenEvent-START_EVENT_LISTING
E 7 0 -1.0 -1.0 -1.0 0 0 1 0 0 0 1 1.0
V -1 0 0.0 0.0 0.0 0.0
P 1 11 x 0.0 0.0 1.0 0.000511 1 0 0 -1 0
P 2 11 1.0 0.0
E 8 0 -1.0 -1.0 -1.0 0 0 1 0 0 0 1 1.0
V -1 0 0.0 0.0 0.0 0.0
P 1 11 1.0 0.0 0.0 1.0 0.000511 1 0 0 -1 0
HepMC::IO_GenEvent-END_EVENT_LISTING
`
	r := readString(t, listing)
	first, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, 0, first.NumParticles())
	assert.Equal(t, 1, first.NumVertices())

	second, err := r.Next()
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, 8, second.Number)
	assert.Equal(t, 1, second.NumParticles())
	assert.Len(t, r.Skipped(), 2)
}

func TestReaderEmptyListing(t *testing.T) {
	listing := "HepMC::Version 2.06.09\nHepMC::IO_GenEvent-START_EVENT_LISTING\nHepMC::IO_GenEvent-END_EVENT_LISTING\n"

	evt, err := readString(t, listing).Next()
	require.NoError(t, err)
	assert.Nil(t, evt)

	events, err := readString(t, listing).AllEvents()
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestReaderStreamExhaustion(t *testing.T) {
	listing := "HepMC::Version 2.06.09\nHepMC::IO_GenEvent-START_EVENT_LISTING\n" +
		"E 3 0 -1.0 -1.0 -1.0 0 0 1 0 0 0 1 2.0\nV -1 0 0 0 0 0\nP 1 22 0 0 1 1 0 1 0 0 0 0"

	events, err := readString(t, listing).AllEvents()
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, -1, events[0].Particle(1).Start)
}

func TestReaderPreambleErrors(t *testing.T) {
	tests := []struct {
		name    string
		listing string
		want    error
	}{
		{"empty", "", ErrNoVersion},
		{"no version", "HepMC::IO_GenEvent-START_EVENT_LISTING\n", ErrNoVersion},
		{"no start marker", "HepMC::Version 2.06.09\nE 1 0 1.0\n", ErrNoListingStart},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReader(bytes.NewBufferString(tt.listing))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			var streamErr *StreamError
			assert.True(t, errors.As(err, &streamErr))
		})
	}
}

func TestReaderHeaderError(t *testing.T) {
	listing := "HepMC::Version 2.06.09\nHepMC::IO_GenEvent-START_EVENT_LISTING\nV -1 0 0 0 0 0\n"
	r := readString(t, listing)

	evt, err := r.Next()
	assert.Nil(t, evt)
	var headerErr *HeaderError
	require.True(t, errors.As(err, &headerErr))
	assert.Equal(t, 3, headerErr.Line)
	assert.ErrorIs(t, err, ErrNotEventHeader)

	_, err = r.AllEvents()
	assert.ErrorIs(t, err, ErrNotEventHeader)
}

func TestReaderDanglingAndDuplicate(t *testing.T) {
	listing := `HepMC::Version 2.06.09
HepMC::IO_GenEvent-START_EVENT_LISTING
E 1 0 -1.0 -1.0 -1.0 0 0 1 0 0 0 1 1.0
V -1 0 0.0 0.0 0.0 0.0
P 1 22 0 0 1 1 0 1 0 0 -9 0
P 1 22 0 0 2 2 0 1 0 0 0 0
V -1 0 1.0 0.0 0.0 0.0
P 2 22 0 0 3 3 0 1 0 0 0 0
HepMC::IO_GenEvent-END_EVENT_LISTING
`
	r := readString(t, listing)
	evt, err := r.Next()
	require.NoError(t, err)

	p := evt.Particle(1)
	require.NotNil(t, p)
	assert.Equal(t, 0, p.End)
	assert.Equal(t, -1, p.Start)
	assert.Equal(t, 1.0, p.Momentum[2])
	assert.Equal(t, FourVector{}, evt.Vertex(-1).Position)

	// the duplicate vertex is dropped, so particle 2 has no production vertex
	assert.Equal(t, 0, evt.Particle(2).Start)

	skipped := r.Skipped()
	require.Len(t, skipped, 3)
	assert.ErrorIs(t, skipped[0], ErrDuplicateBarcode)
	assert.ErrorIs(t, skipped[1], ErrDuplicateBarcode)
	assert.ErrorIs(t, skipped[2], ErrDanglingVertex)
}

func TestReaderDeterminism(t *testing.T) {
	data, err := os.ReadFile(sampleFile)
	require.NoError(t, err)

	fromBuffer, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	fromFile, err := Open(sampleFile)
	require.NoError(t, err)
	defer fromFile.Close()

	first, err := fromBuffer.Next()
	require.NoError(t, err)
	second, err := fromFile.Next()
	require.NoError(t, err)
	assert.True(t, first.Equal(second))
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open("testdata/does-not-exist.hepmc")
	var openErr *ErrOpenFile
	require.True(t, errors.As(err, &openErr))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

type fixedCharge map[int]float64

func (f fixedCharge) Charge(pid int) (float64, bool) {
	charge, ok := f[pid]
	return charge, ok
}

func TestReaderParticleTable(t *testing.T) {
	r := readString(t, minimalListing, WithParticleTable(fixedCharge{}))
	evt, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, 0.0, evt.Particle(1).Charge)

	r = readString(t, minimalListing, WithParticleTable(fixedCharge{11: -3}))
	evt, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, -3.0, evt.Particle(1).Charge)
}

func TestReaderRejectsNonFiniteValues(t *testing.T) {
	listing := `HepMC::Version 2.06.09
HepMC::IO_GenEvent-START_EVENT_LISTING
E 1 0 -1.0 -1.0 -1.0 0 0 1 0 0 0 1 1.0
U GEV MM
V -1 0 0.0 0.0 0.0 0.0
V -2 0 inf 0.0 0.0 0.0
P 1 11 nan 0.0 0.0 1.0 0.000511 1 0 0 -1 0
P 2 11 1.0 0.0 0.0 1.0 +Inf 1 0 0 -1 0
P 3 11 1.0 0.0 0.0 1.0 0.000511 1 0 0 -1 0
HepMC::IO_GenEvent-END_EVENT_LISTING
`
	r := readString(t, listing)
	evt, err := r.Next()
	require.NoError(t, err)

	assert.Equal(t, []int{3}, barcodes(evt.Particles()))
	assert.Equal(t, 1, evt.NumVertices())

	skipped := r.Skipped()
	require.Len(t, skipped, 3)
	for i, tag := range []string{"V", "P", "P"} {
		assert.Equal(t, tag, skipped[i].Tag)
		assert.Equal(t, 6+i, skipped[i].Line)
		assert.ErrorIs(t, skipped[i], ErrMalformedRecord)
	}

	decoded, err := EncodeDocument(evt).Decode()
	require.NoError(t, err)
	assert.True(t, evt.Equal(decoded))
}

func TestReaderReportsRecordsBeforeFirstVertex(t *testing.T) {
	listing := `HepMC::Version 2.06.09
HepMC::IO_GenEvent-START_EVENT_LISTING
E 1 0 -1.0 -1.0 -1.0 0 0 1 0 0 0 1 1.0
N 1 "0"
U GEV MM
P 9 22 0 0 1 1 0 1 0 0 0 0
X something
V -1 0 0.0 0.0 0.0 0.0
P 1 11 1.0 0.0 0.0 1.0 0.000511 1 0 0 -1 0
HepMC::IO_GenEvent-END_EVENT_LISTING
`
	var seen []*RecordError
	r := readString(t, listing, WithSkipHandler(func(rec *RecordError) {
		seen = append(seen, rec)
	}))
	evt, err := r.Next()
	require.NoError(t, err)

	assert.Nil(t, evt.Particle(9))
	assert.NotNil(t, evt.Particle(1))
	assert.Equal(t, Units{Momentum: "GEV", Length: "MM"}, evt.Units)

	require.Len(t, seen, 2)
	assert.Equal(t, r.Skipped(), seen)
	assert.Equal(t, "P", seen[0].Tag)
	assert.Equal(t, 6, seen[0].Line)
	assert.Equal(t, "X", seen[1].Tag)
	assert.Equal(t, 7, seen[1].Line)
	for _, rec := range seen {
		assert.ErrorIs(t, rec, ErrUnexpectedRecord)
		assert.Equal(t, 1, rec.Event)
	}
}
