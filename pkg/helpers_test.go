package hepmc

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleFile = "testdata/zmumu.hepmc"

const minimalListing = `HepMC::Version 2.06.09
HepMC::IO_GenEvent-START_EVENT_LISTING
E 1 0 -1.0 -1.0 -1.0 0 0 1 0 0 0 1 1.0
U GEV MM
C 1.0e-3 2.0e-5
V -1 0 0.0 0.0 0.0 0.0
P 1 11 1.0 0.0 0.0 1.0 0.000511 1 0 0 -1 0
HepMC::IO_GenEvent-END_EVENT_LISTING
`

func readString(t *testing.T, listing string, opts ...ReaderOption) *Reader {
	t.Helper()
	r, err := NewReader(strings.NewReader(listing), opts...)
	require.NoError(t, err)
	return r
}

func sampleEvents(t *testing.T) []*Event {
	t.Helper()
	data, err := os.ReadFile(sampleFile)
	require.NoError(t, err)
	events, err := readString(t, string(data)).AllEvents()
	require.NoError(t, err)
	require.Len(t, events, 2)
	return events
}

func barcodes(particles []*Particle) []int {
	out := make([]int, len(particles))
	for i, p := range particles {
		out[i] = p.Barcode
	}
	return out
}
