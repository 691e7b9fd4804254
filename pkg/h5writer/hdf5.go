package h5writer

import (
	"fmt"

	hdf5 "github.com/jmbenlloch/go-hdf5"
)

// Unit names are stored as fixed size byte arrays.
const STRLEN = 8

type eventRowHDF5 struct {
	EvtNo        int32        `hdf5:"evt_no"`
	Event        int32        `hdf5:"event"`
	Weight       float64      `hdf5:"weight"`
	MomentumUnit [STRLEN]byte `hdf5:"momentum_unit"`
	LengthUnit   [STRLEN]byte `hdf5:"length_unit"`
	XSec         float64      `hdf5:"xsec"`
	XSecErr      float64      `hdf5:"xsec_err"`
	NParticles   int32        `hdf5:"n_particles"`
	NVertices    int32        `hdf5:"n_vertices"`
}

type particleRowHDF5 struct {
	Event       int32   `hdf5:"event"`
	Barcode     int32   `hdf5:"barcode"`
	PID         int32   `hdf5:"pid"`
	Status      int32   `hdf5:"status"`
	Px          float64 `hdf5:"px"`
	Py          float64 `hdf5:"py"`
	Pz          float64 `hdf5:"pz"`
	E           float64 `hdf5:"e"`
	Mass        float64 `hdf5:"mass"`
	Charge      float64 `hdf5:"charge"`
	StartVertex int32   `hdf5:"start_vertex"`
	EndVertex   int32   `hdf5:"end_vertex"`
}

type vertexRowHDF5 struct {
	Event   int32   `hdf5:"event"`
	Barcode int32   `hdf5:"barcode"`
	X       float64 `hdf5:"x"`
	Y       float64 `hdf5:"y"`
	Z       float64 `hdf5:"z"`
	T       float64 `hdf5:"t"`
}

func convertToHdf5String(s string) [STRLEN]byte {
	var byteArray [STRLEN]byte
	copy(byteArray[:], s)
	return byteArray
}

func convertFromHdf5String(b [STRLEN]byte) string {
	n := 0
	for n < len(b) && b[n] != 0 {
		n++
	}
	return string(b[:n])
}

// createTable creates an extendable, chunked and compressed one dimensional
// dataset whose element type is the compound type of datatype.
func createTable(group *hdf5.Group, name string, datatype interface{}, compressionLevel int) (*hdf5.Dataset, error) {
	dims := []uint{0}
	unlimitedDims := -1 // H5S_UNLIMITED is -1L
	maxDims := []uint{uint(unlimitedDims)}
	fileSpace, err := hdf5.CreateSimpleDataspace(dims, maxDims)
	if err != nil {
		return nil, fmt.Errorf("error creating dataspace for %s: %w", name, err)
	}
	defer fileSpace.Close()

	plist, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		return nil, fmt.Errorf("error creating property list for %s: %w", name, err)
	}
	defer plist.Close()

	chunks := []uint{32768}
	if err := plist.SetChunk(chunks); err != nil {
		return nil, fmt.Errorf("error setting chunks of %s: %w", name, err)
	}
	if compressionLevel > 0 {
		if err := plist.SetDeflate(compressionLevel); err != nil {
			return nil, fmt.Errorf("error setting compression of %s: %w", name, err)
		}
	}

	dtype, err := hdf5.NewDatatypeFromValue(datatype)
	if err != nil {
		return nil, fmt.Errorf("error creating datatype for %s: %w", name, err)
	}
	defer dtype.Close()

	dset, err := group.CreateDatasetWith(name, dtype, fileSpace, plist)
	if err != nil {
		return nil, fmt.Errorf("error creating dataset %s: %w", name, err)
	}
	return dset, nil
}

// writeArrayToTable appends data after the first rowsInTable rows.
func writeArrayToTable[T any](dataset *hdf5.Dataset, data *[]T, rowsInTable int) error {
	length := uint(len(*data))
	if length == 0 {
		return nil
	}
	dims := []uint{length}
	dataspace, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		return err
	}
	defer dataspace.Close()

	// extend
	offset := uint(rowsInTable)
	newsize := []uint{offset + length}
	if err := dataset.Resize(newsize); err != nil {
		return err
	}
	filespace := dataset.Space()
	defer filespace.Close()

	start := []uint{offset}
	count := []uint{length}
	if err := filespace.SelectHyperslab(start, nil, count, nil); err != nil {
		return err
	}
	return dataset.WriteSubset(data, dataspace, filespace)
}
