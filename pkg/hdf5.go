package readout

import (
	"fmt"

	"github.com/jmbenlloch/go-hdf5"
)

type RunInfoHDF5 struct {
	run_number int32
	run_id     [STRLEN]byte
	detector   [STRLEN]byte
	pileup     int32
}

type ReadoutHDF5 struct {
	evt_number   int32
	time         float64
	first_sample float64
	nhits        int32
	nrelations   int32
}

type RawHitHDF5 struct {
	evt_number int32
	channel_id int64
	sensor     int32
	strip      int32
}

type RelationHDF5 struct {
	evt_number int32
	hit        int32
	truth_hit  uint64
}

type SensorHDF5 struct {
	sensor_id int32
	name      [STRLEN]byte
	nstrips   int32
}

const STRLEN = 48

func convertToHdf5String(s string) [STRLEN]byte {
	var byteArray [STRLEN]byte
	copy(byteArray[:], s)
	return byteArray
}

// extendible is a dataset growing along its first dimension.
type extendible struct {
	dataset *hdf5.Dataset
	rows    uint
	width   uint
}

func createGroup(file *hdf5.File, groupName string) (*hdf5.Group, error) {
	g, err := file.CreateGroup(groupName)
	if err != nil {
		return nil, &ErrCreateGroup{GroupName: groupName, Err: err}
	}
	return g, nil
}

func datasetProperties(chunks []uint, compression int) (*hdf5.PropList, error) {
	plist, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		return nil, err
	}
	if err := plist.SetChunk(chunks); err != nil {
		return nil, err
	}
	if compression > 0 {
		if err := plist.SetDeflate(compression); err != nil {
			return nil, err
		}
	}
	return plist, nil
}

// createSamplesArray creates an int16 array of rows with nSamples columns.
func createSamplesArray(group *hdf5.Group, name string, nSamples int, compression int) (*extendible, error) {
	dims := []uint{0, uint(nSamples)}
	unlimitedDims := -1 // H5S_UNLIMITED is -1L
	maxDims := []uint{uint(unlimitedDims), uint(nSamples)}
	fileSpace, err := hdf5.CreateSimpleDataspace(dims, maxDims)
	if err != nil {
		return nil, err
	}
	defer fileSpace.Close()

	plist, err := datasetProperties([]uint{4096, uint(nSamples)}, compression)
	if err != nil {
		return nil, err
	}
	defer plist.Close()

	dset, err := group.CreateDatasetWith(name, hdf5.T_NATIVE_INT16, fileSpace, plist)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	return &extendible{dataset: dset, width: uint(nSamples)}, nil
}

func createTable(group *hdf5.Group, name string, datatype interface{}, compression int) (*extendible, error) {
	dims := []uint{0}
	unlimitedDims := -1 // H5S_UNLIMITED is -1L
	maxDims := []uint{uint(unlimitedDims)}
	fileSpace, err := hdf5.CreateSimpleDataspace(dims, maxDims)
	if err != nil {
		return nil, err
	}
	defer fileSpace.Close()

	plist, err := datasetProperties([]uint{32768}, compression)
	if err != nil {
		return nil, err
	}
	defer plist.Close()

	dtype, err := hdf5.NewDatatypeFromValue(datatype)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}

	dset, err := group.CreateDatasetWith(name, dtype, fileSpace, plist)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	return &extendible{dataset: dset}, nil
}

func writeEntryToTable[T any](table *extendible, data T) error {
	array := []T{data}
	return writeArrayToTable(table, &array)
}

// writeArrayToTable appends the rows in data. The slice must be fully
// allocated, HDF5 reads len(*data) elements from it.
func writeArrayToTable[T any](table *extendible, data *[]T) error {
	length := uint(len(*data))
	if length == 0 {
		return nil
	}
	return table.extend(data, []uint{length}, []uint{table.rows}, []uint{table.rows + length})
}

// writeSamples appends nRows rows of table.width samples each.
func writeSamples(table *extendible, data *[]int16, nRows uint) error {
	if nRows == 0 {
		return nil
	}
	count := []uint{nRows, table.width}
	return table.extend(data, count, []uint{table.rows, 0}, []uint{table.rows + nRows, table.width})
}

func (t *extendible) extend(data interface{}, count []uint, start []uint, newsize []uint) error {
	dataspace, err := hdf5.CreateSimpleDataspace(count, nil)
	if err != nil {
		return err
	}
	defer dataspace.Close()

	if err := t.dataset.Resize(newsize); err != nil {
		return fmt.Errorf("error extending dataset: %w", err)
	}
	filespace := t.dataset.Space()
	defer filespace.Close()

	if err := filespace.SelectHyperslab(start, nil, count, nil); err != nil {
		return err
	}
	if err := t.dataset.WriteSubset(data, dataspace, filespace); err != nil {
		return fmt.Errorf("error writing dataset: %w", err)
	}
	t.rows = newsize[0]
	return nil
}

func (t *extendible) Close() error {
	if t == nil {
		return nil
	}
	return t.dataset.Close()
}
