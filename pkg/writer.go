package readout

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	hdf5 "github.com/jmbenlloch/go-hdf5"
)

// HDF5Writer stores readouts in an HDF5 file:
//
//	/Run/runInfo        run number, run id, detector
//	/Run/readouts       one row per readout
//	/RD/rawhits         one row per raw tracker hit
//	/RD/samples         the six ADC samples of every raw hit, same row order
//	/Truth/relations    raw hit to truth hit relations
//	/Sensors/sensors    sensor id, name and number of strips
type HDF5Writer struct {
	File           *hdf5.File
	Filename       string
	RunGroup       *hdf5.Group
	RDGroup        *hdf5.Group
	TruthGroup     *hdf5.Group
	SensorsGroup   *hdf5.Group
	RunInfoTable   *extendible
	ReadoutTable   *extendible
	RawHitsTable   *extendible
	SamplesArray   *extendible
	RelationsTable *extendible
	SensorsTable   *extendible
	catalog        *ChannelCatalog
	EvtCounter     int
}

// NewHDF5Writer creates the file and writes the run information and the
// sensor table.
func NewHDF5Writer(filename string, config Configuration, catalog *ChannelCatalog, runID uuid.UUID) (*HDF5Writer, error) {
	// Set string size for HDF5
	hdf5.SetStringLength(STRLEN)

	if config.Verbosity > 0 {
		message := fmt.Sprintf("Creating file %s", filename)
		logger.Info(message, "hdf5writer")
	}
	file, err := hdf5.CreateFile(filename, hdf5.F_ACC_TRUNC)
	if err != nil {
		return nil, fmt.Errorf("error creating file %s: %w", filename, err)
	}

	w := &HDF5Writer{File: file, Filename: filename, catalog: catalog}
	if err := w.create(config.CompressionLevel); err != nil {
		return nil, errors.Join(err, w.Close())
	}

	pileup := int32(1)
	if config.NoPileup {
		pileup = 0
	}
	runInfo := RunInfoHDF5{
		run_number: int32(config.RunNumber),
		run_id:     convertToHdf5String(runID.String()),
		detector:   convertToHdf5String(catalog.Detector),
		pileup:     pileup,
	}
	if err := writeEntryToTable(w.RunInfoTable, runInfo); err != nil {
		return nil, errors.Join(fmt.Errorf("error writing run info: %w", err), w.Close())
	}

	// The array MUST be allocated at creation, HDF5 reads len() entries
	sensors := make([]SensorHDF5, len(catalog.Sensors()))
	for i, sensor := range catalog.Sensors() {
		sensors[i] = SensorHDF5{
			sensor_id: int32(sensor.ID),
			name:      convertToHdf5String(sensor.Name),
			nstrips:   int32(sensor.NStrips),
		}
	}
	if err := writeArrayToTable(w.SensorsTable, &sensors); err != nil {
		return nil, errors.Join(fmt.Errorf("error writing sensors: %w", err), w.Close())
	}
	return w, nil
}

func (w *HDF5Writer) create(compression int) error {
	var err error
	if w.RunGroup, err = createGroup(w.File, "Run"); err != nil {
		return err
	}
	if w.RDGroup, err = createGroup(w.File, "RD"); err != nil {
		return err
	}
	if w.TruthGroup, err = createGroup(w.File, "Truth"); err != nil {
		return err
	}
	if w.SensorsGroup, err = createGroup(w.File, "Sensors"); err != nil {
		return err
	}
	if w.RunInfoTable, err = createTable(w.RunGroup, "runInfo", RunInfoHDF5{}, compression); err != nil {
		return err
	}
	if w.ReadoutTable, err = createTable(w.RunGroup, "readouts", ReadoutHDF5{}, compression); err != nil {
		return err
	}
	if w.RawHitsTable, err = createTable(w.RDGroup, "rawhits", RawHitHDF5{}, compression); err != nil {
		return err
	}
	if w.SamplesArray, err = createSamplesArray(w.RDGroup, "samples", NSamples, compression); err != nil {
		return err
	}
	if w.RelationsTable, err = createTable(w.TruthGroup, "relations", RelationHDF5{}, compression); err != nil {
		return err
	}
	if w.SensorsTable, err = createTable(w.SensorsGroup, "sensors", SensorHDF5{}, compression); err != nil {
		return err
	}
	return nil
}

// WriteReadout appends one readout with its raw hits and truth relations.
func (w *HDF5Writer) WriteReadout(readout *Readout) error {
	evt := int32(readout.Number)
	entry := ReadoutHDF5{
		evt_number:   evt,
		time:         readout.Time,
		first_sample: readout.FirstSample,
		nhits:        int32(len(readout.Hits)),
		nrelations:   int32(len(readout.Relations)),
	}
	if err := writeEntryToTable(w.ReadoutTable, entry); err != nil {
		return fmt.Errorf("error writing readout table: %w", err)
	}

	rawHits := make([]RawHitHDF5, len(readout.Hits))
	samples := make([]int16, len(readout.Hits)*NSamples)
	for i, hit := range readout.Hits {
		rawHits[i] = RawHitHDF5{
			evt_number: evt,
			channel_id: hit.Key.PackedID(),
			sensor:     int32(hit.Key.Sensor),
			strip:      int32(hit.Key.Strip),
		}
		copy(samples[i*NSamples:(i+1)*NSamples], hit.Samples[:])
	}
	if err := writeArrayToTable(w.RawHitsTable, &rawHits); err != nil {
		return fmt.Errorf("error writing raw hits: %w", err)
	}
	if err := writeSamples(w.SamplesArray, &samples, uint(len(readout.Hits))); err != nil {
		return fmt.Errorf("error writing samples: %w", err)
	}

	relations := make([]RelationHDF5, len(readout.Relations))
	for i, relation := range readout.Relations {
		relations[i] = RelationHDF5{
			evt_number: evt,
			hit:        int32(relation.Hit),
			truth_hit:  relation.TruthHit,
		}
	}
	if err := writeArrayToTable(w.RelationsTable, &relations); err != nil {
		return fmt.Errorf("error writing relations: %w", err)
	}

	w.EvtCounter++
	return nil
}

func (w *HDF5Writer) Close() error {
	logger.Info(fmt.Sprintf("Closing file %s", w.Filename), "hdf5writer")
	var errs []error

	tables := []struct {
		name  string
		table *extendible
	}{
		{"run info table", w.RunInfoTable},
		{"readout table", w.ReadoutTable},
		{"raw hits table", w.RawHitsTable},
		{"samples array", w.SamplesArray},
		{"relations table", w.RelationsTable},
		{"sensors table", w.SensorsTable},
	}
	for _, t := range tables {
		if err := t.table.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing %s: %w", t.name, err))
		}
	}

	groups := []struct {
		name  string
		group *hdf5.Group
	}{
		{"run group", w.RunGroup},
		{"RD group", w.RDGroup},
		{"truth group", w.TruthGroup},
		{"sensors group", w.SensorsGroup},
	}
	for _, g := range groups {
		if g.group == nil {
			continue
		}
		if err := g.group.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing %s: %w", g.name, err))
		}
	}

	if err := w.File.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing file: %w", err))
	}
	return errors.Join(errs...)
}
