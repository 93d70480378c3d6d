package readout

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	sqlx "github.com/jmoiron/sqlx" //make alias name the package to sqlx
)

func ConnectToDatabase(user string, pass string, host string, dbname string) (*sqlx.DB, error) {
	port := "3306"
	dbURI := fmt.Sprintf("%s:%s@(%s:%s)/%s?parseTime=true", user, pass, host, port, dbname)
	db, err := sqlx.Connect("mysql", dbURI)
	return db, err
}

type calibrationRow struct {
	Sensor     string  `db:"Sensor"`
	Strip      int     `db:"Strip"`
	Pedestal0  float64 `db:"Pedestal0"`
	Pedestal1  float64 `db:"Pedestal1"`
	Pedestal2  float64 `db:"Pedestal2"`
	Pedestal3  float64 `db:"Pedestal3"`
	Pedestal4  float64 `db:"Pedestal4"`
	Pedestal5  float64 `db:"Pedestal5"`
	Noise0     float64 `db:"Noise0"`
	Noise1     float64 `db:"Noise1"`
	Noise2     float64 `db:"Noise2"`
	Noise3     float64 `db:"Noise3"`
	Noise4     float64 `db:"Noise4"`
	Noise5     float64 `db:"Noise5"`
	Gain       float64 `db:"Gain"`
	TimeOffset float64 `db:"TimeOffset"`
	Tp         float64 `db:"Tp"`
	Tp2        float64 `db:"Tp2"`
	Bad        bool    `db:"Bad"`
}

func (r calibrationRow) calibration() ChannelCalibration {
	return ChannelCalibration{
		Pedestal:   [NSamples]float64{r.Pedestal0, r.Pedestal1, r.Pedestal2, r.Pedestal3, r.Pedestal4, r.Pedestal5},
		Noise:      [NSamples]float64{r.Noise0, r.Noise1, r.Noise2, r.Noise3, r.Noise4, r.Noise5},
		Gain:       r.Gain,
		TimeOffset: r.TimeOffset,
		Shape:      ShapeParameters{Tp: r.Tp, Tp2: r.Tp2},
		Bad:        r.Bad,
	}
}

// TimingConstants are the readout timing settings of a run.
type TimingConstants struct {
	OffsetPhase float64
	OffsetTime  float64
}

type timingRow struct {
	Name  string  `db:"Name"`
	Value float64 `db:"Value"`
}

// LoadChannelCatalog reads the sensors of a detector valid for a run.
func LoadChannelCatalog(db *sqlx.DB, detector string, runNumber int, verbosity int) (*ChannelCatalog, error) {
	query := "SELECT Name, NStrips FROM Sensors WHERE Detector = ? AND MinRun <= ? AND MaxRun >= ? ORDER BY SensorID"
	if verbosity > 0 {
		message := fmt.Sprintf("Reading %s sensors from database", detector)
		logger.Info(message, "database")
	}
	if verbosity > 2 {
		message := fmt.Sprintf("Query: %s", query)
		logger.Info(message, "database")
	}

	sensors := make([]SensorInfo, 0)
	if err := db.Select(&sensors, query, detector, runNumber, runNumber); err != nil {
		return nil, &ErrQuery{Table: "Sensors", Err: err}
	}
	return NewChannelCatalog(detector, sensors)
}

// LoadCalibration reads the strip calibrations valid for a run. Rows for
// sensors or strips not in the catalog are skipped.
func LoadCalibration(db *sqlx.DB, runNumber int, catalog *ChannelCatalog, verbosity int) (*CalibrationTable, error) {
	query := "SELECT Sensor, Strip, Pedestal0, Pedestal1, Pedestal2, Pedestal3, Pedestal4, Pedestal5, " +
		"Noise0, Noise1, Noise2, Noise3, Noise4, Noise5, Gain, TimeOffset, Tp, Tp2, Bad " +
		"FROM StripCalibration WHERE MinRun <= ? AND MaxRun >= ?"
	if verbosity > 0 {
		logger.Info("Reading strip calibration from database", "database")
	}
	if verbosity > 2 {
		message := fmt.Sprintf("Query: %s", query)
		logger.Info(message, "database")
	}

	rows, err := db.Queryx(query, runNumber, runNumber)
	if err != nil {
		return nil, &ErrQuery{Table: "StripCalibration", Err: err}
	}
	defer rows.Close()

	table := NewCalibrationTable(catalog)
	skipped := 0
	for rows.Next() {
		result := calibrationRow{}
		if err := rows.StructScan(&result); err != nil {
			errMessage := fmt.Errorf("error scanning DB row: %w", err)
			return nil, errMessage
		}
		sensor, ok := catalog.Lookup(result.Sensor)
		if !ok {
			skipped++
			continue
		}
		ch, err := catalog.Channel(sensor, result.Strip)
		if err != nil {
			skipped++
			continue
		}
		table.Set(ch, result.calibration())
	}
	if err := rows.Err(); err != nil {
		return nil, &ErrQuery{Table: "StripCalibration", Err: err}
	}
	if skipped > 0 && verbosity > 0 {
		message := fmt.Sprintf("Skipped %d calibration rows of unknown channels", skipped)
		logger.Info(message, "database")
	}
	return table, nil
}

// LoadTimingConstants reads the readout timing constants of a run.
func LoadTimingConstants(db *sqlx.DB, runNumber int, verbosity int) (TimingConstants, error) {
	query := "SELECT Name, Value FROM TimingConstants WHERE MinRun <= ? AND MaxRun >= ?"
	if verbosity > 2 {
		message := fmt.Sprintf("Query: %s", query)
		logger.Info(message, "database")
	}

	rows := make([]timingRow, 0)
	if err := db.Select(&rows, query, runNumber, runNumber); err != nil {
		return TimingConstants{}, &ErrQuery{Table: "TimingConstants", Err: err}
	}

	constants := TimingConstants{}
	found := 0
	for _, row := range rows {
		switch row.Name {
		case "offset_phase":
			constants.OffsetPhase = row.Value
			found++
		case "offset_time":
			constants.OffsetTime = row.Value
			found++
		}
	}
	if found != 2 {
		err := fmt.Errorf("run %d: expected offset_phase and offset_time, found %d of them", runNumber, found)
		return TimingConstants{}, &ErrQuery{Table: "TimingConstants", Err: err}
	}
	return constants, nil
}

// ApplyTimingConstants derives the readout offset and latency from the
// timing constants.
func (c *Configuration) ApplyTimingConstants(constants TimingConstants) {
	c.ReadoutOffset = 4 * (constants.OffsetPhase + 3)
	c.ReadoutLatency = 248 + constants.OffsetTime
}

// LoadConditions builds the channel catalog and calibrations of the run.
// Without database (db nil) they come from the configured sensors and the
// nominal conditions, and timing conditions are an error. With timing
// conditions enabled the readout latency and offset of config are replaced
// by the ones of the run.
func LoadConditions(db *sqlx.DB, config *Configuration) (*ChannelCatalog, CalibrationProvider, error) {
	if db == nil {
		if config.UseTimingConditions {
			err := fmt.Errorf("timing conditions need the database, run without no_db or disable use_timing_conditions")
			logger.Error(err.Error())
			return nil, nil, err
		}
		catalog, err := NewChannelCatalog(config.Detector, config.Sensors)
		if err != nil {
			return nil, nil, err
		}
		return catalog, NominalCalibration(catalog, config.Nominal), nil
	}

	catalog, err := LoadChannelCatalog(db, config.Detector, config.RunNumber, config.Verbosity)
	if err != nil {
		errMessage := fmt.Errorf("error getting sensors from database: %w", err)
		logger.Error(errMessage.Error())
		return nil, nil, errMessage
	}
	calibrations, err := LoadCalibration(db, config.RunNumber, catalog, config.Verbosity)
	if err != nil {
		errMessage := fmt.Errorf("error getting calibration from database: %w", err)
		logger.Error(errMessage.Error())
		return nil, nil, errMessage
	}
	if config.UseTimingConditions {
		constants, err := LoadTimingConstants(db, config.RunNumber, config.Verbosity)
		if err != nil {
			errMessage := fmt.Errorf("error getting timing constants from database: %w", err)
			logger.Error(errMessage.Error())
			return nil, nil, errMessage
		}
		config.ApplyTimingConstants(constants)
		if config.Verbosity > 0 {
			message := fmt.Sprintf("Timing conditions: readout offset %.1f ns, latency %.1f ns",
				config.ReadoutOffset, config.ReadoutLatency)
			logger.Info(message, "database")
		}
	}
	return catalog, calibrations, nil
}
