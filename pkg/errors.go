package readout

import "fmt"

// ErrUnknownPulseShape is returned when the configured pulse shape is not
// one of the supported shaper models.
type ErrUnknownPulseShape struct {
	Name string
}

func (e *ErrUnknownPulseShape) Error() string {
	return fmt.Sprintf("unrecognized pulse shape %q", e.Name)
}

// ErrEmptyCatalog is returned when the channel catalog has no channels.
type ErrEmptyCatalog struct {
	Detector string
}

func (e *ErrEmptyCatalog) Error() string {
	return fmt.Sprintf("channel catalog for %q is empty", e.Detector)
}

// ErrMissingCalibration is returned when a catalogued channel has no
// calibration entry.
type ErrMissingCalibration struct {
	Sensor string
	Strip  int
}

func (e *ErrMissingCalibration) Error() string {
	return fmt.Sprintf("missing calibration for sensor %q strip %d", e.Sensor, e.Strip)
}

// ErrUnknownSensor represents a deposit on a sensor that is not in the catalog.
type ErrUnknownSensor struct {
	Sensor string
}

func (e *ErrUnknownSensor) Error() string {
	return fmt.Sprintf("unknown sensor %q", e.Sensor)
}

// ErrChannelOutOfRange represents a deposit on a strip the sensor does not have.
type ErrChannelOutOfRange struct {
	Sensor string
	Strip  int
	NStrip int
}

func (e *ErrChannelOutOfRange) Error() string {
	return fmt.Sprintf("strip %d out of range for sensor %q (%d strips)", e.Strip, e.Sensor, e.NStrip)
}

// ErrNoContributingHits is a data integrity violation: charge was collected
// on a channel without any truth hit responsible for it.
type ErrNoContributingHits struct {
	Sensor string
	Strip  int
}

func (e *ErrNoContributingHits) Error() string {
	return fmt.Sprintf("no contributing truth hits for sensor %q strip %d", e.Sensor, e.Strip)
}

// ErrQuery represents an error reading conditions from the database.
type ErrQuery struct {
	Table string
	Err   error
}

func (e *ErrQuery) Error() string {
	return fmt.Sprintf("error querying table %q: %v", e.Table, e.Err)
}

func (e *ErrQuery) Unwrap() error {
	return e.Err
}

// ErrCreateGroup represents an error when creating a group.
type ErrCreateGroup struct {
	GroupName string
	Err       error
}

func (e *ErrCreateGroup) Error() string {
	return fmt.Sprintf("error creating group %q: %v", e.GroupName, e.Err)
}

func (e *ErrCreateGroup) Unwrap() error {
	return e.Err
}

// ErrCreateTable represents an error when creating a table.
type ErrCreateTable struct {
	TableName string
	Err       error
}

func (e *ErrCreateTable) Error() string {
	return fmt.Sprintf("error creating table %q: %v", e.TableName, e.Err)
}

func (e *ErrCreateTable) Unwrap() error {
	return e.Err
}
