package record

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/oxistream/oxistream/internal/protocol"
)

// timestampLayout matches the row format of the original data files,
// millisecond precision.
const timestampLayout = "2006-01-02 15:04:05.000"

// csvHeader is the flat reading record, one column per field.
var csvHeader = []string{
	"timestamp", "spo2", "pulse_rate", "pleth", "signal_strength", "status", "pulse_beep",
}

// CSVRecorder appends one row per reading to a CSV file, flushing after
// every row. Absent optional fields are written as empty cells, never as
// sentinel numbers.
type CSVRecorder struct {
	file *os.File
	w    *csv.Writer
	path string
}

// NewCSVRecorder creates the file at path and writes the header row. An
// empty path auto-generates data/oximeter_data_<timestamp>.csv.
func NewCSVRecorder(path string) (*CSVRecorder, error) {
	if path == "" {
		if err := os.MkdirAll("data", 0o755); err != nil {
			return nil, fmt.Errorf("could not create data directory: %w", err)
		}
		path = filepath.Join("data",
			fmt.Sprintf("oximeter_data_%s.csv", time.Now().Format("20060102_150405")))
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("could not create CSV file: %w", err)
	}

	r := &CSVRecorder{file: file, w: csv.NewWriter(file), path: path}
	if err := r.w.Write(csvHeader); err != nil {
		file.Close()
		return nil, fmt.Errorf("could not write CSV header: %w", err)
	}
	r.w.Flush()
	if err := r.w.Error(); err != nil {
		file.Close()
		return nil, fmt.Errorf("could not flush CSV header: %w", err)
	}
	return r, nil
}

// Path returns the file being written.
func (r *CSVRecorder) Path() string {
	return r.path
}

// Record appends one reading and flushes it to the file.
func (r *CSVRecorder) Record(reading protocol.Reading) error {
	row := []string{
		reading.Timestamp.Format(timestampLayout),
		optionalCell(reading.SpO2),
		optionalCell(reading.PulseRate),
		optionalCell(reading.Pleth),
		strconv.Itoa(reading.SignalStrength),
		reading.Status.String(),
		strconv.FormatBool(reading.PulseBeep),
	}
	if err := r.w.Write(row); err != nil {
		return fmt.Errorf("could not write CSV row: %w", err)
	}
	r.w.Flush()
	if err := r.w.Error(); err != nil {
		return fmt.Errorf("could not flush CSV row: %w", err)
	}
	return nil
}

// Close flushes and closes the file.
func (r *CSVRecorder) Close() error {
	r.w.Flush()
	if err := r.w.Error(); err != nil {
		r.file.Close()
		return err
	}
	return r.file.Close()
}

func optionalCell(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
