// Package normalize rescales hundredths-encoded sensor columns of a captured
// telemetry CSV into two-decimal physical values.
package normalize

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/itohio/fueltable/pkg/config"
	"github.com/itohio/fueltable/pkg/telemetry"
)

// TimestampLayout is the timestamp embedded in output file names.
const TimestampLayout = "20060102_150405"

// maxLineSize bounds a single CSV line.
const maxLineSize = 1 << 20

// ErrEmptyInput is returned when the input has no header row.
var ErrEmptyInput = errors.New("input has no header row")

// Stats reports what Process did.
type Stats struct {
	Rows     int // Data rows written (header excluded)
	Rescaled int // Cells converted
}

// Normalizer rescales fixed column positions by a divisor.
type Normalizer struct {
	divisor    int
	minColumns int
	columns    []int
	sentinels  map[int]telemetry.SentinelSet
}

// New creates a Normalizer from configuration. The external temperature
// column recognises thermocouple fault sentinels, all others only "No Data".
func New(cfg config.NormalizeConfig) *Normalizer {
	n := &Normalizer{
		divisor:    cfg.Divisor,
		minColumns: cfg.MinColumns,
		columns:    cfg.Columns,
		sentinels:  make(map[int]telemetry.SentinelSet, len(cfg.Columns)),
	}
	if n.divisor == 0 {
		n.divisor = 100
	}
	for _, c := range n.columns {
		n.sentinels[c] = telemetry.LevelSentinels
	}
	n.sentinels[telemetry.DefaultColumns.External] = telemetry.ExternalSentinels
	return n
}

// Row returns a copy of row with the configured columns rescaled. Rows shorter
// than the minimum column count are returned unchanged. The second result is
// the number of cells converted.
func (n *Normalizer) Row(row []string) ([]string, int) {
	out := make([]string, len(row))
	copy(out, row)

	if len(row) < n.minColumns {
		return out, 0
	}

	converted := 0
	for _, c := range n.columns {
		if c < 0 || c >= len(out) {
			continue
		}
		if v, ok := n.rescale(out[c], n.sentinels[c]); ok {
			out[c] = v
			converted++
		}
	}

	return out, converted
}

// rescale converts an unsigned integer cell. Sentinels, signed and
// fractional values are left alone.
func (n *Normalizer) rescale(cell string, sentinels telemetry.SentinelSet) (string, bool) {
	if sentinels.Contains(cell) || !telemetry.IsUnsignedInteger(cell) {
		return "", false
	}
	v, err := strconv.ParseUint(cell, 10, 64)
	if err != nil {
		return "", false
	}
	return strconv.FormatFloat(float64(v)/float64(n.divisor), 'f', 2, 64), true
}

// Process copies the header from r to w unchanged and writes every data row,
// rescaled where possible. Rows are never dropped: blank lines and rows with
// nothing to rescale are written back byte for byte.
func (n *Normalizer) Process(r io.Reader, w io.Writer) (Stats, error) {
	var stats Stats

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)

	out := bufio.NewWriter(w)
	writer := csv.NewWriter(out)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return stats, fmt.Errorf("failed to read header: %w", err)
		}
		return stats, ErrEmptyInput
	}
	if err := writeLine(out, scanner.Text()); err != nil {
		return stats, fmt.Errorf("failed to write header: %w", err)
	}

	for scanner.Scan() {
		line := scanner.Text()
		stats.Rows++

		if err := n.line(out, writer, line, &stats); err != nil {
			return stats, fmt.Errorf("failed to write row %d: %w", stats.Rows, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("failed to read row %d: %w", stats.Rows+1, err)
	}

	if err := out.Flush(); err != nil {
		return stats, fmt.Errorf("failed to flush output: %w", err)
	}

	return stats, nil
}

// line writes one data row. Only rows with at least one converted cell are
// re-encoded; everything else is copied as read.
func (n *Normalizer) line(out *bufio.Writer, writer *csv.Writer, line string, stats *Stats) error {
	if strings.TrimSpace(line) == "" {
		return writeLine(out, line)
	}

	reader := csv.NewReader(strings.NewReader(line))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	row, err := reader.Read()
	if err != nil {
		return writeLine(out, line)
	}

	rescaled, converted := n.Row(row)
	if converted == 0 {
		return writeLine(out, line)
	}
	stats.Rescaled += converted

	if err := writer.Write(rescaled); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

func writeLine(w *bufio.Writer, line string) error {
	if _, err := w.WriteString(line); err != nil {
		return err
	}
	return w.WriteByte('\n')
}

// File processes input into a new file next to it and returns the output path.
func (n *Normalizer) File(input string, now time.Time) (string, Stats, error) {
	in, err := os.Open(input)
	if err != nil {
		return "", Stats{}, fmt.Errorf("failed to open input: %w", err)
	}
	defer in.Close()

	output := OutputPath(input, now)
	out, err := os.Create(output)
	if err != nil {
		return "", Stats{}, fmt.Errorf("failed to create output: %w", err)
	}

	stats, err := n.Process(in, out)
	if cerr := out.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close output: %w", cerr)
	}
	if err != nil {
		return output, stats, err
	}

	return output, stats, nil
}

// OutputPath returns <input without extension>_processed_<timestamp>.csv.
func OutputPath(input string, now time.Time) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return fmt.Sprintf("%s_processed_%s.csv", base, now.Format(TimestampLayout))
}
