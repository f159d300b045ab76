package spatial

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/treelights/internal/monitoring"
)

// LoadCSV reads x,y,z rows; row order is LED order. A non-numeric first row
// is treated as a header. Rows with fewer than three fields are skipped.
func LoadCSV(r io.Reader) ([]r3.Vec, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var points []r3.Vec
	first := true
	for line := 1; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
		}

		if first {
			first = false
			if p, ok := parseRow(record); ok {
				points = append(points, p)
			}
			continue
		}

		if len(record) < 3 {
			continue
		}
		p, ok := parseRow(record)
		if !ok {
			return nil, fmt.Errorf("%w: line %d: non-numeric coordinate %q", ErrInvalidGeometry, line, strings.Join(record, ","))
		}
		points = append(points, p)
	}

	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no coordinates", ErrInvalidGeometry)
	}
	return points, nil
}

func parseRow(record []string) (r3.Vec, bool) {
	if len(record) < 3 {
		return r3.Vec{}, false
	}
	var v [3]float64
	for i := 0; i < 3; i++ {
		f, err := strconv.ParseFloat(strings.TrimSpace(record[i]), 64)
		if err != nil {
			return r3.Vec{}, false
		}
		v[i] = f
	}
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}, true
}

// LoadCSVFile reads coordinates from path.
func LoadCSVFile(path string) ([]r3.Vec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}
	defer f.Close()
	return LoadCSV(f)
}

// Load builds a model from a coordinate file. An empty path, a missing or
// malformed file all fall back to the vertical-line geometry with
// expectedCount LEDs; the failure is logged, not returned.
func Load(path string, expectedCount int) *Model {
	if path == "" {
		monitoring.Warnf("no coordinate file provided, using linear fallback with %d LEDs", expectedCount)
		return BuildFallback(expectedCount)
	}

	points, err := LoadCSVFile(path)
	if err == nil {
		var m *Model
		m, err = Build(points, expectedCount)
		if err == nil {
			b := m.Bounds()
			monitoring.Infof("loaded %d LED coordinates from %s", m.Len(), path)
			monitoring.Debugf("tree bounds: x[%.3f %.3f] y[%.3f %.3f] z[%.3f %.3f]",
				b.Min.X, b.Max.X, b.Min.Y, b.Max.Y, b.Min.Z, b.Max.Z)
			return m
		}
	}

	monitoring.Warnf("loading coordinates from %s: %v; using linear fallback with %d LEDs", path, err, expectedCount)
	return BuildFallback(expectedCount)
}

// WriteCSV writes points with an X,Y,Z header.
func WriteCSV(w io.Writer, points []r3.Vec) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"X", "Y", "Z"}); err != nil {
		return err
	}
	for _, p := range points {
		row := []string{
			strconv.FormatFloat(p.X, 'f', 6, 64),
			strconv.FormatFloat(p.Y, 'f', 6, 64),
			strconv.FormatFloat(p.Z, 'f', 6, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
