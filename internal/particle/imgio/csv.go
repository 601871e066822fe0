package imgio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/gomesfin/puncta/internal/particle"
)

// ReadCSV parses a headerless CSV of float samples, one row per grid
// row, into a grid. Ragged rows surface as a dimension error from the
// grid constructor.
func ReadCSV(r io.Reader) (*particle.Grid, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // let GridFromRows report ragged input
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv grid: %w", err)
	}
	rows := make([][]float64, len(records))
	for y, record := range records {
		rows[y] = make([]float64, len(record))
		for x, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("csv grid row %d column %d: %w", y, x, err)
			}
			rows[y][x] = v
		}
	}
	g, err := particle.GridFromRows(rows)
	if err != nil {
		return nil, fmt.Errorf("csv grid: %w", err)
	}
	return g, nil
}

// WriteCSV writes g as a headerless CSV, one grid row per record.
func WriteCSV(w io.Writer, g *particle.Grid) error {
	cw := csv.NewWriter(w)
	record := make([]string, g.Width)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			record[x] = strconv.FormatFloat(g.At(x, y), 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv grid row %d: %w", y, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// LoadCSVFile reads the CSV grid at path.
func LoadCSVFile(path string) (*particle.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv grid: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// SaveCSVFile writes g to a CSV file at path.
func SaveCSVFile(path string, g *particle.Grid) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv grid: %w", err)
	}
	if err := WriteCSV(f, g); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
