package dataset

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/YuminosukeSato/stackreg/pkg/errors"
)

// Source delivers one or more numeric columns.
type Source interface {
	// Name identifies the source in errors and logs.
	Name() string
	// Load returns the columns and their labels (labels may be empty).
	Load(ctx context.Context) (columns [][]float64, names []string, err error)
}

// Layout selects how a CSV file maps to columns.
type Layout int

const (
	// Columns reads every CSV column as one variable and every record as one
	// observation. A first record with a non-numeric cell is a header.
	Columns Layout = iota
	// Series reads the whole file as a single variable: the first cell of each
	// record is a label (e.g. a year) and the remaining cells are concatenated
	// record by record. Empty cells are skipped.
	Series
)

// CSVFile is a CSV file on disk.
type CSVFile struct {
	Path   string
	Layout Layout
}

// Name implements Source.
func (f CSVFile) Name() string { return f.Path }

// Load implements Source.
func (f CSVFile) Load(ctx context.Context) ([][]float64, []string, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, errors.NewDataUnavailableError(f.Path, err)
	}
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, nil, errors.NewDataUnavailableError(f.Path, err)
	}
	defer file.Close()

	var (
		cols  [][]float64
		names []string
	)
	switch f.Layout {
	case Series:
		var series []float64
		series, err = ReadSeries(file)
		cols = [][]float64{series}
		names = []string{strings.TrimSuffix(filepath.Base(f.Path), filepath.Ext(f.Path))}
	default:
		cols, names, err = ReadColumns(file)
	}
	if err != nil {
		return nil, nil, errors.NewDataUnavailableError(f.Path, err)
	}
	return cols, names, nil
}

// SeriesDir is a directory holding one Series-layout CSV file per variable. Files
// are read in name order; variables are named after their files.
type SeriesDir struct {
	Dir string
}

// Name implements Source.
func (d SeriesDir) Name() string { return d.Dir }

// Load implements Source. Files are read concurrently.
func (d SeriesDir) Load(ctx context.Context) ([][]float64, []string, error) {
	paths, err := filepath.Glob(filepath.Join(d.Dir, "*.csv"))
	if err != nil {
		return nil, nil, errors.NewDataUnavailableError(d.Dir, err)
	}
	if len(paths) == 0 {
		return nil, nil, errors.NewDataUnavailableError(d.Dir, errors.New("no .csv files"))
	}
	sort.Strings(paths)

	cols := make([][]float64, len(paths))
	names := make([]string, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			c, n, err := CSVFile{Path: p, Layout: Series}.Load(gctx)
			if err != nil {
				return err
			}
			cols[i], names[i] = c[0], n[0]
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return cols, names, nil
}

// Memory is an in-memory source.
type Memory struct {
	Label   string
	Columns [][]float64
	Names   []string
}

// Name implements Source.
func (m Memory) Name() string { return m.Label }

// Load implements Source.
func (m Memory) Load(ctx context.Context) ([][]float64, []string, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, errors.NewDataUnavailableError(m.Label, err)
	}
	if len(m.Columns) == 0 {
		return nil, nil, errors.NewDataUnavailableError(m.Label, errors.ErrEmptyData)
	}
	return m.Columns, m.Names, nil
}

// ReadColumns parses a CSV table into columns.
func ReadColumns(r io.Reader) ([][]float64, []string, error) {
	records, err := readAll(r)
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, errors.ErrEmptyData
	}

	var names []string
	if !numericRecord(records[0]) {
		names = trimAll(records[0])
		records = records[1:]
		if len(records) == 0 {
			return nil, nil, errors.ErrEmptyData
		}
	}

	width := len(records[0])
	cols := make([][]float64, width)
	for i, rec := range records {
		if len(rec) != width {
			return nil, nil, errors.Newf("record %d has %d fields, want %d", i+1, len(rec), width)
		}
		for j, cell := range rec {
			v, err := parseCell(cell)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "record %d field %d", i+1, j+1)
			}
			cols[j] = append(cols[j], v)
		}
	}
	return cols, names, nil
}

// ReadSeries parses a Series-layout CSV into one series.
func ReadSeries(r io.Reader) ([]float64, error) {
	records, err := readAll(r)
	if err != nil {
		return nil, err
	}
	var out []float64
	for i, rec := range records {
		if len(rec) < 2 {
			continue
		}
		for j, cell := range rec[1:] {
			if strings.TrimSpace(cell) == "" {
				continue
			}
			v, err := parseCell(cell)
			if err != nil {
				if i == 0 {
					// header record
					break
				}
				return nil, errors.Wrapf(err, "record %d field %d", i+1, j+2)
			}
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil, errors.ErrEmptyData
	}
	return out, nil
}

func readAll(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'
	records, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "csv")
	}
	return records, nil
}

func parseCell(cell string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return 0, errors.Newf("invalid number %q", cell)
	}
	return v, nil
}

func numericRecord(rec []string) bool {
	for _, cell := range rec {
		if _, err := parseCell(cell); err != nil {
			return false
		}
	}
	return true
}

func trimAll(rec []string) []string {
	out := make([]string, len(rec))
	for i, s := range rec {
		out[i] = strings.TrimSpace(s)
	}
	return out
}

// LoadConcurrently loads the feature and target sources at the same time and
// returns once both are done. The target source must deliver exactly one column.
// Any failure is fatal and no partial dataset is returned.
func LoadConcurrently(ctx context.Context, features, target Source) (Dataset, error) {
	var (
		featCols, targetCols [][]float64
		names                []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		featCols, names, err = features.Load(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		targetCols, _, err = target.Load(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		if !errors.IsKind(err, errors.KindDataUnavailable) {
			err = errors.NewDataUnavailableError("dataset", err)
		}
		return Dataset{}, err
	}

	if len(targetCols) != 1 {
		return Dataset{}, errors.NewDataUnavailableError(target.Name(),
			errors.Newf("target must have exactly one column, got %d", len(targetCols)))
	}
	if len(names) != len(featCols) {
		names = nil
	}
	return New(featCols, targetCols[0], names...)
}
